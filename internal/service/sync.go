package service

import (
	"context"
	"time"

	"mixergy_bridge/internal/logger"
)

// SyncService keeps the tank cache current.
type SyncService struct {
	tank Tank
	push bool
	log  *logger.Logger
}

func NewSyncService(t Tank, push bool, log *logger.Logger) *SyncService {
	if log == nil {
		log = logger.Nop()
	}
	return &SyncService{tank: t, push: push, log: log}
}

// Run polls every tick until ctx is canceled. With push enabled the
// streaming subscription runs alongside and is stopped on return.
func (s *SyncService) Run(ctx context.Context, tick time.Duration) {
	if s.push {
		s.tank.Start(ctx)
		defer s.tank.Stop()
	}
	s.log.Infow("sync_started", "push", s.push, "interval", tick.String())
	s.tank.RunPoller(ctx, tick)
	s.log.Infow("sync_stopped")
}
