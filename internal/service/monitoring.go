package service

import (
	"context"
	"time"

	"mixergy_bridge/internal/models"
)

type MonitoringService struct {
	tank Tank
}

func NewMonitoringService(t Tank) *MonitoringService {
	return &MonitoringService{tank: t}
}

// GetState returns the cached snapshot without touching the network.
func (s *MonitoringService) GetState(ctx context.Context) (models.TankSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.TankSnapshot{}, err
	}
	snap := models.TankSnapshot{
		Info:        s.tank.Info(),
		State:       s.tank.State(),
		PushChannel: s.tank.ChannelState().String(),
	}
	snap.State.UpdatedAt = toUTC(snap.State.UpdatedAt)
	if t, ok := s.tank.HolidayStart(); ok {
		t = t.UTC()
		snap.HolidayStart = &t
	}
	if t, ok := s.tank.HolidayEnd(); ok {
		t = t.UTC()
		snap.HolidayEnd = &t
	}
	return snap, nil
}

// Refresh runs a full fetch cycle first.
func (s *MonitoringService) Refresh(ctx context.Context) (models.TankSnapshot, error) {
	s.tank.FetchAll(ctx)
	return s.GetState(ctx)
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
