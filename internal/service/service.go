package service

import (
	"context"
	"time"

	"mixergy_bridge/internal/logger"
	"mixergy_bridge/internal/models"
	"mixergy_bridge/internal/tank"
)

// Tank is the subset of *tank.Client the services drive.
type Tank interface {
	ID() string
	Info() models.TankInfo
	State() models.TankState
	ChannelState() tank.ChannelState
	HolidayStart() (time.Time, bool)
	HolidayEnd() (time.Time, bool)

	FetchAll(ctx context.Context)
	RunPoller(ctx context.Context, tick time.Duration)
	Start(ctx context.Context)
	Stop()

	SetTargetCharge(ctx context.Context, charge int) error
	SetTargetTemperature(ctx context.Context, t float64) error
	SetTargetTemperatureControlEnabled(ctx context.Context, enabled bool) error
	SetDSREnabled(ctx context.Context, enabled bool) error
	SetFrostProtectionEnabled(ctx context.Context, enabled bool) error
	SetDistributedComputingEnabled(ctx context.Context, enabled bool) error
	SetDivertExportedEnabled(ctx context.Context, enabled bool) error
	SetCleansingTemperature(ctx context.Context, v float64) error
	SetPVCutInThreshold(ctx context.Context, v float64) error
	SetPVChargeLimit(ctx context.Context, v float64) error
	SetPVTargetCurrent(ctx context.Context, v float64) error
	SetPVOverTemperature(ctx context.Context, v float64) error
	SetSchedule(ctx context.Context, doc map[string]any) error
	SetHolidayDates(ctx context.Context, start, end time.Time) error
	ClearHolidayDates(ctx context.Context) error
}

type Authorization interface {
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (string, error)
}

// Control exposes the tank mutations.
type Control interface {
	SetCharge(ctx context.Context, p ChargeParams) error
	SetTargetTemperature(ctx context.Context, p TemperatureParams) error
	UpdateSettings(ctx context.Context, p SettingsParams) error
	SetHolidayDates(ctx context.Context, p HolidayParams) error
	ClearHolidayDates(ctx context.Context) error
	SetSchedule(ctx context.Context, doc map[string]any) error
}

// Monitoring exposes the cached tank state.
type Monitoring interface {
	GetState(ctx context.Context) (models.TankSnapshot, error)
	Refresh(ctx context.Context) (models.TankSnapshot, error)
}

// Sync keeps the cache fresh by polling and, optionally, the push channel.
// Stop via context cancellation in main() for graceful shutdown.
type Sync interface {
	Run(ctx context.Context, tick time.Duration)
}

// Service aggregates all sub-services.
type Service struct {
	Control
	Monitoring
	Sync
	Authorization
}

// Options configure NewService.
type Options struct {
	Auth        AuthOptions
	PushEnabled bool
	Logger      *logger.Logger
}

func NewService(t Tank, opts Options) (*Service, error) {
	auth, err := NewAuthService(opts.Auth)
	if err != nil {
		return nil, err
	}
	return &Service{
		Control:       NewControlService(t, opts.Logger),
		Monitoring:    NewMonitoringService(t),
		Sync:          NewSyncService(t, opts.PushEnabled, opts.Logger),
		Authorization: auth,
	}, nil
}
