package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mixergy_bridge/internal/models"
	"mixergy_bridge/internal/tank"
)

// fakeTank records every call made through the Tank interface.
type fakeTank struct {
	mu      sync.Mutex
	calls   []string
	info    models.TankInfo
	state   models.TankState
	channel tank.ChannelState
	holiday [2]time.Time
	failOn  string
	err     error
}

func newFakeTank() *fakeTank {
	return &fakeTank{
		info:  models.TankInfo{SerialNumber: "MX1", ID: "mx1", HasPVDiverter: true},
		state: models.NewTankState(),
	}
}

func (f *fakeTank) record(name string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := name
	if len(args) > 0 {
		call += fmt.Sprint(args...)
	}
	f.calls = append(f.calls, call)
	if f.failOn == name {
		return f.err
	}
	return nil
}

func (f *fakeTank) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeTank) ID() string                      { return f.info.ID }
func (f *fakeTank) Info() models.TankInfo           { return f.info }
func (f *fakeTank) State() models.TankState         { return f.state.Clone() }
func (f *fakeTank) ChannelState() tank.ChannelState { return f.channel }

func (f *fakeTank) HolidayStart() (time.Time, bool) { return f.holiday[0], !f.holiday[0].IsZero() }
func (f *fakeTank) HolidayEnd() (time.Time, bool)   { return f.holiday[1], !f.holiday[1].IsZero() }

func (f *fakeTank) FetchAll(context.Context) { _ = f.record("FetchAll") }

func (f *fakeTank) RunPoller(ctx context.Context, tick time.Duration) {
	_ = f.record("RunPoller", tick)
	<-ctx.Done()
}

func (f *fakeTank) Start(context.Context) { _ = f.record("Start") }
func (f *fakeTank) Stop()                 { _ = f.record("Stop") }

func (f *fakeTank) SetTargetCharge(_ context.Context, v int) error {
	return f.record("SetTargetCharge", v)
}
func (f *fakeTank) SetTargetTemperature(_ context.Context, v float64) error {
	return f.record("SetTargetTemperature", v)
}
func (f *fakeTank) SetTargetTemperatureControlEnabled(_ context.Context, v bool) error {
	return f.record("SetTargetTemperatureControlEnabled", v)
}
func (f *fakeTank) SetDSREnabled(_ context.Context, v bool) error {
	return f.record("SetDSREnabled", v)
}
func (f *fakeTank) SetFrostProtectionEnabled(_ context.Context, v bool) error {
	return f.record("SetFrostProtectionEnabled", v)
}
func (f *fakeTank) SetDistributedComputingEnabled(_ context.Context, v bool) error {
	return f.record("SetDistributedComputingEnabled", v)
}
func (f *fakeTank) SetDivertExportedEnabled(_ context.Context, v bool) error {
	return f.record("SetDivertExportedEnabled", v)
}
func (f *fakeTank) SetCleansingTemperature(_ context.Context, v float64) error {
	return f.record("SetCleansingTemperature", v)
}
func (f *fakeTank) SetPVCutInThreshold(_ context.Context, v float64) error {
	return f.record("SetPVCutInThreshold", v)
}
func (f *fakeTank) SetPVChargeLimit(_ context.Context, v float64) error {
	return f.record("SetPVChargeLimit", v)
}
func (f *fakeTank) SetPVTargetCurrent(_ context.Context, v float64) error {
	return f.record("SetPVTargetCurrent", v)
}
func (f *fakeTank) SetPVOverTemperature(_ context.Context, v float64) error {
	return f.record("SetPVOverTemperature", v)
}
func (f *fakeTank) SetSchedule(_ context.Context, doc map[string]any) error {
	return f.record("SetSchedule", len(doc))
}
func (f *fakeTank) SetHolidayDates(_ context.Context, start, end time.Time) error {
	return f.record("SetHolidayDates", start.Unix(), "-", end.Unix())
}
func (f *fakeTank) ClearHolidayDates(context.Context) error {
	return f.record("ClearHolidayDates")
}
