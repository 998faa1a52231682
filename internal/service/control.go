package service

import (
	"context"
	"errors"
	"fmt"

	"mixergy_bridge/internal/logger"
)

var (
	errInvalidCharge       = errors.New("invalid charge: must be between 0 and 100")
	errInvalidHolidayRange = errors.New("invalid holiday: end must be after start")
	errNoSettings          = errors.New("no settings given")
	errNoPVDiverter        = errors.New("tank has no PV diverter")
)

// IsValidationError reports whether err was caused by bad input rather than
// the tank or the upstream API.
func IsValidationError(err error) bool {
	return errors.Is(err, errInvalidCharge) || errors.Is(err, errInvalidHolidayRange) ||
		errors.Is(err, errNoSettings) || errors.Is(err, errNoPVDiverter)
}

type ControlService struct {
	tank Tank
	log  *logger.Logger
}

func NewControlService(t Tank, log *logger.Logger) *ControlService {
	if log == nil {
		log = logger.Nop()
	}
	return &ControlService{tank: t, log: log}
}

func (s *ControlService) SetCharge(ctx context.Context, p ChargeParams) error {
	if p.Charge < 0 || p.Charge > 100 {
		return errInvalidCharge
	}
	return s.tank.SetTargetCharge(ctx, p.Charge)
}

func (s *ControlService) SetTargetTemperature(ctx context.Context, p TemperatureParams) error {
	return s.tank.SetTargetTemperature(ctx, p.Celsius)
}

// UpdateSettings applies every given setting in turn and stops at the first
// failure. PV settings are refused for tanks without a diverter.
func (s *ControlService) UpdateSettings(ctx context.Context, p SettingsParams) error {
	if p.empty() {
		return errNoSettings
	}
	if p.touchesPV() && !s.tank.Info().HasPVDiverter {
		return errNoPVDiverter
	}

	type step struct {
		name string
		run  func() error
	}
	var steps []step
	addBool := func(name string, v *bool, fn func(context.Context, bool) error) {
		if v != nil {
			steps = append(steps, step{name, func() error { return fn(ctx, *v) }})
		}
	}
	addFloat := func(name string, v *float64, fn func(context.Context, float64) error) {
		if v != nil {
			steps = append(steps, step{name, func() error { return fn(ctx, *v) }})
		}
	}
	addBool("target_temperature_control", p.TargetTemperatureControl, s.tank.SetTargetTemperatureControlEnabled)
	addBool("dsr", p.DSR, s.tank.SetDSREnabled)
	addBool("frost_protection", p.FrostProtection, s.tank.SetFrostProtectionEnabled)
	addBool("distributed_computing", p.DistributedComputing, s.tank.SetDistributedComputingEnabled)
	addFloat("cleansing_temperature", p.CleansingTemperature, s.tank.SetCleansingTemperature)
	addBool("divert_exported", p.DivertExported, s.tank.SetDivertExportedEnabled)
	addFloat("pv_cut_in_threshold", p.PVCutInThreshold, s.tank.SetPVCutInThreshold)
	addFloat("pv_charge_limit", p.PVChargeLimit, s.tank.SetPVChargeLimit)
	addFloat("pv_target_current", p.PVTargetCurrent, s.tank.SetPVTargetCurrent)
	addFloat("pv_over_temperature", p.PVOverTemperature, s.tank.SetPVOverTemperature)

	for _, st := range steps {
		if err := st.run(); err != nil {
			return fmt.Errorf("set %s: %w", st.name, err)
		}
		s.log.Infow("settings_updated", "setting", st.name)
	}
	return nil
}

func (s *ControlService) SetHolidayDates(ctx context.Context, p HolidayParams) error {
	if !p.End.After(p.Start) {
		return errInvalidHolidayRange
	}
	return s.tank.SetHolidayDates(ctx, p.Start, p.End)
}

func (s *ControlService) ClearHolidayDates(ctx context.Context) error {
	return s.tank.ClearHolidayDates(ctx)
}

func (s *ControlService) SetSchedule(ctx context.Context, doc map[string]any) error {
	if len(doc) == 0 {
		return errNoSettings
	}
	return s.tank.SetSchedule(ctx, doc)
}
