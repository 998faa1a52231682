package service

import "time"

type ChargeParams struct {
	Charge int // percent, 0..100
}

type TemperatureParams struct {
	Celsius float64
}

// SettingsParams carries the settings to change; nil fields are left alone.
type SettingsParams struct {
	TargetTemperatureControl *bool
	DSR                      *bool
	FrostProtection          *bool
	DistributedComputing     *bool
	CleansingTemperature     *float64

	// diverter only
	DivertExported    *bool
	PVCutInThreshold  *float64
	PVChargeLimit     *float64
	PVTargetCurrent   *float64
	PVOverTemperature *float64
}

func (p SettingsParams) empty() bool {
	return p.TargetTemperatureControl == nil && p.DSR == nil && p.FrostProtection == nil &&
		p.DistributedComputing == nil && p.CleansingTemperature == nil && !p.touchesPV()
}

func (p SettingsParams) touchesPV() bool {
	return p.DivertExported != nil || p.PVCutInThreshold != nil || p.PVChargeLimit != nil ||
		p.PVTargetCurrent != nil || p.PVOverTemperature != nil
}

type HolidayParams struct {
	Start time.Time
	End   time.Time
}
