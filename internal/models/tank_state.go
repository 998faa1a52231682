package models

import "time"

// Unknown marks a numeric reading that has not been received yet.
const Unknown = -1.0

// TankState is the cached snapshot of one tank, assembled from the
// measurement, settings and schedule resources.
type TankState struct {
	// measurement
	HotWaterTemperature     float64 `json:"hot_water_temperature"`     // °C, -1 until known
	ColdestWaterTemperature float64 `json:"coldest_water_temperature"` // °C, -1 until known
	Charge                  float64 `json:"charge"`                    // %, -1 until known
	TargetCharge            float64 `json:"target_charge"`
	PVPower                 float64 `json:"pv_power"`
	ClampPower              float64 `json:"clamp_power"`

	// derived from the measurement's embedded state document
	IndirectHeatSource bool `json:"indirect_heat_source"`
	ElectricHeatSource bool `json:"electric_heat_source"`
	HeatpumpHeatSource bool `json:"heatpump_heat_source"`
	InHolidayMode      bool `json:"in_holiday_mode"`

	// settings
	TargetTemperature               float64 `json:"target_temperature"`
	TargetTemperatureControlEnabled bool    `json:"target_temperature_control_enabled"`
	DSREnabled                      bool    `json:"dsr_enabled"`
	FrostProtectionEnabled          bool    `json:"frost_protection_enabled"`
	DistributedComputingEnabled     bool    `json:"distributed_computing_enabled"`
	CleansingTemperature            float64 `json:"cleansing_temperature"`
	DivertExportedEnabled           bool    `json:"divert_exported_enabled"`
	PVCutInThreshold                float64 `json:"pv_cut_in_threshold"`
	PVChargeLimit                   float64 `json:"pv_charge_limit"`
	PVTargetCurrent                 float64 `json:"pv_target_current"`
	PVOverTemperature               float64 `json:"pv_over_temperature"`

	// discovery
	HasPVDiverter bool `json:"has_pv_diverter"`

	// Schedule is the opaque schedule document; nil until fetched.
	Schedule map[string]any `json:"schedule,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewTankState returns the state of a tank nothing is known about yet.
func NewTankState() TankState {
	return TankState{
		HotWaterTemperature:     Unknown,
		ColdestWaterTemperature: Unknown,
		Charge:                  Unknown,
		TargetTemperature:       Unknown,
	}
}

// Clone returns a copy that shares no mutable data with s.
func (s TankState) Clone() TankState {
	out := s
	out.Schedule = CloneDocument(s.Schedule)
	return out
}

// CloneDocument deep-copies a decoded JSON object.
func CloneDocument(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneDocument(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
