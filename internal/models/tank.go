package models

import "time"

// TankInfo describes a discovered tank. Populated once by resource
// resolution and immutable afterwards.
type TankInfo struct {
	SerialNumber    string `json:"serial_number" yaml:"serial_number"`
	ID              string `json:"id" yaml:"id"`
	UUID            string `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	ModelCode       string `json:"model_code" yaml:"model_code"`
	FirmwareVersion string `json:"firmware_version" yaml:"firmware_version"`
	HasPVDiverter   bool   `json:"has_pv_diverter" yaml:"has_pv_diverter"`
}

// Event bus constants for automation triggers.
const (
	EventBusName      = "mixergy_event"
	EventChargeChange = "charge_changed"
)

// TankEvent is fired on the event bus when reconciliation detects a change
// worth triggering automations on.
type TankEvent struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
	DeviceID   string    `json:"device_id"`
	Type       string    `json:"type"` // charge_changed
	Charge     float64   `json:"charge"`
}
