package models

import "time"

// TankSnapshot is what the control API and CLI report for a tank.
type TankSnapshot struct {
	Info         TankInfo   `json:"info"`
	State        TankState  `json:"state"`
	HolidayStart *time.Time `json:"holiday_start,omitempty"`
	HolidayEnd   *time.Time `json:"holiday_end,omitempty"`
	PushChannel  string     `json:"push_channel"`
}
