package tank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mixergy_bridge/internal/models"
)

// pvEnergyDivisor converts the reported pvEnergy figure into the PV power
// reading exposed downstream.
const pvEnergyDivisor = 60000

const vacationSource = "Vacation"

type measurementPayload struct {
	TopTemperature    *float64        `json:"topTemperature"`
	BottomTemperature *float64        `json:"bottomTemperature"`
	Charge            *float64        `json:"charge"`
	PVEnergy          *float64        `json:"pvEnergy"`
	ClampPower        *float64        `json:"clampPower"`
	State             json.RawMessage `json:"state"`
}

type statePayload struct {
	Current *currentState `json:"current"`
}

type currentState struct {
	Target     *float64 `json:"target"`
	Source     *string  `json:"source"`
	HeatSource string   `json:"heat_source"`
	Immersion  string   `json:"immersion"`
}

type settingsPayload struct {
	MaxTemp                     *float64 `json:"max_temp"`
	DSREnabled                  *bool    `json:"dsr_enabled"`
	FrostProtectionEnabled      *bool    `json:"frost_protection_enabled"`
	DistributedComputingEnabled *bool    `json:"distributed_computing_enabled"`
	CleansingTemperature        *float64 `json:"cleansing_temperature"`

	// optional: absent on older firmware
	TargetTemperatureControlEnabled *bool    `json:"target_temperature_control_enabled"`
	DivertExportedEnabled           *bool    `json:"divert_exported_enabled"`
	PVChargeLimit                   *float64 `json:"pv_charge_limit"`
	PVCutInThreshold                *float64 `json:"pv_cut_in_threshold"`
	PVTargetCurrent                 *float64 `json:"pv_target_current"`
	PVOverTemperature               *float64 `json:"pv_over_temperature"`
}

// measurement is a validated measurement payload with its state decoded.
type measurement struct {
	top, bottom, charge float64
	pvPower, clamp      float64
	current             currentState
}

// unwrapJSONString returns the document inside raw. Several fields carry
// JSON encoded as a string; a plain object is accepted as well.
func unwrapJSONString(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
	return raw, nil
}

func decodeMeasurement(raw []byte) (measurement, error) {
	var p measurementPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return measurement{}, fmt.Errorf("decode measurement: %w", err)
	}
	switch {
	case p.TopTemperature == nil:
		return measurement{}, missing("topTemperature")
	case p.BottomTemperature == nil:
		return measurement{}, missing("bottomTemperature")
	case p.Charge == nil:
		return measurement{}, missing("charge")
	case len(p.State) == 0 || string(p.State) == "null":
		return measurement{}, missing("state")
	}
	stateDoc, err := unwrapJSONString(p.State)
	if err != nil {
		return measurement{}, fmt.Errorf("decode measurement state: %w", err)
	}
	cur, err := decodeState(stateDoc)
	if err != nil {
		return measurement{}, err
	}

	m := measurement{
		top:     *p.TopTemperature,
		bottom:  *p.BottomTemperature,
		charge:  *p.Charge,
		current: cur,
	}
	if p.PVEnergy != nil {
		m.pvPower = *p.PVEnergy / pvEnergyDivisor
	}
	if p.ClampPower != nil {
		m.clamp = *p.ClampPower
	}
	return m, nil
}

func decodeState(raw []byte) (currentState, error) {
	var p statePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return currentState{}, fmt.Errorf("decode state: %w", err)
	}
	if p.Current == nil {
		return currentState{}, missing("current")
	}
	return *p.Current, nil
}

func decodeSettings(raw []byte) (settingsPayload, error) {
	var p settingsPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("decode settings: %w", err)
	}
	switch {
	case p.MaxTemp == nil:
		return p, missing("max_temp")
	case p.DSREnabled == nil:
		return p, missing("dsr_enabled")
	case p.FrostProtectionEnabled == nil:
		return p, missing("frost_protection_enabled")
	case p.DistributedComputingEnabled == nil:
		return p, missing("distributed_computing_enabled")
	case p.CleansingTemperature == nil:
		return p, missing("cleansing_temperature")
	}
	return p, nil
}

// decodeSchedule keeps numbers as json.Number so a schedule written back
// is byte-for-byte what the server sent.
func decodeSchedule(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	if doc == nil {
		return nil, ErrNoSchedule
	}
	return doc, nil
}

// applyMeasurement overwrites every measurement-derived field. A
// charge_changed event is returned when a previously known charge differs
// from the new one.
func applyMeasurement(st *models.TankState, m measurement, deviceID string, now time.Time) []models.TankEvent {
	st.HotWaterTemperature = m.top
	st.ColdestWaterTemperature = m.bottom
	st.PVPower = m.pvPower
	st.ClampPower = m.clamp

	var events []models.TankEvent
	if st.Charge != models.Unknown && m.charge != st.Charge {
		events = append(events, models.TankEvent{
			EventID:    uuid.NewString(),
			OccurredAt: now.UTC(),
			DeviceID:   deviceID,
			Type:       models.EventChargeChange,
			Charge:     m.charge,
		})
	}
	st.Charge = m.charge

	applyState(st, m.current)
	st.UpdatedAt = now.UTC()
	return events
}

// applyState derives target charge, holiday mode and the active heat
// source. At most one heat source flag is left set.
func applyState(st *models.TankState, cur currentState) {
	st.TargetCharge = 0
	if cur.Target != nil {
		st.TargetCharge = *cur.Target
	}

	st.IndirectHeatSource = false
	st.ElectricHeatSource = false
	st.HeatpumpHeatSource = false

	// source is only sent while a vacation is active
	if cur.Source != nil && *cur.Source == vacationSource {
		st.InHolidayMode = true
		return
	}
	st.InHolidayMode = false

	on := strings.EqualFold(cur.Immersion, "on")
	switch strings.ToLower(cur.HeatSource) {
	case "indirect":
		st.IndirectHeatSource = on
	case "electric":
		st.ElectricHeatSource = on
	case "heatpump":
		st.HeatpumpHeatSource = on
	}
}

// applySettings overwrites the mandatory settings and merges the optional
// ones only when present.
func applySettings(st *models.TankState, p settingsPayload, now time.Time) {
	st.TargetTemperature = *p.MaxTemp
	st.DSREnabled = *p.DSREnabled
	st.FrostProtectionEnabled = *p.FrostProtectionEnabled
	st.DistributedComputingEnabled = *p.DistributedComputingEnabled
	st.CleansingTemperature = *p.CleansingTemperature

	if p.TargetTemperatureControlEnabled != nil {
		st.TargetTemperatureControlEnabled = *p.TargetTemperatureControlEnabled
	}
	if p.DivertExportedEnabled != nil {
		st.DivertExportedEnabled = *p.DivertExportedEnabled
	}
	if p.PVChargeLimit != nil {
		st.PVChargeLimit = *p.PVChargeLimit
	}
	if p.PVCutInThreshold != nil {
		st.PVCutInThreshold = *p.PVCutInThreshold
	}
	if p.PVTargetCurrent != nil {
		st.PVTargetCurrent = *p.PVTargetCurrent
	}
	if p.PVOverTemperature != nil {
		st.PVOverTemperature = *p.PVOverTemperature
	}
	st.UpdatedAt = now.UTC()
}

func applySchedule(st *models.TankState, doc map[string]any, now time.Time) {
	st.Schedule = doc
	st.UpdatedAt = now.UTC()
}

// ingest* validate a payload outside the lock, apply it under the lock and
// emit resulting events after releasing it.

func (c *Client) ingestMeasurement(ctx context.Context, raw []byte) error {
	m, err := decodeMeasurement(raw)
	if err != nil {
		return err
	}
	c.mu.Lock()
	prev := c.state.Charge
	events := applyMeasurement(&c.state, m, c.id, time.Now())
	c.mu.Unlock()

	c.log.Debugw("tank_measurement_applied", "charge_prev", prev, "charge", m.charge)
	c.emit(ctx, events)
	return nil
}

func (c *Client) ingestState(raw []byte) error {
	cur, err := decodeState(raw)
	if err != nil {
		return err
	}
	c.mu.Lock()
	applyState(&c.state, cur)
	c.state.UpdatedAt = time.Now().UTC()
	c.mu.Unlock()
	return nil
}

func (c *Client) ingestSettings(raw []byte) error {
	p, err := decodeSettings(raw)
	if err != nil {
		return err
	}
	c.mu.Lock()
	applySettings(&c.state, p, time.Now())
	c.mu.Unlock()
	return nil
}

// ingestSchedule caches a schedule document. A null schedule drops the
// cached one so later edits cannot write it back.
func (c *Client) ingestSchedule(raw []byte) error {
	doc, err := decodeSchedule(raw)
	if errors.Is(err, ErrNoSchedule) {
		c.mu.Lock()
		c.state.Schedule = nil
		c.mu.Unlock()
		return err
	}
	if err != nil {
		return err
	}
	c.mu.Lock()
	applySchedule(&c.state, doc, time.Now())
	c.mu.Unlock()
	return nil
}
