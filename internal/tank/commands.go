package tank

import (
	"context"
)

// Valid ranges for numeric settings. Inputs outside a range are clamped.
const (
	minCleansingTemperature = 51
	maxCleansingTemperature = 55
	minPVCutInThreshold     = 0
	maxPVCutInThreshold     = 500
	minPVChargeLimit        = 0
	maxPVChargeLimit        = 100
	minPVTargetCurrent      = -1
	maxPVTargetCurrent      = 0
	minPVOverTemperature    = 45
	maxPVOverTemperature    = 60
)

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

// resource names the cached resource a command re-fetches on success.
type resource int

const (
	resourceMeasurement resource = iota
	resourceSettings
	resourceSchedule
)

func (r resource) String() string {
	switch r {
	case resourceMeasurement:
		return "measurement"
	case resourceSettings:
		return "settings"
	case resourceSchedule:
		return "schedule"
	default:
		return "unknown"
	}
}

// command PUTs body to the URL picked by target and, on success, refreshes
// the owning resource and notifies observers. A failed PUT leaves the
// cache untouched.
func (c *Client) command(ctx context.Context, op string, target func(endpoints) string, body any, refresh resource) error {
	c.opMu.Lock()
	err := c.commandLocked(ctx, op, target, body, refresh)
	c.opMu.Unlock()
	if err != nil {
		return err
	}
	c.observers.publish()
	return nil
}

// commandLocked is command without locking or publishing. Caller holds opMu.
func (c *Client) commandLocked(ctx context.Context, op string, target func(endpoints) string, body any, refresh resource) error {
	if err := c.ensureReady(ctx); err != nil {
		c.log.Errorw("tank_command_failed", "op", op, "err", err)
		return err
	}
	if err := c.put(ctx, op, target(c.endpoints()), body); err != nil {
		c.log.Errorw("tank_command_failed", "op", op, "err", err)
		return err
	}
	c.log.Infow("tank_command_applied", "op", op)

	if err := c.refresh(ctx, refresh); err != nil {
		c.log.Errorw("tank_fetch_failed", "step", refresh.String(), "err", err)
	}
	return nil
}

func (c *Client) refresh(ctx context.Context, r resource) error {
	switch r {
	case resourceMeasurement:
		return c.fetchMeasurement(ctx)
	case resourceSchedule:
		return c.fetchSchedule(ctx)
	default:
		return c.fetchSettings(ctx)
	}
}

func controlURL(e endpoints) string  { return e.control }
func settingsURL(e endpoints) string { return e.settings }
func scheduleURL(e endpoints) string { return e.schedule }

func (c *Client) setSetting(ctx context.Context, key string, value any) error {
	return c.command(ctx, key, settingsURL, map[string]any{key: value}, resourceSettings)
}

// SetTargetCharge asks the tank to heat to charge percent.
func (c *Client) SetTargetCharge(ctx context.Context, charge int) error {
	return c.command(ctx, "charge", controlURL, map[string]any{"charge": charge}, resourceMeasurement)
}

// SetTargetTemperature sets the maximum water temperature in °C.
func (c *Client) SetTargetTemperature(ctx context.Context, t float64) error {
	return c.setSetting(ctx, "max_temp", t)
}

// SetTargetTemperatureControlEnabled switches between charge and
// temperature targets.
func (c *Client) SetTargetTemperatureControlEnabled(ctx context.Context, enabled bool) error {
	return c.setSetting(ctx, "target_temperature_control_enabled", enabled)
}

// SetDSREnabled toggles grid assistance (demand side response).
func (c *Client) SetDSREnabled(ctx context.Context, enabled bool) error {
	return c.setSetting(ctx, "dsr_enabled", enabled)
}

// SetFrostProtectionEnabled toggles frost protection heating.
func (c *Client) SetFrostProtectionEnabled(ctx context.Context, enabled bool) error {
	return c.setSetting(ctx, "frost_protection_enabled", enabled)
}

// SetDistributedComputingEnabled toggles distributed computing heating.
func (c *Client) SetDistributedComputingEnabled(ctx context.Context, enabled bool) error {
	return c.setSetting(ctx, "distributed_computing_enabled", enabled)
}

// SetDivertExportedEnabled toggles heating from exported PV power.
func (c *Client) SetDivertExportedEnabled(ctx context.Context, enabled bool) error {
	return c.setSetting(ctx, "divert_exported_enabled", enabled)
}

// SetCleansingTemperature sets the cleansing temperature, clamped to 51..55 °C.
func (c *Client) SetCleansingTemperature(ctx context.Context, v float64) error {
	return c.setSetting(ctx, "cleansing_temperature", clamp(v, minCleansingTemperature, maxCleansingTemperature))
}

// SetPVCutInThreshold sets the export power in watts above which the
// diverter starts heating.
func (c *Client) SetPVCutInThreshold(ctx context.Context, v float64) error {
	return c.setSetting(ctx, "pv_cut_in_threshold", clamp(v, minPVCutInThreshold, maxPVCutInThreshold))
}

// SetPVChargeLimit sets the PV charge limit, clamped to 0..100 percent.
func (c *Client) SetPVChargeLimit(ctx context.Context, v float64) error {
	return c.setSetting(ctx, "pv_charge_limit", clamp(v, minPVChargeLimit, maxPVChargeLimit))
}

// SetPVTargetCurrent sets the diverter target current, clamped to -1..0.
func (c *Client) SetPVTargetCurrent(ctx context.Context, v float64) error {
	return c.setSetting(ctx, "pv_target_current", clamp(v, minPVTargetCurrent, maxPVTargetCurrent))
}

// SetPVOverTemperature sets the PV over-temperature limit, clamped to 45..60 °C.
func (c *Client) SetPVOverTemperature(ctx context.Context, v float64) error {
	return c.setSetting(ctx, "pv_over_temperature", clamp(v, minPVOverTemperature, maxPVOverTemperature))
}
