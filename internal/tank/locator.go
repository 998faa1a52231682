package tank

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"mixergy_bridge/internal/models"
)

// noInverter is the PV type reported by tanks without a diverter, and the
// assumed value when older firmware omits the field.
const noInverter = "NO_INVERTER"

type tankSummary struct {
	SerialNumber    string   `json:"serialNumber"`
	FirmwareVersion string   `json:"firmwareVersion"`
	TankModelCode   string   `json:"tankModelCode"`
	Links           halLinks `json:"_links"`
}

type tankList struct {
	Embedded struct {
		TankList []tankSummary `json:"tankList"`
	} `json:"_embedded"`
}

type tankDetail struct {
	ID              string   `json:"id"`
	TankModelCode   string   `json:"tankModelCode"`
	FirmwareVersion string   `json:"firmwareVersion"`
	Configuration   string   `json:"configuration"`
	Links           halLinks `json:"_links"`
}

type tankConfiguration struct {
	MixergyPvType *string `json:"mixergyPvType"`
}

// ResolveResources discovers the measurement, control, settings and
// schedule URLs for the configured serial number. Once resolved the URLs
// are kept for the lifetime of the client and later calls return at once.
func (c *Client) ResolveResources(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.resolveResources(ctx)
}

// TestConnection reports whether the tank can be found with the cached
// credentials.
func (c *Client) TestConnection(ctx context.Context) bool {
	if err := c.ResolveResources(ctx); err != nil {
		c.log.Infow("tank_connection_test_failed", "err", err)
		return false
	}
	return true
}

// ListTanks returns every tank visible to the account. It authenticates if
// needed and does not touch the resolved URLs.
func (c *Client) ListTanks(ctx context.Context) ([]models.TankInfo, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if err := c.authenticate(ctx); err != nil {
		return nil, err
	}
	tanks, err := c.fetchTankList(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.TankInfo, 0, len(tanks))
	for _, t := range tanks {
		out = append(out, models.TankInfo{
			SerialNumber:    t.SerialNumber,
			ModelCode:       t.TankModelCode,
			FirmwareVersion: t.FirmwareVersion,
		})
	}
	return out, nil
}

func (c *Client) fetchTankList(ctx context.Context) ([]tankSummary, error) {
	var root struct {
		Links halLinks `json:"_links"`
	}
	if err := c.getJSON(ctx, "root", c.cfg.RootURL, true, &root); err != nil {
		return nil, fmt.Errorf("fetch root: %w", err)
	}
	tanksURL, err := root.Links.href("tanks")
	if err != nil {
		return nil, fmt.Errorf("root: %w", err)
	}

	var list tankList
	if err := c.getJSON(ctx, "tanks", tanksURL, true, &list); err != nil {
		return nil, fmt.Errorf("fetch tanks: %w", err)
	}
	return list.Embedded.TankList, nil
}

func (c *Client) resolveResources(ctx context.Context) error {
	if c.endpoints().measurement != "" {
		c.log.Debugw("tank_resources_cached")
		return nil
	}

	tanks, err := c.fetchTankList(ctx)
	if err != nil {
		return err
	}
	var found *tankSummary
	for i := range tanks {
		if tanks[i].SerialNumber == c.serial {
			found = &tanks[i]
			break
		}
	}
	if found == nil {
		c.log.Errorw("tank_not_found", "candidates", len(tanks))
		return fmt.Errorf("%w: %s", ErrTankNotFound, c.serial)
	}
	selfURL, err := found.Links.href("self")
	if err != nil {
		return fmt.Errorf("tank %s: %w", c.serial, err)
	}

	var detail tankDetail
	if err := c.getJSON(ctx, "tank", selfURL, true, &detail); err != nil {
		return fmt.Errorf("fetch tank details: %w", err)
	}
	urls, err := detail.endpoints()
	if err != nil {
		return fmt.Errorf("tank details: %w", err)
	}
	hasDiverter, err := hasPVDiverter(detail.Configuration)
	if err != nil {
		return fmt.Errorf("tank configuration: %w", err)
	}
	if _, err := uuid.Parse(detail.ID); err != nil {
		c.log.Warnw("tank_id_not_uuid", "id", detail.ID)
	}

	c.mu.Lock()
	c.urls = urls
	c.info.UUID = detail.ID
	c.info.ModelCode = detail.TankModelCode
	c.info.FirmwareVersion = detail.FirmwareVersion
	c.info.HasPVDiverter = hasDiverter
	c.state.HasPVDiverter = hasDiverter
	c.mu.Unlock()

	c.log.Infow("tank_resolved",
		"uuid", detail.ID,
		"model", detail.TankModelCode,
		"firmware", detail.FirmwareVersion,
		"pv_diverter", hasDiverter,
	)
	c.log.Debugw("tank_endpoints",
		"measurement", urls.measurement,
		"control", urls.control,
		"settings", urls.settings,
		"schedule", urls.schedule,
	)
	return nil
}

func (d tankDetail) endpoints() (endpoints, error) {
	var (
		e   endpoints
		err error
	)
	if e.measurement, err = d.Links.href("latest_measurement"); err != nil {
		return e, err
	}
	if e.control, err = d.Links.href("control"); err != nil {
		return e, err
	}
	if e.settings, err = d.Links.href("settings"); err != nil {
		return e, err
	}
	if e.schedule, err = d.Links.href("schedule"); err != nil {
		return e, err
	}
	if d.ID == "" {
		return e, missing("id")
	}
	return e, nil
}

// hasPVDiverter decodes the JSON-encoded configuration blob.
func hasPVDiverter(configuration string) (bool, error) {
	if configuration == "" {
		return false, nil
	}
	var cfg tankConfiguration
	if err := json.Unmarshal([]byte(configuration), &cfg); err != nil {
		return false, err
	}
	pvType := noInverter
	if cfg.MixergyPvType != nil {
		pvType = *cfg.MixergyPvType
	}
	return pvType != noInverter, nil
}
