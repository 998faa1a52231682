package tank

import (
	"context"
	"time"
)

// FetchAll runs one full refresh cycle: authenticate, resolve, then fetch
// measurement, settings and schedule. Failures are logged and leave the
// cached state untouched; observers are notified at the end regardless.
func (c *Client) FetchAll(ctx context.Context) {
	c.opMu.Lock()
	c.fetchAll(ctx)
	c.opMu.Unlock()

	c.observers.publish()
}

func (c *Client) fetchAll(ctx context.Context) {
	if err := c.ensureReady(ctx); err != nil {
		c.log.Errorw("tank_fetch_failed", "step", "prepare", "err", err)
		return
	}
	if err := c.fetchMeasurement(ctx); err != nil {
		c.log.Errorw("tank_fetch_failed", "step", "measurement", "err", err)
	}
	if err := c.fetchSettings(ctx); err != nil {
		c.log.Errorw("tank_fetch_failed", "step", "settings", "err", err)
	}
	if err := c.fetchSchedule(ctx); err != nil {
		c.log.Errorw("tank_fetch_failed", "step", "schedule", "err", err)
	}
}

// RunPoller calls FetchAll every tick until ctx is cancelled. The first
// cycle runs immediately.
func (c *Client) RunPoller(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = DefaultPollInterval
	}
	t := time.NewTicker(tick)
	defer t.Stop()

	c.log.Infow("tank_poller_started", "interval", tick.String())
	c.FetchAll(ctx)
	for {
		select {
		case <-ctx.Done():
			c.log.Infow("tank_poller_stopped")
			return
		case <-t.C:
			c.FetchAll(ctx)
		}
	}
}

// ensureReady authenticates and resolves resource URLs. Caller holds opMu.
func (c *Client) ensureReady(ctx context.Context) error {
	if err := c.authenticate(ctx); err != nil {
		return err
	}
	return c.resolveResources(ctx)
}

func (c *Client) fetchMeasurement(ctx context.Context) error {
	data, err := c.getRaw(ctx, "measurement", c.endpoints().measurement)
	if err != nil {
		return err
	}
	return c.ingestMeasurement(ctx, data)
}

// fetchSettings parses the body text; the resource is served as text/plain.
func (c *Client) fetchSettings(ctx context.Context) error {
	data, err := c.getRaw(ctx, "settings", c.endpoints().settings)
	if err != nil {
		return err
	}
	return c.ingestSettings(data)
}

func (c *Client) fetchSchedule(ctx context.Context) error {
	data, err := c.getRaw(ctx, "schedule", c.endpoints().schedule)
	if err != nil {
		return err
	}
	return c.ingestSchedule(data)
}
