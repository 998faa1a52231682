package tank

import (
	"context"

	"mixergy_bridge/internal/models"
)

// EventSink receives automation events such as charge_changed.
type EventSink interface {
	Publish(ctx context.Context, e models.TankEvent) error
}

// Metrics receives operational counters. Implementations must be safe for
// concurrent use.
type Metrics interface {
	RequestFailed(op string)
	PushMessage(kind string)
	PushReconnectScheduled()
	ChannelStateChanged(state string)
}

type nopSink struct{}

func (nopSink) Publish(context.Context, models.TankEvent) error { return nil }

type nopMetrics struct{}

func (nopMetrics) RequestFailed(string)       {}
func (nopMetrics) PushMessage(string)         {}
func (nopMetrics) PushReconnectScheduled()    {}
func (nopMetrics) ChannelStateChanged(string) {}

// emit forwards events to the sink; failures are logged and dropped.
func (c *Client) emit(ctx context.Context, events []models.TankEvent) {
	for _, e := range events {
		c.log.Debugw("tank_event", "type", e.Type, "charge", e.Charge)
		if err := c.cfg.Events.Publish(ctx, e); err != nil {
			c.log.Errorw("tank_event_publish_failed", "type", e.Type, "err", err)
		}
	}
}
