package tank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"mixergy_bridge/internal/stomp"
)

// ChannelState is the push channel's connection state.
type ChannelState int

const (
	ChannelDisconnected ChannelState = iota
	ChannelConnecting
	ChannelConnected
	ChannelReconnectPending
)

func (s ChannelState) String() string {
	switch s {
	case ChannelDisconnected:
		return "disconnected"
	case ChannelConnecting:
		return "connecting"
	case ChannelConnected:
		return "connected"
	case ChannelReconnectPending:
		return "reconnect_pending"
	default:
		return fmt.Sprintf("ChannelState(%d)", int(s))
	}
}

// Push message discriminators.
const (
	pushMeasurement = "Measurement"
	pushEvent       = "Event"

	eventSettings = "Settings"
	eventSchedule = "Schedule"
	eventState    = "State"
)

// pushChannel tracks the STOMP subscription. gen increases on every Start
// and Stop; goroutines and timers carry the generation they were started
// under and give up once it is stale.
type pushChannel struct {
	mu        sync.Mutex
	want      bool
	gen       uint64
	state     ChannelState
	base      context.Context
	cancel    context.CancelFunc
	conn      *stomp.Conn
	stopRetry func() bool
}

type pushEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type pushEventPayload struct {
	Event      string          `json:"event"`
	Additional json.RawMessage `json:"additional"`
}

// Start fetches a baseline and then keeps a push subscription open until
// Stop is called or ctx is cancelled. Connection failures are retried
// after the configured delay. Calling Start twice has no extra effect.
func (c *Client) Start(ctx context.Context) {
	p := &c.push
	p.mu.Lock()
	if p.want {
		p.mu.Unlock()
		return
	}
	p.want = true
	p.gen++
	gen := p.gen
	p.base = ctx
	p.mu.Unlock()

	c.log.Infow("push_start")
	go c.connect(gen)
}

// Stop closes the push subscription and cancels any pending reconnect or
// in-flight connection attempt. Safe to call more than once.
func (c *Client) Stop() {
	p := &c.push
	p.mu.Lock()
	if !p.want && p.conn == nil && p.cancel == nil && p.stopRetry == nil {
		p.mu.Unlock()
		return
	}
	p.want = false
	p.gen++
	if p.stopRetry != nil {
		p.stopRetry()
		p.stopRetry = nil
	}
	cancel, conn := p.cancel, p.conn
	p.cancel, p.conn = nil, nil
	changed := p.state != ChannelDisconnected
	p.state = ChannelDisconnected
	p.mu.Unlock()

	if conn != nil {
		if err := conn.Disconnect(); err != nil {
			c.log.Debugw("push_disconnect_failed", "err", err)
		}
	}
	if cancel != nil {
		cancel()
	}
	if changed {
		c.cfg.Metrics.ChannelStateChanged(ChannelDisconnected.String())
	}
	c.log.Infow("push_stop")
}

// ChannelState reports the current push channel state.
func (c *Client) ChannelState() ChannelState {
	c.push.mu.Lock()
	defer c.push.mu.Unlock()
	return c.push.state
}

// setState moves the channel to s if gen is still current.
func (c *Client) setState(gen uint64, s ChannelState) bool {
	p := &c.push
	p.mu.Lock()
	if p.gen != gen || !p.want {
		p.mu.Unlock()
		return false
	}
	p.state = s
	p.mu.Unlock()
	c.cfg.Metrics.ChannelStateChanged(s.String())
	return true
}

// connect runs one connection attempt and, on success, the read loop.
func (c *Client) connect(gen uint64) {
	p := &c.push
	p.mu.Lock()
	if p.gen != gen || !p.want {
		p.mu.Unlock()
		return
	}
	p.stopRetry = nil
	base := p.base
	ctx, cancel := context.WithCancel(base)
	p.cancel = cancel
	p.mu.Unlock()
	defer cancel()

	if !c.setState(gen, ChannelConnecting) {
		return
	}

	// pushed messages are deltas, so start from a full snapshot
	c.FetchAll(ctx)

	conn, err := c.dial(ctx)
	if err != nil {
		c.log.Errorw("push_connect_failed", "err", err)
		if base.Err() != nil {
			c.abandon(gen)
			return
		}
		c.scheduleReconnect(gen, ChannelDisconnected)
		return
	}

	p.mu.Lock()
	if p.gen != gen || !p.want {
		p.mu.Unlock()
		_ = conn.Close()
		return
	}
	p.conn = conn
	p.state = ChannelConnected
	p.mu.Unlock()
	c.cfg.Metrics.ChannelStateChanged(ChannelConnected.String())
	c.log.Infow("push_connected", "version", conn.Version())

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	err = c.readLoop(ctx, conn)
	c.log.Infow("push_disconnected", "err", err)

	p.mu.Lock()
	if p.conn == conn {
		p.conn = nil
	}
	p.mu.Unlock()
	_ = conn.Close()

	if base.Err() != nil {
		c.abandon(gen)
		return
	}
	c.scheduleReconnect(gen, ChannelReconnectPending)
}

// abandon resets the channel after the context passed to Start ends, so a
// later Start connects again.
func (c *Client) abandon(gen uint64) {
	p := &c.push
	p.mu.Lock()
	if p.gen != gen || !p.want {
		p.mu.Unlock()
		return
	}
	p.want = false
	p.gen++
	if p.stopRetry != nil {
		p.stopRetry()
		p.stopRetry = nil
	}
	p.cancel, p.conn = nil, nil
	changed := p.state != ChannelDisconnected
	p.state = ChannelDisconnected
	p.mu.Unlock()

	if changed {
		c.cfg.Metrics.ChannelStateChanged(ChannelDisconnected.String())
	}
	c.log.Infow("push_stop", "reason", "context_done")
}

func (c *Client) dial(ctx context.Context) (*stomp.Conn, error) {
	uuid := c.Info().UUID
	if uuid == "" {
		return nil, ErrNotResolved
	}
	token := c.bearer()
	if token == "" {
		return nil, ErrAuthenticationFailed
	}
	host := "/"
	if u, err := url.Parse(c.cfg.StompURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}

	conn, err := stomp.Dial(ctx, c.cfg.StompURL, stomp.Options{
		HandshakeTimeout: c.cfg.ConnectTimeout,
		Host:             host,
		Headers:          map[string]string{"Token": token},
	})
	if err != nil {
		return nil, err
	}
	topic := fmt.Sprintf("/topic/tank/%s/poll", uuid)
	if err := conn.Subscribe(topic, c.id, "auto"); err != nil {
		_ = conn.Close()
		return nil, err
	}
	c.log.Infow("push_subscribed", "topic", topic)
	return conn, nil
}

// scheduleReconnect arms exactly one retry for gen and records s as the
// waiting state.
func (c *Client) scheduleReconnect(gen uint64, s ChannelState) {
	p := &c.push
	p.mu.Lock()
	if p.gen != gen || !p.want {
		p.mu.Unlock()
		return
	}
	p.state = s
	p.cancel = nil
	if p.stopRetry != nil {
		p.stopRetry()
	}
	p.stopRetry = c.afterFunc(c.cfg.RetryDelay, func() { c.connect(gen) })
	p.mu.Unlock()

	c.cfg.Metrics.ChannelStateChanged(s.String())
	c.cfg.Metrics.PushReconnectScheduled()
	c.log.Infow("push_reconnect_scheduled", "delay", c.cfg.RetryDelay.String())
}

func (c *Client) readLoop(ctx context.Context, conn *stomp.Conn) error {
	for {
		f, err := conn.Receive()
		if err != nil {
			if errors.Is(err, stomp.ErrClosed) && ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		c.handlePushMessage(ctx, f.Body)
	}
}

// handlePushMessage routes one envelope to the matching reconcile step and
// notifies observers. Undecodable envelopes are dropped.
func (c *Client) handlePushMessage(ctx context.Context, body []byte) {
	var env pushEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.log.Errorw("push_message_invalid", "err", err)
		return
	}

	kind, err := c.routePush(ctx, env)
	c.cfg.Metrics.PushMessage(kind)
	if err != nil {
		c.log.Errorw("push_message_rejected", "kind", kind, "err", err)
	}
	c.observers.publish()
}

func (c *Client) routePush(ctx context.Context, env pushEnvelope) (string, error) {
	switch env.Type {
	case pushMeasurement:
		return "measurement", c.ingestMeasurement(ctx, env.Payload)
	case pushEvent:
		var ev pushEventPayload
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return "event", fmt.Errorf("decode event: %w", err)
		}
		doc, err := unwrapJSONString(ev.Additional)
		if err != nil {
			return "event", fmt.Errorf("decode event additional: %w", err)
		}
		switch ev.Event {
		case eventSettings:
			return "settings", c.ingestSettings(doc)
		case eventSchedule:
			return "schedule", c.ingestSchedule(doc)
		case eventState:
			return "state", c.ingestState(doc)
		default:
			c.log.Infow("push_event_ignored", "event", ev.Event)
			return "ignored", nil
		}
	default:
		c.log.Infow("push_message_ignored", "type", env.Type)
		return "ignored", nil
	}
}
