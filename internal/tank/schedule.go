package tank

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"mixergy_bridge/internal/models"
)

const (
	holidayKey       = "holiday"
	holidayDepartKey = "departDate"
	holidayReturnKey = "returnDate"
)

// SetSchedule replaces the whole schedule document.
func (c *Client) SetSchedule(ctx context.Context, doc map[string]any) error {
	return c.command(ctx, "schedule", scheduleURL, doc, resourceSchedule)
}

// SetHolidayDates writes a holiday window into the current schedule. The
// schedule is re-read first so server-side edits are not overwritten.
// Timestamps are truncated to whole seconds.
func (c *Client) SetHolidayDates(ctx context.Context, start, end time.Time) error {
	return c.editSchedule(ctx, "holiday_set", func(doc map[string]any) {
		doc[holidayKey] = map[string]any{
			holidayDepartKey: start.Unix() * 1000,
			holidayReturnKey: end.Unix() * 1000,
		}
	})
}

// ClearHolidayDates removes the holiday window, if any.
func (c *Client) ClearHolidayDates(ctx context.Context) error {
	return c.editSchedule(ctx, "holiday_clear", func(doc map[string]any) {
		delete(doc, holidayKey)
	})
}

func (c *Client) editSchedule(ctx context.Context, op string, edit func(map[string]any)) error {
	c.opMu.Lock()
	err := c.editScheduleLocked(ctx, op, edit)
	c.opMu.Unlock()
	if err != nil {
		return err
	}
	c.observers.publish()
	return nil
}

func (c *Client) editScheduleLocked(ctx context.Context, op string, edit func(map[string]any)) error {
	if err := c.ensureReady(ctx); err != nil {
		c.log.Errorw("tank_command_failed", "op", op, "err", err)
		return err
	}
	if err := c.fetchSchedule(ctx); err != nil {
		if errors.Is(err, ErrNoSchedule) {
			c.log.Errorw("tank_command_failed", "op", op, "err", err)
			return err
		}
		c.log.Warnw("tank_fetch_failed", "step", "schedule", "err", err)
	}

	c.mu.RLock()
	doc := models.CloneDocument(c.state.Schedule)
	c.mu.RUnlock()
	if doc == nil {
		c.log.Errorw("tank_command_failed", "op", op, "err", ErrNoSchedule)
		return ErrNoSchedule
	}

	edit(doc)
	return c.commandLocked(ctx, "schedule", scheduleURL, doc, resourceSchedule)
}

// HolidayStart returns the start of the scheduled holiday window.
func (c *Client) HolidayStart() (time.Time, bool) { return c.holidayDate(holidayDepartKey) }

// HolidayEnd returns the end of the scheduled holiday window.
func (c *Client) HolidayEnd() (time.Time, bool) { return c.holidayDate(holidayReturnKey) }

func (c *Client) holidayDate(key string) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return holidayDate(c.state.Schedule, key)
}

func holidayDate(schedule map[string]any, key string) (time.Time, bool) {
	holiday, ok := schedule[holidayKey].(map[string]any)
	if !ok {
		return time.Time{}, false
	}
	ms, ok := epochMillis(holiday[key])
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// epochMillis accepts every numeric shape a schedule document can hold:
// json.Number from the decoder, int64 from local edits.
func epochMillis(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return int64(f), true
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}
