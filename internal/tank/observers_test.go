package tank

import (
	"testing"

	"mixergy_bridge/internal/logger"
)

type countingObserver struct{ n int }

func (o *countingObserver) TankUpdated() { o.n++ }

type panickingObserver struct{}

func (panickingObserver) TankUpdated() { panic("boom") }

func TestObservers_SetSemantics(t *testing.T) {
	c := NewClient(Config{SerialNumber: "mx1", Logger: logger.Nop()})
	o := &countingObserver{}

	c.Register(o)
	c.Register(o)
	c.Publish()
	if o.n != 1 {
		t.Fatalf("observer called %d times, want 1", o.n)
	}

	c.Remove(o)
	c.Remove(o)
	c.Publish()
	if o.n != 1 {
		t.Fatalf("removed observer still called")
	}
	if c.observers.len() != 0 {
		t.Fatalf("registry not empty")
	}
}

func TestObservers_PanicIsIsolated(t *testing.T) {
	c := NewClient(Config{SerialNumber: "mx1", Logger: logger.Nop()})
	first, second := &countingObserver{}, &countingObserver{}
	c.Register(first)
	c.Register(panickingObserver{})
	c.Register(second)

	c.Publish()
	if first.n != 1 || second.n != 1 {
		t.Fatalf("delivery stopped by panicking observer: %d, %d", first.n, second.n)
	}
}

func TestObservers_SubscribeCancel(t *testing.T) {
	c := NewClient(Config{SerialNumber: "mx1", Logger: logger.Nop()})
	calls := 0
	cancel := c.Subscribe(func() { calls++ })
	other := c.Subscribe(func() {})

	c.Publish()
	cancel()
	cancel()
	c.Publish()
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if c.observers.len() != 1 {
		t.Fatalf("cancel removed the wrong observer")
	}
	other()
}

func TestObservers_MayReadStateDuringPublish(t *testing.T) {
	c := NewClient(Config{SerialNumber: "mx1", Logger: logger.Nop()})
	var serial string
	c.Subscribe(func() {
		serial = c.Info().SerialNumber
		_ = c.State()
	})
	c.Publish()
	if serial != "MX1" {
		t.Fatalf("serial = %q, want MX1", serial)
	}
}
