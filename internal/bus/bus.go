// Package bus fans tank events out to local subscribers and, optionally, an
// MQTT broker.
package bus

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"mixergy_bridge/internal/logger"
	"mixergy_bridge/internal/models"
)

// Sink accepts tank events.
type Sink interface {
	Publish(ctx context.Context, e models.TankEvent) error
}

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 32

// Bus is an in-process event bus. Slow subscribers lose events rather than
// blocking the publisher.
type Bus struct {
	log *logger.Logger

	mu   sync.RWMutex
	subs map[string]chan models.TankEvent
}

func New(log *logger.Logger) *Bus {
	if log == nil {
		log = logger.Nop()
	}
	return &Bus{log: log, subs: make(map[string]chan models.TankEvent)}
}

// Subscribe returns a channel receiving every later event and a function
// that unsubscribes and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan models.TankEvent, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	id := uuid.NewString()
	ch := make(chan models.TankEvent, buffer)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers e to every subscriber without blocking.
func (b *Bus) Publish(_ context.Context, e models.TankEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.log.Warnw("bus_subscriber_full", "subscriber", id, "event", e.Type)
		}
	}
	return nil
}

// Multi publishes to several sinks and joins their errors.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, e models.TankEvent) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
