package tank

import (
	"sync"

	"mixergy_bridge/internal/logger"
)

// Observer is notified after every state refresh. Implementations must be
// comparable; register a pointer when in doubt.
type Observer interface {
	TankUpdated()
}

type funcObserver struct{ fn func() }

func (o *funcObserver) TankUpdated() { o.fn() }

// observerRegistry is a set of observers. Delivery order is unspecified.
type observerRegistry struct {
	log *logger.Logger

	mu  sync.Mutex
	set map[Observer]struct{}
}

func (r *observerRegistry) add(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.set == nil {
		r.set = make(map[Observer]struct{})
	}
	r.set[o] = struct{}{}
}

func (r *observerRegistry) remove(o Observer) {
	r.mu.Lock()
	delete(r.set, o)
	r.mu.Unlock()
}

func (r *observerRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.set)
}

// publish calls every observer synchronously. The set is copied first so
// observers may register or remove others from inside the callback.
func (r *observerRegistry) publish() {
	r.mu.Lock()
	snapshot := make([]Observer, 0, len(r.set))
	for o := range r.set {
		snapshot = append(snapshot, o)
	}
	r.mu.Unlock()

	for _, o := range snapshot {
		r.deliver(o)
	}
}

func (r *observerRegistry) deliver(o Observer) {
	defer func() {
		if v := recover(); v != nil {
			r.log.Errorw("tank_observer_panic", "panic", v)
		}
	}()
	o.TankUpdated()
}

// Register adds o to the observer set. Registering the same observer twice
// has no extra effect.
func (c *Client) Register(o Observer) { c.observers.add(o) }

// Remove drops o from the observer set; absent observers are ignored.
func (c *Client) Remove(o Observer) { c.observers.remove(o) }

// Subscribe registers fn and returns a function that removes it.
func (c *Client) Subscribe(fn func()) (cancel func()) {
	o := &funcObserver{fn: fn}
	c.observers.add(o)
	return func() { c.observers.remove(o) }
}

// Publish notifies every observer. Fetch cycles, commands and push
// messages call it themselves.
func (c *Client) Publish() { c.observers.publish() }
