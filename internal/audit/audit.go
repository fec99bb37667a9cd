// Package audit fans audit events out to their consumers (MQTT, status page).
package audit

import (
	"github.com/btittelbach/pubsub"

	"github.com/sweeney/garage-controller/internal/logic"
)

// Topic is the pubsub topic audit events are published on.
const Topic = "events"

// DefaultCapacity is the per-subscriber channel buffer.
const DefaultCapacity = 64

// Bus delivers every published event to every subscriber.
type Bus struct {
	ps *pubsub.PubSub
}

// New creates a bus whose subscriber channels buffer capacity events.
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{ps: pubsub.New(capacity)}
}

// Publish sends e to all subscribers.
func (b *Bus) Publish(e logic.Event) {
	b.ps.Pub(e, Topic)
}

// Subscribe returns a channel receiving every event published from now on.
// The channel is closed by Shutdown.
func (b *Bus) Subscribe() chan interface{} {
	return b.ps.Sub(Topic)
}

// Shutdown closes all subscriber channels.
func (b *Bus) Shutdown() {
	b.ps.Shutdown()
}

// Forward calls fn for every event received on ch until ch is closed.
func Forward(ch <-chan interface{}, fn func(logic.Event)) {
	for msg := range ch {
		if e, ok := msg.(logic.Event); ok {
			fn(e)
		}
	}
}
