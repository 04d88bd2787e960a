package orchestrator

import (
	"sync"

	"github.com/atelleria/sessionwatch/errors"
	"github.com/atelleria/sessionwatch/models"
)

// Publisher receives every published snapshot. The transport that relays
// snapshots to clients lives behind this boundary.
type Publisher interface {
	Publish(snapshot models.LiveSnapshot)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(models.LiveSnapshot)

func (f PublisherFunc) Publish(snapshot models.LiveSnapshot) {
	f(snapshot)
}

// Broadcaster fans a snapshot out to any number of observers. Delivery is
// panic-isolated per subscriber.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[int]Publisher
	next int
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]Publisher)}
}

// Subscribe registers an observer and returns its cancel function.
func (b *Broadcaster) Subscribe(p Publisher) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = p
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers the snapshot to every current subscriber.
func (b *Broadcaster) Publish(snapshot models.LiveSnapshot) {
	b.mu.RLock()
	subs := make([]Publisher, 0, len(b.subs))
	for _, p := range b.subs {
		subs = append(subs, p)
	}
	b.mu.RUnlock()

	for _, p := range subs {
		sub := p
		errors.SafeCall("snapshot publish", func() {
			sub.Publish(snapshot)
		})
	}
}
