// Package events implements an in-process publish/subscribe broker used to
// push reservation changes to connected clients.
package events

import (
	"context"
	"sync"
	"time"
)

// Type identifies the kind of change an event describes.
type Type string

const (
	ReservationCreated Type = "reservation.created"
	ReservationUpdated Type = "reservation.updated"
	ReservationDeleted Type = "reservation.deleted"
	SeriesRepaired     Type = "series.repaired"
)

// Event is a single change notification. Payload carries the affected
// resource in a JSON-encodable form.
type Event struct {
	Type       Type      `json:"type"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Broker fans published events out to all current subscribers. Slow
// subscribers drop events once their buffer is full; delivery is best
// effort.
type Broker struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[int]chan Event
	buffer      int
}

// NewBroker creates a broker whose subscriber channels buffer up to the
// given number of undelivered events.
func NewBroker(buffer int) *Broker {
	if buffer < 1 {
		buffer = 16
	}
	return &Broker{
		subscribers: make(map[int]chan Event),
		buffer:      buffer,
	}
}

// Subscribe registers a new subscriber. The subscription ends when the
// context is done or the returned cancel function is called, whichever
// comes first; the channel is closed on either path.
func (b *Broker) Subscribe(ctx context.Context) (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
			close(ch)
		})
	}

	if ctx != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}

	return ch, cancel
}

// Publish delivers the event to every subscriber that has buffer space.
func (b *Broker) Publish(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// SubscriberCount reports how many subscriptions are currently active.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
