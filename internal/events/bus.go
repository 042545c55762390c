// Package events carries provisioning lifecycle notifications from
// the engine to interested observers (the websocket feed, logs).
// Publishing never blocks: a subscriber that cannot keep up loses
// events rather than stalling provisioning.
package events

import (
	"sync"
	"time"
)

// Type classifies a lifecycle event.
type Type string

// Lifecycle event types.
const (
	TypePlanning Type = "planning"
	TypeCreated  Type = "created"
	TypeDropped  Type = "dropped"
	TypeMirrored Type = "mirrored"
	TypeReleased Type = "released"
	TypeSnapshot Type = "snapshot"
	TypeFailed   Type = "failed"
)

// Event is one provisioning lifecycle notification.
type Event struct {
	Type  Type      `json:"type"`
	Alias string    `json:"alias,omitempty"`
	Error string    `json:"error,omitempty"`
	Time  time.Time `json:"time"`
}

// Bus fans events out to subscribers.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber with the given channel buffer.
// The returned cancel function removes the subscription and closes
// the channel; it is safe to call more than once.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	b.mu.Lock()
	id := b.next
	b.next++
	ch := make(chan Event, buffer)
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber that has buffer
// space, stamping the time if unset.
func (b *Bus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
