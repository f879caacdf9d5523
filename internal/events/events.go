// Package events carries store change notifications from the gate to
// subscribers such as the websocket hub and the webhook notifier.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskvault/taskvault/internal/store"
)

// Event kinds.
const (
	TaskUpserted = "task.upserted"
	TaskDeleted  = "task.deleted"
	UserUpserted = "user.upserted"
	UserDeleted  = "user.deleted"
)

// PublicUser is a user without its password.
type PublicUser struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// Event describes one applied mutation.
type Event struct {
	ID       string      `json:"id"`
	Kind     string      `json:"kind"`
	EntityID uint64      `json:"entity_id"`
	At       time.Time   `json:"at"`
	Task     *store.Task `json:"task,omitempty"`
	User     *PublicUser `json:"user,omitempty"`
}

// ForTask builds an event for a task mutation.
func ForTask(kind string, t store.Task, at time.Time) Event {
	return Event{ID: uuid.NewString(), Kind: kind, EntityID: t.ID, At: at.UTC(), Task: &t}
}

// ForUser builds an event for a user mutation. The password is dropped.
func ForUser(kind string, u store.User, at time.Time) Event {
	return Event{
		ID:       uuid.NewString(),
		Kind:     kind,
		EntityID: u.ID,
		At:       at.UTC(),
		User:     &PublicUser{ID: u.ID, Username: u.Username},
	}
}

// Publisher accepts events. Publish must not block.
type Publisher interface {
	Publish(Event)
}

// Bus fans events out to subscribers. A subscriber whose buffer is full
// misses the event; Publish never blocks.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a subscriber with the given buffer size. The returned
// cancel func unregisters it and closes the channel.
func (b *Bus) Subscribe(buf int) (<-chan Event, func()) {
	ch := make(chan Event, buf)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			close(ch)
			b.mu.Unlock()
		})
	}
}

// Publish delivers e to every subscriber with room in its buffer.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribers returns the number of registered subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
