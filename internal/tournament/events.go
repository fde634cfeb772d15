package tournament

import (
	"sync"
	"time"
)

// Event is one lifecycle change pushed to SSE subscribers.
type Event struct {
	TournamentID  string    `json:"tournament_id"`
	Status        Status    `json:"status"`
	FilledSlots   int       `json:"filled_slots"`
	MaxSlots      int       `json:"max_slots"`
	StartTime     time.Time `json:"start_time"`
	RoomPublished bool      `json:"room_published,omitempty"`
}

// Bus fans lifecycle events out to any number of subscribers. Sends never
// block: a subscriber that stops draining loses events, not the publisher.
type Bus struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]struct{})}
}

// Subscribe returns a receive channel and a cancel function that must be
// called when the subscriber goes away.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
