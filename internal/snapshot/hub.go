// Package snapshot distributes the latest state of a running simulation to
// any number of readers without shared mutable state.
package snapshot

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is an immutable view of a run after one bar.
type Snapshot struct {
	Symbol     string    `json:"symbol"`
	Strategy   string    `json:"strategy"`
	Bar        int       `json:"bar"`
	Date       time.Time `json:"date"`
	Price      float64   `json:"price"`
	Signal     string    `json:"signal"`
	Position   int       `json:"position"`
	EntryPrice float64   `json:"entry_price,omitempty"`
	Capital    float64   `json:"capital"`
	Equity     float64   `json:"equity"`
	Trades     int       `json:"trades"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Hub fans published snapshots out to subscribers. Each subscriber channel
// holds at most one pending snapshot: a slow reader skips intermediate
// values and always sees the newest one next.
type Hub struct {
	latest atomic.Pointer[Snapshot]

	mu     sync.Mutex
	subs   map[chan Snapshot]struct{}
	closed bool
	done   chan struct{}

	published atomic.Uint64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Snapshot]struct{}), done: make(chan struct{})}
}

// Publish records s as the latest snapshot and offers it to every subscriber.
// It never blocks on a reader.
func (h *Hub) Publish(s Snapshot) {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}
	h.latest.Store(&s)
	h.published.Add(1)

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		offer(ch, s)
	}
}

// offer replaces a pending value instead of blocking.
func offer(ch chan Snapshot, s Snapshot) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}

// Latest returns the most recent snapshot, if any.
func (h *Hub) Latest() (Snapshot, bool) {
	s := h.latest.Load()
	if s == nil {
		return Snapshot{}, false
	}
	return *s, true
}

// Published returns how many snapshots have been published.
func (h *Hub) Published() uint64 {
	return h.published.Load()
}

// Subscribe returns a channel receiving snapshots until ctx is done or the
// hub is closed, after which the channel is closed. A subscriber joining
// after a publish first receives the latest snapshot.
func (h *Hub) Subscribe(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch
	}
	if s := h.latest.Load(); s != nil {
		ch <- *s
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			h.unsubscribe(ch)
		case <-h.done:
		}
	}()
	return ch
}

func (h *Hub) unsubscribe(ch chan Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription. Later publishes only update Latest.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
