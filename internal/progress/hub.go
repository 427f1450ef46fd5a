// Package progress fans sync progress events out to API clients.
package progress

import (
	"context"
	"sync"

	"github.com/cesargomez89/catalogsync/internal/domain"
)

const subscriberBuffer = 32

// Hub keeps the latest event per subscription and forwards new events to
// subscribers. Slow subscribers miss events instead of blocking the sync.
type Hub struct {
	latest map[int64]domain.ProgressEvent
	subs   map[int64]map[chan domain.ProgressEvent]struct{}
	mu     sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		latest: make(map[int64]domain.ProgressEvent),
		subs:   make(map[int64]map[chan domain.ProgressEvent]struct{}),
	}
}

func (h *Hub) OnProgress(_ context.Context, ev domain.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest[ev.SubscriptionID] = ev
	for ch := range h.subs[ev.SubscriptionID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Latest returns the most recent event of a subscription since startup.
func (h *Hub) Latest(subscriptionID int64) (domain.ProgressEvent, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ev, ok := h.latest[subscriptionID]
	return ev, ok
}

// Subscribe returns a channel of events for one subscription and a cancel
// func that closes it. The latest event, if any, is delivered first.
func (h *Hub) Subscribe(subscriptionID int64) (<-chan domain.ProgressEvent, func()) {
	ch := make(chan domain.ProgressEvent, subscriberBuffer)

	h.mu.Lock()
	if h.subs[subscriptionID] == nil {
		h.subs[subscriptionID] = make(map[chan domain.ProgressEvent]struct{})
	}
	h.subs[subscriptionID][ch] = struct{}{}
	if ev, ok := h.latest[subscriptionID]; ok {
		ch <- ev
	}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[subscriptionID], ch)
			if len(h.subs[subscriptionID]) == 0 {
				delete(h.subs, subscriptionID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of open subscriptions for one subscription id.
func (h *Hub) Subscribers(subscriptionID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[subscriptionID])
}
