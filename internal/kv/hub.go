package kv

import (
	"slices"
	"sync"
)

// Hub is an in-process Notifier. Subscribing with an empty key receives
// notifications for every key.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]subscription
}

type subscription struct {
	key string
	fn  func(string)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]subscription)}
}

// OnChange implements Notifier.
func (h *Hub) OnChange(key string, fn func(key string)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.subs[id] = subscription{key: key, fn: fn}

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Notify calls every subscriber registered for key, in subscription order.
// Callbacks run on the caller's goroutine without the hub lock held.
func (h *Hub) Notify(key string) {
	h.mu.Lock()
	ids := make([]int, 0, len(h.subs))
	for id, s := range h.subs {
		if s.key == "" || s.key == key {
			ids = append(ids, id)
		}
	}
	fns := make([]func(string), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, h.subs[id].fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}
