package transcription

import "sync"

// Hub fans out "a transcript landed" signals per collection so waiting jobs
// can re-count without sitting out the full poll interval.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscription]struct{}
}

type subscription struct {
	ch chan struct{}
}

func NewHub() *Hub {
	return &Hub{subs: map[string]map[*subscription]struct{}{}}
}

// Subscribe returns a channel that receives at most one pending signal at a
// time, and a func to release it.
func (h *Hub) Subscribe(collectionID string) (<-chan struct{}, func()) {
	s := &subscription{ch: make(chan struct{}, 1)}
	h.mu.Lock()
	set, ok := h.subs[collectionID]
	if !ok {
		set = map[*subscription]struct{}{}
		h.subs[collectionID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[collectionID], s)
			if len(h.subs[collectionID]) == 0 {
				delete(h.subs, collectionID)
			}
		})
	}
}

// Notify signals every subscriber of the collection without blocking.
func (h *Hub) Notify(collectionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for s := range h.subs[collectionID] {
		select {
		case s.ch <- struct{}{}:
			n++
		default:
		}
	}
	return n
}

func (h *Hub) subscribers(collectionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[collectionID])
}
