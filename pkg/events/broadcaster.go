package events

import "sync"

// EdgeUpdate is the payload pushed to `/graph/ws` subscribers whenever an
// edge is upserted (spec.md §6).
type EdgeUpdate struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	Confidence   int    `json:"confidence"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	ContextURL   string `json:"contextUrl,omitempty"`
}

// GraphBroadcaster is the in-memory, many-writer/many-reader pub/sub for
// graph-edge deltas. It is one of the two process-wide singletons spec.md
// §9 allows (the other being the GraphStore); it has no relation to any
// specific run.
type GraphBroadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan EdgeUpdate
	nextID int
}

// NewGraphBroadcaster constructs an empty broadcaster.
func NewGraphBroadcaster() *GraphBroadcaster {
	return &GraphBroadcaster{subs: make(map[int]chan EdgeUpdate)}
}

// Publish fans an edge update out to every current subscriber. A
// subscriber whose buffer is full is dropped rather than blocking the
// publisher, matching the per-run log's backpressure rule.
func (b *GraphBroadcaster) Publish(update EdgeUpdate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- update:
		default:
			delete(b.subs, id)
			close(ch)
		}
	}
}

// Subscribe registers a new listener and returns its channel plus an
// unsubscribe func to call on disconnect.
func (b *GraphBroadcaster) Subscribe() (<-chan EdgeUpdate, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan EdgeUpdate, subscriberBuffer)
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}
