package notify

import (
	"context"
	"sync"

	"parkspot/pkg/logger"
)

const subscriberBuffer = 16

// Hub delivers events to in-process subscriber channels. Sends are
// non-blocking: when a subscriber's buffer is full the event is dropped
// for that subscriber only.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
	closed      bool
	log         *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		subscribers: make(map[int]chan Event),
		log:         log,
	}
}

// Subscribe registers a listener and returns its channel plus an
// unsubscribe function. The channel is closed on unsubscribe and on hub
// shutdown.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	ch := make(chan Event, subscriberBuffer)
	h.subscribers[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subscribers[id]; ok {
				delete(h.subscribers, id)
				close(c)
			}
		})
	}
	return ch, unsubscribe
}

func (h *Hub) Broadcast(_ context.Context, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	for id, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			h.log.Warn("Dropping event for slow subscriber",
				"subscriber_id", id,
				"event_id", event.ID,
				"event_type", event.Type,
			)
		}
	}
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subscribers {
		delete(h.subscribers, id)
		close(ch)
	}
}
