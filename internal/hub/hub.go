// Package hub implements the server's broadcast fan-out (§4.G): the
// poller is the single producer of one event per tick — either a
// ProtocolsDiff batching every changed node or a NoChange — and any
// number of WebSocket connections subscribe to receive them. Slow
// subscribers are dropped from, not allowed to block, the broadcast.
package hub

import (
	"sync"

	"github.com/el-ev/bird-lg-go/internal/wire"
)

// subscriberBuffer is the bounded channel capacity for each subscriber. A
// subscriber that falls this far behind is unsubscribed and its channel
// closed rather than stalling the broadcaster (§4.G).
const subscriberBuffer = 16

// Subscription is a live handle to the hub's broadcast stream. Ch delivers
// the per-tick ProtocolsDiff/NoChange events; Close unregisters it.
type Subscription struct {
	Ch  <-chan wire.AppResponse
	hub *Hub
	id  uint64
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s.id)
}

// Hub fans a single producer's per-tick events out to any number of
// subscribers. The initial snapshot a new subscriber needs (§4.G) is
// synthesized by the caller from the snapshot store, not by the hub.
type Hub struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]chan wire.AppResponse
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{
		listeners: make(map[uint64]chan wire.AppResponse),
	}
}

// Subscribe registers a new listener and returns its Subscription. The
// caller must eventually call Close.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	inbox := make(chan wire.AppResponse, subscriberBuffer)
	h.listeners[id] = inbox

	return &Subscription{Ch: inbox, hub: h, id: id}
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Publish delivers resp to every current subscriber. A subscriber whose
// inbox is full has fallen too far behind to resync in place: it is
// unsubscribed and its channel closed, so its WS connection observes the
// close and must reconnect to pick the stream back up (§4.G). Publish
// never blocks.
func (h *Hub) Publish(resp wire.AppResponse) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.listeners {
		select {
		case ch <- resp:
		default:
			delete(h.listeners, id)
			close(ch)
		}
	}
}

// Subscribers reports the current number of live subscribers. The poller's
// idle-pause check does not use it; it counts WS connections through
// wsproto.Tracker instead.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}
