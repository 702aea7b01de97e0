// Package wsproto implements the server's WebSocket connection lifecycle
// (§4.I): upgrade, a reader/writer goroutine pair per connection, and an
// active-connection counter the poller consults for idle-pause (§4.E).
package wsproto

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/el-ev/bird-lg-go/internal/hub"
	"github.com/el-ev/bird-lg-go/internal/wire"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Tracker counts live WebSocket connections and the wall time since the
// last client HTTP request, the two conditions the poller's idle-pause
// checks (§4.E).
type Tracker struct {
	active        int64
	lastRequestNs int64
}

// NewTracker returns a Tracker initialized as if a request just occurred.
func NewTracker() *Tracker {
	t := &Tracker{}
	t.Touch()
	return t
}

// Touch records that a client request just happened. A request-tracking
// HTTP middleware calls this on every request (§6).
func (t *Tracker) Touch() {
	atomic.StoreInt64(&t.lastRequestNs, time.Now().UnixNano())
}

// IdleFor reports how long it has been since the last Touch.
func (t *Tracker) IdleFor() time.Duration {
	last := atomic.LoadInt64(&t.lastRequestNs)
	return time.Since(time.Unix(0, last))
}

// ActiveConnections reports the current number of live WebSocket
// connections.
func (t *Tracker) ActiveConnections() int {
	return int(atomic.LoadInt64(&t.active))
}

func (t *Tracker) inc() { atomic.AddInt64(&t.active, 1) }
func (t *Tracker) dec() { atomic.AddInt64(&t.active, -1) }

// CommandRunner dispatches a decoded on-demand request and delivers
// response events via emit, until the request completes or ctx is
// cancelled. ctx is cancelled when the owning WS connection closes, so a
// long-running command (e.g. a streaming traceroute) must be cancellable
// mid-flight rather than running to completion after the client is gone
// (§5 Cancellation: "Closing a WS connection cancels all command tasks
// spawned from it").
type CommandRunner interface {
	Run(ctx context.Context, req wire.AppRequest, emit func(wire.AppResponse))
}

// Handler upgrades requests to WebSocket connections and drives each
// connection's lifecycle.
type Handler struct {
	Hub      *hub.Hub
	Tracker  *Tracker
	Runner   CommandRunner
	Logger   *slog.Logger
	Snapshot func() wire.AppResponse
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.Tracker.inc()
	defer h.Tracker.dec()

	// The initial snapshot is synthesized from the store, not replayed
	// from the broadcast channel, so it always reflects the current
	// state even if no tick has run since the hub was created (§4.G).
	sub := h.Hub.Subscribe()
	defer sub.Close()

	if h.Snapshot != nil {
		if err := h.write(conn, h.Snapshot()); err != nil {
			conn.Close()
			return
		}
	}

	send := make(chan wire.AppResponse, sendBuffer)
	done := make(chan struct{})

	// ctx is cancelled when this connection closes, so every command
	// task spawned from it (a streaming traceroute, a route lookup) is
	// cancelled too rather than running on after the client is gone.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.writePump(conn, sub, send, done)
	h.readPump(ctx, conn, send, done)
}

// readPump decodes incoming requests and dispatches them to the command
// runner, whose responses are queued onto send. It returns (and signals
// done) when the connection is closed from either side.
func (h *Handler) readPump(ctx context.Context, conn *websocket.Conn, send chan<- wire.AppResponse, done chan struct{}) {
	defer close(done)
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		req, err := wire.ParseRequest(data)
		if err != nil {
			trySend(send, wire.Error(err.Error()))
			continue
		}

		go h.Runner.Run(ctx, req, func(resp wire.AppResponse) {
			trySend(send, resp)
		})
	}
}

// writePump drains both the per-connection send queue and the hub
// subscription, writing every message to the connection, until done fires.
func (h *Handler) writePump(conn *websocket.Conn, sub *hub.Subscription, send <-chan wire.AppResponse, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case <-done:
			return
		case resp, ok := <-sub.Ch:
			if !ok {
				return
			}
			if err := h.write(conn, resp); err != nil {
				return
			}
		case resp := <-send:
			if err := h.write(conn, resp); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, resp wire.AppResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func trySend(send chan<- wire.AppResponse, resp wire.AppResponse) {
	select {
	case send <- resp:
	default:
	}
}
