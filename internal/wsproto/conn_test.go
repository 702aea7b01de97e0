package wsproto

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/goleak"

	"github.com/el-ev/bird-lg-go/internal/hub"
	"github.com/el-ev/bird-lg-go/internal/router"
	"github.com/el-ev/bird-lg-go/internal/serverconfig"
	"github.com/el-ev/bird-lg-go/internal/wire"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

type stubRunner struct {
	run func(ctx context.Context, req wire.AppRequest, emit func(wire.AppResponse))
}

func (s *stubRunner) Run(ctx context.Context, req wire.AppRequest, emit func(wire.AppResponse)) {
	if s.run != nil {
		s.run(ctx, req, emit)
	}
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestHandler_DeliversHubBroadcast(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := hub.New()
	tracker := NewTracker()
	handler := &Handler{Hub: h, Tracker: tracker, Runner: &stubRunner{}, Logger: discardLogger()}

	srv := httptest.NewServer(handler)
	defer srv.Close()

	conn := dialWS(t, srv)
	defer conn.Close()

	// Give the server a moment to register the subscription before publishing.
	deadline := time.Now().Add(time.Second)
	for h.Subscribers() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if h.Subscribers() != 1 {
		t.Fatalf("Subscribers() = %d, want 1", h.Subscribers())
	}

	h.Publish(wire.ProtocolsDiff([]wire.NodeStatusDiff{{Node: "node1"}}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	var resp wire.AppResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Tag != wire.RespProtocolsDiff {
		t.Errorf("Tag = %q, want %q", resp.Tag, wire.RespProtocolsDiff)
	}
}

func TestHandler_DispatchesCommandRequest(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := hub.New()
	tracker := NewTracker()
	runner := &stubRunner{run: func(ctx context.Context, req wire.AppRequest, emit func(wire.AppResponse)) {
		emit(wire.TracerouteInit(req.Node))
	}}
	handler := &Handler{Hub: h, Tracker: tracker, Runner: runner, Logger: discardLogger()}

	srv := httptest.NewServer(handler)
	defer srv.Close()

	conn := dialWS(t, srv)
	defer conn.Close()

	req := wire.AppRequest{Tag: wire.ReqTraceroute, Node: "node1", Target: "example.com"}
	payload, _ := json.Marshal(req)
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	var resp wire.AppResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Tag != wire.RespTracerouteInit || resp.Node != "node1" {
		t.Errorf("resp = %+v, want TracerouteInit for node1", resp)
	}
}

func TestHandler_TracksActiveConnections(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := hub.New()
	tracker := NewTracker()
	handler := &Handler{Hub: h, Tracker: tracker, Runner: &stubRunner{}, Logger: discardLogger()}

	srv := httptest.NewServer(handler)
	defer srv.Close()

	conn := dialWS(t, srv)

	deadline := time.Now().Add(time.Second)
	for tracker.ActiveConnections() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if tracker.ActiveConnections() != 1 {
		t.Fatalf("ActiveConnections() = %d, want 1", tracker.ActiveConnections())
	}

	conn.Close()

	deadline = time.Now().Add(time.Second)
	for tracker.ActiveConnections() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if tracker.ActiveConnections() != 0 {
		t.Errorf("ActiveConnections() = %d after close, want 0", tracker.ActiveConnections())
	}
}

func TestHandler_DisconnectMidCommandLeavesNoGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := hub.New()
	tracker := NewTracker()
	started := make(chan struct{})
	release := make(chan struct{})
	runner := &stubRunner{run: func(ctx context.Context, req wire.AppRequest, emit func(wire.AppResponse)) {
		close(started)
		<-release
		emit(wire.TracerouteInit(req.Node))
	}}
	handler := &Handler{Hub: h, Tracker: tracker, Runner: runner, Logger: discardLogger()}

	srv := httptest.NewServer(handler)
	defer srv.Close()

	conn := dialWS(t, srv)

	req := wire.AppRequest{Tag: wire.ReqTraceroute, Node: "node1"}
	payload, _ := json.Marshal(req)
	conn.WriteMessage(websocket.TextMessage, payload)

	<-started
	conn.Close()
	close(release)

	time.Sleep(50 * time.Millisecond)
}

// TestHandler_DisconnectCancelsUpstreamRequest drives a real router.Router
// and Dispatcher (no stub) against a real upstream httptest.Server, so it
// proves the full cancellation chain end to end: closing the WS connection
// cancels readPump's ctx, which Dispatcher.Run threads into
// Router.RunRouteLookup, which passes it to http.NewRequestWithContext, so
// the in-flight upstream request is actually aborted rather than left to
// stream to completion after the client is gone (§5 Cancellation).
func TestHandler_DisconnectCancelsUpstreamRequest(t *testing.T) {
	defer goleak.VerifyNone(t)

	canceled := make(chan struct{})
	received := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(received)
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
		close(canceled)
	}))
	defer upstream.Close()

	h := hub.New()
	tracker := NewTracker()
	dispatcher := &Dispatcher{
		Router: router.New(),
		Nodes:  []serverconfig.Node{{Name: "node1", URL: upstream.URL}},
	}
	handler := &Handler{Hub: h, Tracker: tracker, Runner: dispatcher, Logger: discardLogger()}

	srv := httptest.NewServer(handler)
	defer srv.Close()

	conn := dialWS(t, srv)

	req := wire.AppRequest{Tag: wire.ReqRouteLookup, Node: "node1", Target: "10.0.0.0/24"}
	payload, _ := json.Marshal(req)
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for upstream to receive the request")
	}

	conn.Close()

	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatal("upstream request was never cancelled after WS disconnect")
	}
}

func TestTracker_IdleFor(t *testing.T) {
	tracker := NewTracker()
	if tracker.IdleFor() > time.Second {
		t.Errorf("IdleFor() = %v immediately after NewTracker, want near zero", tracker.IdleFor())
	}
}
