package serverhttp

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/el-ev/bird-lg-go/internal/router"
	"github.com/el-ev/bird-lg-go/internal/serverconfig"
	"github.com/el-ev/bird-lg-go/internal/snapshot"
	"github.com/el-ev/bird-lg-go/internal/wire"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeToucher struct{ touched int }

func (f *fakeToucher) Touch() { f.touched++ }

func newMux(t *testing.T) (*Mux, *fakeToucher) {
	t.Helper()
	store := snapshot.New()
	store.Put(wire.NodeProtocol{
		Name:        "node1",
		Protocols:   []wire.Protocol{{Name: "bgp1", State: "up"}},
		LastUpdated: time.Now(),
	})
	store.SetPeering("node1", wire.PeeringInfo{})

	toucher := &fakeToucher{}
	mux := &Mux{
		Store:  store,
		Router: &router.Router{},
		Nodes:  []serverconfig.Node{{Name: "node1", URL: "http://node1"}},
		WS:     nil,
		Touch:  toucher,
		Logger: discardLogger(),
	}
	return mux, toucher
}

func TestHandler_ProtocolsReturnsSnapshot(t *testing.T) {
	mux, _ := newMux(t)
	req := httptest.NewRequest(http.MethodGet, "/api/protocols", nil)
	rec := httptest.NewRecorder()

	mux.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp wire.AppResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Tag != wire.RespProtocols {
		t.Errorf("Tag = %q", resp.Tag)
	}
}

func TestHandler_NodeProtocols404ForUnknownNode(t *testing.T) {
	mux, _ := newMux(t)
	req := httptest.NewRequest(http.MethodGet, "/api/protocols/missing", nil)
	rec := httptest.NewRecorder()

	mux.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandler_RouteLookupRejectsInvalidTarget(t *testing.T) {
	mux, _ := newMux(t)
	req := httptest.NewRequest(http.MethodGet, "/api/routes/node1?target=not-an-ip", nil)
	rec := httptest.NewRecorder()

	mux.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandler_TracerouteUnknownNode404(t *testing.T) {
	mux, _ := newMux(t)
	req := httptest.NewRequest(http.MethodGet, "/api/traceroute/missing?target=1.1.1.1", nil)
	rec := httptest.NewRecorder()

	mux.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandler_TrackingMiddlewareTouchesOnEveryRequest(t *testing.T) {
	mux, toucher := newMux(t)
	req := httptest.NewRequest(http.MethodGet, "/api/protocols", nil)
	rec := httptest.NewRecorder()

	mux.Handler().ServeHTTP(rec, req)
	mux.Handler().ServeHTTP(rec, req)

	if toucher.touched != 2 {
		t.Errorf("touched = %d, want 2", toucher.touched)
	}
}

func TestHandler_CORSPreflightReturnsNoContent(t *testing.T) {
	mux, _ := newMux(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/protocols", nil)
	rec := httptest.NewRecorder()

	mux.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS header")
	}
}

func TestHandler_InfoReflectsNetworkAndPeering(t *testing.T) {
	mux, _ := newMux(t)
	mux.Network = &serverconfig.Network{Name: "Example Network", ASN: "64500"}

	req := httptest.NewRequest(http.MethodGet, "/api/info", nil)
	rec := httptest.NewRecorder()

	mux.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp wire.AppResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Tag != wire.RespNetworkInfo {
		t.Errorf("Tag = %q", resp.Tag)
	}
}
