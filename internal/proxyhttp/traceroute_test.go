package proxyhttp

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTracerouteHandler_RejectsInvalidTarget(t *testing.T) {
	h := &TracerouteHandler{
		Config: func() (TracerouteConfig, bool) {
			return TracerouteConfig{Bin: "traceroute"}, true
		},
		Logger: discardLogger(),
	}

	req := httptest.NewRequest(http.MethodGet, "/traceroute?target=%3Brm%20-rf%20%2F", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestTracerouteHandler_NotConfigured(t *testing.T) {
	h := &TracerouteHandler{
		Config: func() (TracerouteConfig, bool) { return TracerouteConfig{}, false },
		Logger: discardLogger(),
	}

	req := httptest.NewRequest(http.MethodGet, "/traceroute?target=example.com", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
