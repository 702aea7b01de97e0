// Package serverhttp implements the server's HTTP surface under /api
// (§6): node snapshots, streaming on-demand commands, network info, and
// the WS upgrade, plus a request-tracking middleware feeding the poller's
// idle-pause decision.
package serverhttp

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/el-ev/bird-lg-go/internal/netutil"
	"github.com/el-ev/bird-lg-go/internal/router"
	"github.com/el-ev/bird-lg-go/internal/serverconfig"
	"github.com/el-ev/bird-lg-go/internal/snapshot"
	"github.com/el-ev/bird-lg-go/internal/wire"
	"github.com/el-ev/bird-lg-go/internal/wsproto"
)

// Toucher is notified on every request, feeding the poller's idle-pause
// decision (§4.E, §6: "updates last_request_time on every call").
type Toucher interface {
	Touch()
}

// Mux wires the /api surface plus /ws. network is nil when no [network]
// block is configured.
type Mux struct {
	Store   *snapshot.Store
	Router  *router.Router
	Nodes   []serverconfig.Node
	Network *serverconfig.Network
	WS      *wsproto.Handler
	Touch   Toucher
	Logger  *slog.Logger
}

// Handler builds the complete routed, CORS-wrapped, request-tracked mux.
func (m *Mux) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/protocols", m.handleProtocols)
	mux.HandleFunc("GET /api/protocols/{node}", m.handleNodeProtocols)
	mux.HandleFunc("GET /api/protocols/{node}/{proto}", m.handleProtocolDetails)
	mux.HandleFunc("GET /api/routes/{node}", m.handleRouteLookup)
	mux.HandleFunc("GET /api/traceroute/{node}", m.handleTraceroute)
	mux.HandleFunc("GET /api/info", m.handleInfo)
	mux.HandleFunc("GET /api/peering/{node}", m.handlePeering)
	mux.Handle("GET /api/ws", m.WS)

	return corsMiddleware(m.trackingMiddleware(mux))
}

func (m *Mux) trackingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.Touch.Touch()
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Mux) handleProtocols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, wire.Protocols(m.Store.All()))
}

func (m *Mux) handleNodeProtocols(w http.ResponseWriter, r *http.Request) {
	node, ok := m.Store.Get(r.PathValue("node"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown node")
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (m *Mux) handlePeering(w http.ResponseWriter, r *http.Request) {
	info, ok := m.Store.Peering(r.PathValue("node"))
	if !ok {
		writeError(w, http.StatusNotFound, "no peering info for node")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (m *Mux) handleInfo(w http.ResponseWriter, r *http.Request) {
	info := wire.NetworkInfo{Peering: m.Store.AllPeering()}
	if m.Network != nil {
		info.Name = m.Network.Name
		info.ASN = m.Network.ASN
		if m.Network.Comment != "" {
			c := m.Network.Comment
			info.Comment = &c
		}
	}
	writeJSON(w, http.StatusOK, wire.Network(info))
}

func (m *Mux) handleProtocolDetails(w http.ResponseWriter, r *http.Request) {
	node, ok := m.findNode(r.PathValue("node"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown node")
		return
	}
	streamEvents(w, r, m.Logger, func(emit router.Emit) {
		m.Router.RunProtocolDetails(r.Context(), node, r.PathValue("proto"), emit)
	})
}

func (m *Mux) handleRouteLookup(w http.ResponseWriter, r *http.Request) {
	node, ok := m.findNode(r.PathValue("node"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown node")
		return
	}
	target := r.URL.Query().Get("target")
	if err := netutil.ValidateRouteTarget(target); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	all := r.URL.Query().Get("all") == "true"
	streamEvents(w, r, m.Logger, func(emit router.Emit) {
		m.Router.RunRouteLookup(r.Context(), node, target, all, emit)
	})
}

func (m *Mux) handleTraceroute(w http.ResponseWriter, r *http.Request) {
	node, ok := m.findNode(r.PathValue("node"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown node")
		return
	}
	target := r.URL.Query().Get("target")
	version := r.URL.Query().Get("version")
	if version == "auto" {
		version = ""
	}
	streamEvents(w, r, m.Logger, func(emit router.Emit) {
		m.Router.RunTraceroute(r.Context(), node, target, version, emit)
	})
}

// streamEvents runs a router call against a chunked response, encoding each
// emitted AppResponse as one newline-terminated JSON line.
func streamEvents(w http.ResponseWriter, r *http.Request, logger *slog.Logger, run func(router.Emit)) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	flusher, _ := w.(http.Flusher)

	enc := json.NewEncoder(w)
	run(func(resp wire.AppResponse) {
		if err := enc.Encode(resp); err != nil {
			logger.Warn("stream encode failed", "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	})
}

func (m *Mux) findNode(name string) (router.Node, bool) {
	for _, n := range m.Nodes {
		if n.Name == name {
			return router.Node{Name: n.Name, URL: n.URL, SharedSecret: n.SharedSecret}, true
		}
	}
	return router.Node{}, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
