package proxyhttp

import (
	"encoding/json"
	"net/http"

	"github.com/el-ev/bird-lg-go/internal/wire"
)

// PeeringHandler serves GET /peering: the proxy's own static-ish peering
// metadata, or "null" if none is configured (§6).
type PeeringHandler struct {
	Config func() *wire.PeeringInfo
}

func (h *PeeringHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	info := h.Config()
	if info == nil {
		w.Write([]byte("null"))
		return
	}
	json.NewEncoder(w).Encode(info)
}
