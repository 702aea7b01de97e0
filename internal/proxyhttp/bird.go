// Package proxyhttp implements the proxy's HTTP surface: /bird,
// /traceroute[46], /wireguard, /peering, wrapped in the CIDR/shared-secret
// auth gate (§4.C, §6).
package proxyhttp

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/el-ev/bird-lg-go/internal/birdproto"
)

// BirdHandler serves POST /bird: it forwards the request body as a BIRD
// command and streams the decoded response back (§4.A).
type BirdHandler struct {
	Dial   func(ctx context.Context) (io.ReadWriteCloser, error)
	Logger *slog.Logger
}

// NewBirdHandler builds a BirdHandler dialing the given control socket bind
// address on each request.
func NewBirdHandler(bind string, logger *slog.Logger) *BirdHandler {
	dialer := birdproto.Dialer{Bind: bind}
	return &BirdHandler{
		Dial: func(ctx context.Context) (io.ReadWriteCloser, error) {
			return dialer.Dial(ctx)
		},
		Logger: logger,
	}
}

func (h *BirdHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	conn, err := h.Dial(r.Context())
	if err != nil {
		h.Logger.Error("failed to connect to bird socket", "error", err)
		w.Write([]byte(err.Error()))
		return
	}
	defer conn.Close()

	cmd := string(body)
	if !strings.HasSuffix(cmd, "\n") {
		cmd += "\n"
	}
	h.Logger.Info("proxying bird request", "command", strings.TrimRight(cmd, "\n"))

	if _, err := conn.Write([]byte(cmd)); err != nil {
		h.Logger.Error("failed to write bird request", "error", err)
		w.Write([]byte(err.Error()))
		return
	}

	flusher, _ := w.(http.Flusher)
	decoder := birdproto.NewDecoder(conn)
	for {
		msg, last, err := decoder.Next()
		if err != nil {
			if err != io.EOF {
				h.Logger.Error("bird decode error", "error", err)
			}
			return
		}
		w.Write([]byte(msg))
		if flusher != nil {
			flusher.Flush()
		}
		if last {
			return
		}
	}
}
