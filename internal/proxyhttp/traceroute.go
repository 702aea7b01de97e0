package proxyhttp

import (
	"bufio"
	"io"
	"log/slog"
	"net/http"
	"os/exec"

	"github.com/el-ev/bird-lg-go/internal/netutil"
)

// TracerouteConfig is the subset of proxy config the traceroute handler
// needs.
type TracerouteConfig struct {
	Bin  string
	Args []string
}

// TracerouteHandler serves GET /traceroute[46]. version is "", "4", or "6".
type TracerouteHandler struct {
	Config  func() (TracerouteConfig, bool)
	Version string
	Logger  *slog.Logger
}

func (h *TracerouteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	if err := netutil.ValidateTarget(target); err != nil {
		http.Error(w, "Invalid target: "+err.Error(), http.StatusBadRequest)
		return
	}

	cfg, ok := h.Config()
	if !ok {
		http.Error(w, "traceroute not configured", http.StatusInternalServerError)
		return
	}

	args := append([]string{target}, cfg.Args...)
	switch h.Version {
	case "4":
		args = append(args, "-4")
	case "6":
		args = append(args, "-6")
	}

	cmd := exec.CommandContext(r.Context(), cfg.Bin, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		http.Error(w, "Failed to capture stdout", http.StatusInternalServerError)
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		http.Error(w, "Failed to capture stderr", http.StatusInternalServerError)
		return
	}

	if err := cmd.Start(); err != nil {
		http.Error(w, "Failed to execute traceroute: "+err.Error(), http.StatusInternalServerError)
		return
	}

	flusher, _ := w.(http.Flusher)
	scanner := bufio.NewScanner(stdout)
	lines := 0
	for scanner.Scan() {
		lines++
		w.Write(scanner.Bytes())
		w.Write([]byte("\n"))
		if flusher != nil {
			flusher.Flush()
		}
	}

	if lines == 0 {
		cmd.Wait()
		errBytes, _ := io.ReadAll(stderr)
		http.Error(w, string(errBytes), http.StatusInternalServerError)
		return
	}

	cmd.Wait()
}
