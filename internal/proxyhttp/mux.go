package proxyhttp

import (
	"log/slog"
	"net/http"

	"github.com/el-ev/bird-lg-go/internal/proxyconfig"
	"github.com/el-ev/bird-lg-go/internal/wire"
)

// NewMux builds the proxy's HTTP surface: /bird, /traceroute[46],
// /wireguard, /peering, all behind the CIDR/shared-secret auth gate, plus a
// permissive CORS wrapper (§4.C, §6). cfg is read on every request so a
// config reload takes effect without restarting the listener.
func NewMux(cfg func() *proxyconfig.Config, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	authCfg := func() AuthConfig {
		c := cfg()
		return AuthConfig{SharedSecret: c.SharedSecret, Allowed: c.Allowlist}
	}
	auth := AuthMiddleware(authCfg, logger)

	mux.Handle("/bird", auth(birdHandler(cfg, logger)))
	mux.Handle("/traceroute", auth(tracerouteHandler(cfg, logger, "")))
	mux.Handle("/traceroute4", auth(tracerouteHandler(cfg, logger, "4")))
	mux.Handle("/traceroute6", auth(tracerouteHandler(cfg, logger, "6")))
	mux.Handle("/wireguard", auth(&WireGuardHandler{
		Config: func() WireGuardConfig { return WireGuardConfig{Command: cfg().WireGuardCommand} },
		Logger: logger,
	}))
	mux.Handle("/peering", auth(&PeeringHandler{
		Config: func() *wire.PeeringInfo { return cfg().Peering },
	}))

	return corsMiddleware(mux)
}

func birdHandler(cfg func() *proxyconfig.Config, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NewBirdHandler(cfg().BindSocket, logger).ServeHTTP(w, r)
	})
}

func tracerouteHandler(cfg func() *proxyconfig.Config, logger *slog.Logger, version string) http.Handler {
	return &TracerouteHandler{
		Config: func() (TracerouteConfig, bool) {
			c := cfg()
			return TracerouteConfig{Bin: c.TracerouteBin, Args: c.TracerouteArgs}, true
		},
		Version: version,
		Logger:  logger,
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, x-shared-secret")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
