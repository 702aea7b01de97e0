package proxyhttp

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/el-ev/bird-lg-go/internal/netutil"
)

// AuthConfig is the subset of proxy config the auth gate needs.
type AuthConfig struct {
	SharedSecret string
	Allowed      *netutil.Allowlist
}

// AuthMiddleware gates requests by shared secret (if configured) and CIDR
// allowlist membership, in that order (§4.C). Both checks must pass.
func AuthMiddleware(cfg func() AuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := cfg()

			if c.SharedSecret != "" {
				header := r.Header.Get("x-shared-secret")
				if subtle.ConstantTimeCompare([]byte(header), []byte(c.SharedSecret)) != 1 {
					logger.Warn("rejected request: invalid shared secret", "remote", r.RemoteAddr)
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
			}

			ip := netutil.ClientIP(r)
			if ip == nil || c.Allowed == nil || !c.Allowed.Contains(ip) {
				logger.Warn("rejected request: unauthorized network", "client_ip", ip)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
