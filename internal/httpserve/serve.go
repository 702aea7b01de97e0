// Package httpserve runs an http.Handler on one or more listen addresses
// with graceful shutdown, the multi-listener pattern both binaries need
// (the proxy and server configs each accept `listen: string | [string]`).
package httpserve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// shutdownTimeout bounds graceful shutdown of every listener.
const shutdownTimeout = 10 * time.Second

// Run serves handler on every address in addrs until ctx is cancelled, then
// shuts every server down gracefully. It returns once all listeners have
// stopped.
func Run(ctx context.Context, addrs []string, handler http.Handler, logger *slog.Logger) error {
	if len(addrs) == 0 {
		return fmt.Errorf("httpserve: no listen addresses configured")
	}

	servers := make([]*http.Server, len(addrs))
	listeners := make([]net.Listener, len(addrs))

	for i, addr := range addrs {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			for j := 0; j < i; j++ {
				listeners[j].Close()
			}
			return fmt.Errorf("httpserve: listen %s: %w", addr, err)
		}
		listeners[i] = ln
		servers[i] = &http.Server{Handler: handler}
	}

	var wg sync.WaitGroup
	for i, addr := range addrs {
		i, addr := i, addr
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("listening", "addr", addr)
			if err := servers[i].Serve(listeners[i]); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server error", "addr", addr, "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for i, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown error", "addr", addrs[i], "error", err)
		}
	}

	wg.Wait()
	return nil
}
