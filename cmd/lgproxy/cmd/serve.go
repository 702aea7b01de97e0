package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/el-ev/bird-lg-go/internal/httpserve"
	"github.com/el-ev/bird-lg-go/internal/proxyconfig"
	"github.com/el-ev/bird-lg-go/internal/proxyhttp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the proxy HTTP server",
	Long:  "Load the proxy configuration and serve the BIRD/traceroute/WireGuard/peering endpoints.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := proxyconfig.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("lgproxy serve: %w", err)
	}

	logger := setupLogger(logLevel)
	logger.Info("starting lgproxy", "version", buildVersion, "bind_socket", cfg.BindSocket)

	var current atomic.Pointer[proxyconfig.Config]
	current.Store(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for range reload {
			fresh, err := proxyconfig.Load(cfgFile)
			if err != nil {
				logger.Error("reload failed, keeping previous config", "error", err)
				continue
			}
			current.Store(fresh)
			logger.Info("configuration reloaded")
		}
	}()

	handler := proxyhttp.NewMux(func() *proxyconfig.Config { return current.Load() }, logger)

	return httpserve.Run(ctx, cfg.Listen, handler, logger)
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
