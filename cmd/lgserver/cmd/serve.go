package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/el-ev/bird-lg-go/internal/hub"
	"github.com/el-ev/bird-lg-go/internal/httpserve"
	"github.com/el-ev/bird-lg-go/internal/poller"
	"github.com/el-ev/bird-lg-go/internal/router"
	"github.com/el-ev/bird-lg-go/internal/serverconfig"
	"github.com/el-ev/bird-lg-go/internal/serverhttp"
	"github.com/el-ev/bird-lg-go/internal/snapshot"
	"github.com/el-ev/bird-lg-go/internal/wire"
	"github.com/el-ev/bird-lg-go/internal/wsproto"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the aggregator HTTP/WebSocket server",
	Long:  "Load the server configuration, start the node poller, and serve the /api HTTP surface and the /api/ws WebSocket endpoint.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := serverconfig.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("lgserver serve: %w", err)
	}

	logger := setupLogger(logLevel)
	logger.Info("starting lgserver", "version", buildVersion, "nodes", len(cfg.Nodes))

	store := snapshot.New()
	broadcast := hub.New()
	tracker := wsproto.NewTracker()
	cmdRouter := router.New()

	p := poller.New(cfg.Nodes, cfg.IdleTimeout(), tracker, store, broadcast, logger)

	dispatcher := &wsproto.Dispatcher{Router: cmdRouter, Store: store, Nodes: cfg.Nodes}

	wsHandler := &wsproto.Handler{
		Hub:     broadcast,
		Tracker: tracker,
		Runner:  dispatcher,
		Logger:  logger,
		Snapshot: func() wire.AppResponse {
			return wire.Protocols(store.All())
		},
	}

	mux := &serverhttp.Mux{
		Store:   store,
		Router:  cmdRouter,
		Nodes:   cfg.Nodes,
		Network: cfg.Network,
		WS:      wsHandler,
		Touch:   tracker,
		Logger:  logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("poller stopped", "error", err)
		}
	}()

	return httpserve.Run(ctx, cfg.Listen, mux.Handler(), logger)
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
