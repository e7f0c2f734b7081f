package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/predictionmetrics/marketshare/internal/config"
	"github.com/predictionmetrics/marketshare/internal/dune"
	"github.com/predictionmetrics/marketshare/internal/platform/kalshi"
	"github.com/predictionmetrics/marketshare/internal/platform/polymarket"
	"github.com/predictionmetrics/marketshare/internal/server"
	"github.com/predictionmetrics/marketshare/internal/share"
	"github.com/predictionmetrics/marketshare/internal/storage"
	"github.com/predictionmetrics/marketshare/internal/storage/memory"
	"github.com/predictionmetrics/marketshare/internal/storage/migrations"
	"github.com/predictionmetrics/marketshare/internal/storage/postgres"
	"github.com/predictionmetrics/marketshare/internal/tracker"
	"github.com/predictionmetrics/marketshare/internal/upstream"
	"github.com/predictionmetrics/marketshare/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/server.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting marketshare server",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"tracked_markets", len(cfg.Markets),
		"warehouse_enabled", cfg.Warehouse.APIKey != "",
		"database_enabled", cfg.Database.Enabled(),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Storage: Postgres when configured, in-memory otherwise
	var marketStore storage.MarketStore
	var userStore storage.UserStore
	if cfg.Database.Enabled() {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)
		pool, err := postgres.NewPool(ctx, cfg.Database.DSN())
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := migrations.Run(ctx, pool); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("database connected")

		marketStore = postgres.NewMarketStore(pool)
		userStore = postgres.NewUserStore(pool)
	} else {
		logger.Info("no database configured, using in-memory storage")
		marketStore = memory.NewMarketStore()
		userStore = memory.NewUserStore()
	}

	// Upstream platform adapters
	upstreamOpts := []upstream.Option{
		upstream.WithTimeout(cfg.Upstream.Timeout),
		upstream.WithRetries(cfg.Upstream.MaxRetries, time.Second),
		upstream.WithLogger(logger),
	}
	kalshiAdapter := kalshi.New(cfg.Upstream.KalshiURL, logger, upstreamOpts...)
	polymarketAdapter := polymarket.New(cfg.Upstream.PolymarketURL, logger, upstreamOpts...)

	warehouse := dune.New(cfg.Warehouse.BaseURL, cfg.Warehouse.APIKey, logger,
		dune.WithUpstreamOptions(upstreamOpts...))

	// Domain services
	shares := share.NewService(kalshiAdapter, polymarketAdapter, warehouse,
		cfg.Warehouse.QueryID, logger, share.Options{
			CacheTTL: cfg.Cache.TTL,
		})

	marketTracker := tracker.New(cfg.Markets, polymarketAdapter, marketStore, logger)
	go marketTracker.Run(ctx, cfg.Tracker.SyncInterval)

	srv := server.New(
		shares,
		[]server.TopMarketSource{kalshiAdapter, polymarketAdapter},
		marketTracker,
		userStore,
		logger,
		server.Config{
			RefreshInterval: cfg.Server.RefreshInterval,
			MockMode:        cfg.Server.MockMode,
		},
	)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down...")
		if err := srv.Shutdown(); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("server listening", "addr", cfg.Server.Addr())
	if err := srv.Listen(ctx, cfg.Server.Addr()); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
