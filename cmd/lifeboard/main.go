package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"lifeboard/internal/amqp"
	"lifeboard/internal/config"
	apphttp "lifeboard/internal/http"
	applog "lifeboard/internal/log"
	"lifeboard/internal/records"
	"lifeboard/internal/services"
	"lifeboard/internal/storage"
)

func main() {
	// Load .env for local development; absent in production is fine.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting lifeboard")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	var store records.Store
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository",
				applog.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		store = repo
		logger.Info("SQLite backend initialized", "path", cfg.SQLiteDBPath)
	default:
		store = records.NewMemoryStore()
		logger.Info("Memory backend initialized")
	}

	// AMQP is optional: without it, stale snapshots are simply recomputed
	// on read instead of being refreshed by the worker.
	var bus services.RefreshPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.OwnerID)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without refresh bus",
				applog.FieldError, err.Error())
		} else {
			defer client.Close()
			bus = client
			logger.Info("AMQP client initialized",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	dashboard := services.NewDashboard(store, bus, services.DashboardOptions{
		DeadlineWindowHours: cfg.DeadlineWindowHours,
		HistoryLimit:        cfg.HistoryLimit,
		Locale:              cfg.Locale,
		CacheSize:           cfg.CacheSize,
		CacheTTL:            cfg.CacheTTL,
	})

	server := apphttp.NewServer(cfg.Port, dashboard, cfg.OwnerID, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", applog.FieldError, err.Error())
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", applog.FieldError, err.Error())
			os.Exit(1)
		}
	}

	logger.Info("Stopped")
}
