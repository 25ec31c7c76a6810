package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"lifeboard/internal/amqp"
	"lifeboard/internal/config"
	"lifeboard/internal/export/google"
	applog "lifeboard/internal/log"
	"lifeboard/internal/records"
	"lifeboard/internal/services"
	"lifeboard/internal/storage"
	"lifeboard/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting lifeboard worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
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
	default:
		store = records.NewMemoryStore()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.OwnerID)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer client.Close()

	// The worker rebuilds snapshots itself, so it never publishes refreshes.
	dashboard := services.NewDashboard(store, nil, services.DashboardOptions{
		DeadlineWindowHours: cfg.DeadlineWindowHours,
		HistoryLimit:        cfg.HistoryLimit,
		Locale:              cfg.Locale,
		CacheSize:           cfg.CacheSize,
		CacheTTL:            cfg.CacheTTL,
	})

	var exporter worker.SnapshotExporter
	if cfg.GoogleSpreadsheetID != "" {
		exp, err := google.NewFromEnv(ctx)
		if err != nil {
			logger.Warn("Failed to initialize Google Sheets exporter, continuing without export",
				applog.FieldError, err.Error())
		} else {
			exporter = exp
			logger.Info("Google Sheets exporter initialized")
		}
	}

	snapshotWorker := worker.NewSnapshotWorker(dashboard, store, exporter, cfg.OwnerID)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeSnapshotRefresh(ctx, func(msg *amqp.SnapshotRefreshMessage) error {
			return snapshotWorker.HandleRefreshMessage(ctx, msg)
		})
	})
	g.Go(func() error {
		return snapshotWorker.RunNightly(ctx, cfg.SnapshotInterval)
	})

	logger.Info("Worker running",
		"queue", cfg.AMQPQueue, "interval", cfg.SnapshotInterval.String())

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker stopped", applog.FieldError, err.Error())
		os.Exit(1)
	}

	logger.Info("Stopped")
}
