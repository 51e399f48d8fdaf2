package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"media_sync/internal/api"
	"media_sync/internal/config"
	"media_sync/internal/publisher"
	"media_sync/internal/scheduler"
	"media_sync/internal/service"
	"media_sync/internal/source/upstream"
	"media_sync/internal/storage/postgres"
	"media_sync/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Change events are optional
	var changes service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		changes = rabbitMQ
	}

	metricsProvider, err := telemetry.NewProvider(cfg.Metrics.Enabled)
	if err != nil {
		logger.Error("failed to set up metrics", "error", err)
		os.Exit(1)
	}
	defer metricsProvider.Shutdown()

	syncMetrics, err := telemetry.NewSyncMetrics(metricsProvider.MeterProvider)
	if err != nil {
		logger.Error("failed to create sync metrics", "error", err)
		os.Exit(1)
	}

	// Initialize stores
	mediaStore := postgres.NewMediaStore(db)
	syncStateStore := postgres.NewSyncStateStore(db)
	errorLogStore := postgres.NewErrorLogStore(db)
	txManager := postgres.NewTransactionManager(db)

	source := upstream.New(upstream.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Paths:   cfg.API.Paths,
	}, logger)

	syncService := service.NewSyncService(
		source,
		mediaStore,
		syncStateStore,
		errorLogStore,
		txManager,
		changes,
		logger,
		cfg.Sync,
		service.WithMetrics(syncMetrics),
	)

	sched := scheduler.NewScheduler(syncService, syncService, scheduler.Config{
		Frequent:    cfg.Schedule.Frequent,
		Hourly:      cfg.Schedule.Hourly,
		Maintenance: cfg.Schedule.Maintenance,
		RunTimeout:  cfg.Sync.RunTimeout,
	}, logger)

	opts := []api.ServerOption{api.WithMiddlewares(api.LoggingMiddleware(logger))}
	if metricsProvider.Handler != nil {
		opts = append(opts, api.WithMetricsHandler(metricsProvider.Handler))
	}
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewServer(sched, syncService, db, logger, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting media syncer",
		"source", source.Name(),
		"kinds", cfg.Sync.Kinds,
		"addr", cfg.HTTP.Addr,
		"publisher_enabled", cfg.RabbitMQ.Enabled,
		"metrics_enabled", cfg.Metrics.Enabled,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := sched.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("syncer error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
