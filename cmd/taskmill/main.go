// Command taskmill runs the background task execution engine: it connects
// to Postgres, applies schema migrations, and drives a fixed pool of workers
// against the durable task queue. Job submission and status queries are
// served by a separate system; this process only executes.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/nats-io/nats.go"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mhutter/taskmill/internal/api"
	"github.com/mhutter/taskmill/internal/config"
	"github.com/mhutter/taskmill/internal/engine"
	"github.com/mhutter/taskmill/internal/events"
	"github.com/mhutter/taskmill/internal/platform/logger"
	"github.com/mhutter/taskmill/internal/platform/postgres"
	"github.com/mhutter/taskmill/migrations"
)

const dbConnectTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	log.Info("starting taskmill",
		"worker_count", cfg.Engine.WorkerCount,
		"queue_polling_delay", cfg.Engine.QueuePollingDelay)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	log.Info("database connected")

	if err := migrate(db); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	queue := postgres.NewTaskQueueStore(db)

	registry := engine.NewRegistry()
	registerBuiltinProcessors(registry)

	enablement := engine.NewEnablement()

	sink := buildSink(cfg.Events, log)

	pool, err := engine.NewPool(queue, registry, enablement, sink, engine.PoolConfig{
		WorkerCount:       cfg.Engine.WorkerCount,
		QueuePollingDelay: cfg.Engine.QueuePollingDelay,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}

	reaper := engine.NewReaper(queue, engine.ReaperConfig{
		InitialDelay: cfg.Engine.CleanupInitialDelay,
		Interval:     cfg.Engine.CleanupInterval,
		ClaimAge:     cfg.Engine.ClaimAge,
	}, log)

	admin := api.NewAdminHandler(pool, enablement, log)
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           admin.Router(prometheus.DefaultGatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}

	pool.Start()
	reaper.Start()

	go func() {
		log.Info("admin server listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("admin server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("admin server shutdown failed", "error", err)
	}

	// In-flight invocations run to completion, finalize included.
	pool.Stop()
	reaper.Stop()

	log.Info("taskmill stopped")
	return nil
}

func openDatabase(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dbConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.Up(db, ".")
}

// buildSink assembles the lifecycle event sinks: structured logs and
// Prometheus metrics always, NATS publishing when configured. A NATS
// connection failure downgrades to the remaining sinks rather than aborting
// startup.
func buildSink(cfg config.EventsConfig, log *slog.Logger) events.Sink {
	sinks := []events.Sink{
		events.NewLogSink(log),
		events.NewMetricsSink(prometheus.DefaultRegisterer),
	}

	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Warn("NATS not available, lifecycle events will not be published",
				"url", cfg.NATSURL,
				"error", err)
		} else {
			log.Info("NATS connected", "url", cfg.NATSURL)
			sinks = append(sinks, events.NewNATSSink(nc, log))
		}
	}

	return events.NewMultiSink(sinks...)
}
