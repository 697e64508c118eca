// importd is the import worker daemon. It polls for pending import jobs,
// runs the pipeline on each, exposes Prometheus metrics, and sweeps expired
// jobs on a daily schedule.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/nullroute-commits/financial-stronghold-sub002/internal/domain/import/dupdetect"
	"github.com/nullroute-commits/financial-stronghold-sub002/internal/domain/import/repository"
	"github.com/nullroute-commits/financial-stronghold-sub002/internal/domain/import/service"
	"github.com/nullroute-commits/financial-stronghold-sub002/internal/domain/import/validator"
	"github.com/nullroute-commits/financial-stronghold-sub002/internal/domain/intake"
	"github.com/nullroute-commits/financial-stronghold-sub002/internal/domain/ledger"
	"github.com/nullroute-commits/financial-stronghold-sub002/pkg/config"
	"github.com/nullroute-commits/financial-stronghold-sub002/pkg/cron"
	"github.com/nullroute-commits/financial-stronghold-sub002/pkg/db"
	"github.com/nullroute-commits/financial-stronghold-sub002/pkg/metrics"
	"github.com/nullroute-commits/financial-stronghold-sub002/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("importd exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// Best effort; absent .env is fine in containers
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	database, err := db.New(db.Config{
		DSN:             cfg.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := database.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	store, err := storage.New(&storage.Config{
		Type:      storage.BackendLocal,
		LocalPath: cfg.Storage.LocalPath,
	})
	if err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	importRepo := repository.NewPostgresImportRepository(database.Pool)
	ledgerRepo := ledger.NewPostgresRepository(database.Pool)

	svc := service.NewImportService(
		importRepo,
		ledgerRepo,
		store,
		intake.NewGate(cfg.Import.MaxFileSizeBytes, intake.NewPatternScanner(), logger),
		validator.New(),
		dupdetect.New(cfg.Import.DuplicateThreshold),
		service.NewSlogSink(logger),
		logger,
		m,
		otel.Tracer("importd"),
		cfg.Import,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := cron.NewScheduler(importRepo, cfg.Import.RetentionDays, logger)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer scheduler.Stop()

	var metricsServer *http.Server
	if cfg.Observability.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Observability.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("addr", metricsServer.Addr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", slog.Any("error", err))
			}
		}()
	}

	logger.Info("import worker started",
		slog.Duration("poll_interval", cfg.Worker.PollInterval),
		slog.Int("max_attempts", cfg.Worker.MaxAttempts),
	)
	pollJobs(ctx, svc, cfg.Worker, logger)

	logger.Info("shutting down")
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
		}
	}
	return nil
}

// pollJobs drains the pending queue on every tick until the context is
// cancelled. A job failure is logged and the loop moves on; the failed job
// stays visible in import_jobs with its error detail.
func pollJobs(ctx context.Context, svc *service.ImportService, cfg config.WorkerConfig, logger *slog.Logger) {
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for {
			jobID, err := svc.ProcessNext(ctx, cfg.MaxAttempts, cfg.RetryBackoff)
			if errors.Is(err, repository.ErrNoPendingJob) {
				break
			}
			if errors.Is(err, context.Canceled) {
				return
			}
			if err != nil {
				logger.Error("import job failed",
					slog.String("job_id", jobID.String()),
					slog.Any("error", err),
				)
				continue
			}
			logger.Info("import job completed", slog.String("job_id", jobID.String()))
		}
	}
}
