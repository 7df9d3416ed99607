package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/docstudio/internal/bootstrap"
	"github.com/kirillkom/docstudio/internal/config"
	"github.com/kirillkom/docstudio/internal/core/ports"
	"github.com/kirillkom/docstudio/internal/observability/logging"
	"github.com/kirillkom/docstudio/internal/observability/metrics"
)

const serviceName = "docstudio-worker"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("dotenv_load_failed", "error", err)
		os.Exit(1)
	}
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	if cfg.NATSURL == "" {
		logger.Error("worker_requires_nats", "hint", "set NATS_URL")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: serviceName})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.OutputEventsSubject, "metrics_addr", metricsServer.Addr)
	err = app.Events.SubscribeOutputReady(ctx, func(handlerCtx context.Context, event ports.OutputReadyEvent) error {
		if !event.CreatedAt.IsZero() {
			workerMetrics.ObserveQueueLag(serviceName, time.Since(event.CreatedAt))
		}

		renderCtx, cancel := context.WithTimeout(handlerCtx, cfg.BackendTimeout())
		defer cancel()

		start := time.Now()
		workerMetrics.StartPrerender()
		status, err := app.PreviewUC.Prerender(renderCtx, event)
		workerMetrics.FinishPrerender(serviceName, status, time.Since(start))
		if err != nil {
			return err
		}
		logger.Info("preview_prerendered", "session_id", event.SessionID, "download_id", event.DownloadID, "status", status)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
