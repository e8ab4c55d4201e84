// Command worker runs Huddle's background loops: outbox delivery, the
// attendance expiry sweeper, calendar fan-out over RabbitMQ and outbox
// housekeeping. It serves liveness and readiness probes on
// WORKER_HEALTH_ADDR.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/felixgeelhaar/huddle/internal/app"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/huddle/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/huddle/pkg/config"
	"github.com/felixgeelhaar/huddle/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()
	if err := run(logger); err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init container: %w", err)
	}
	defer container.Close()

	w := &worker{cfg: cfg, c: container, logger: logger}
	if err := w.start(ctx); err != nil {
		return err
	}
	logger.Info("worker running")

	<-ctx.Done()
	logger.Info("shutting down worker")
	w.stop()
	logger.Info("worker stopped")
	return nil
}

type worker struct {
	cfg    *config.Config
	c      *app.Container
	logger *slog.Logger
	tasks  sync.WaitGroup
	closer []func()
}

// spawn runs fn until ctx ends. Cancellation is not reported as a failure.
func (w *worker) spawn(ctx context.Context, name string, fn func(context.Context) error) {
	w.tasks.Go(func() {
		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("worker task stopped", "task", name, "error", err)
		}
	})
}

// every calls fn on each tick of interval until ctx ends.
func (w *worker) every(ctx context.Context, name string, interval time.Duration, fn func(context.Context)) {
	if interval <= 0 {
		w.logger.Warn("periodic task disabled", "task", name)
		return
	}
	w.spawn(ctx, name, func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				fn(ctx)
			}
		}
	})
}

func (w *worker) start(ctx context.Context) error {
	if w.cfg.OutboxProcessorEnabled {
		if err := w.c.OutboxProcessor.Start(ctx); err != nil {
			return fmt.Errorf("start outbox processor: %w", err)
		}
		w.closer = append(w.closer, w.c.OutboxProcessor.Stop)
		if w.c.DBDriver == database.DriverPostgres {
			notifier := outbox.NewPostgresNotifier(w.cfg.DatabaseURL, w.c.OutboxProcessor, w.logger)
			w.spawn(ctx, "outbox-notifier", notifier.Run)
		}
	} else {
		w.logger.Info("outbox processor disabled")
	}

	// Schedule events reach the calendar fan-out through a durable queue
	// when RabbitMQ is configured; otherwise the in-process bus delivers
	// them.
	if w.c.RabbitPublisher != nil {
		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:    w.cfg.RabbitMQURL,
			Logger: w.logger,
		}, eventbus.NewConsumerRegistry(w.logger))
		if err != nil {
			return fmt.Errorf("rabbitmq consumer: %w", err)
		}
		consumer.RegisterConsumer(w.c.ScheduleSubscriber)
		w.closer = append(w.closer, func() { _ = consumer.Close() })
		w.spawn(ctx, "calendar-fanout", consumer.Start)
	}

	w.spawn(ctx, "attendance-sweeper", w.c.ExpirySweeper.Run)
	w.closer = append(w.closer, w.c.ExpirySweeper.Stop)

	w.every(ctx, "outbox-cleanup", w.cfg.OutboxCleanupInterval, w.cleanupOutbox)
	w.every(ctx, "outbox-stats", w.cfg.OutboxStatsInterval, w.logOutboxStats)

	if w.cfg.WorkerHealthAddr != "" {
		w.serveHealth(ctx)
	}
	return nil
}

func (w *worker) stop() {
	for i := len(w.closer) - 1; i >= 0; i-- {
		w.closer[i]()
	}
	w.tasks.Wait()
}

func (w *worker) cleanupOutbox(ctx context.Context) {
	deleted, err := w.c.OutboxRepo.DeleteOld(ctx, w.cfg.OutboxRetentionDays)
	if err != nil {
		w.logger.Error("outbox cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		w.logger.Info("outbox rows purged", "deleted", deleted, "retention_days", w.cfg.OutboxRetentionDays)
	}
}

func (w *worker) logOutboxStats(context.Context) {
	s := w.c.OutboxProcessor.GetStats()
	w.logger.Info("outbox stats",
		"running", s.IsRunning,
		"published", s.PublishedCount,
		"failed", s.FailedCount,
		"dead", s.DeadCount,
		"lag_seconds", s.LagSeconds,
		"last_error", s.LastError,
	)
}

func (w *worker) serveHealth(ctx context.Context) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /readyz", w.c.Health.Handler(2*time.Second))

	srv := &http.Server{
		Addr:              w.cfg.WorkerHealthAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	w.tasks.Go(func() {
		w.logger.Info("health server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.logger.Error("health server failed", "error", err)
		}
	})
	w.tasks.Go(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			w.logger.Warn("health server shutdown", "error", err)
		}
	})
}
