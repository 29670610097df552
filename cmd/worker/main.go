// Package main is the entry point for the retailops outbox worker. It relays
// domain events recorded in sys_outbox to Kafka and cleans up expired state.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"retailops/internal/config"
	"retailops/internal/infrastructure/messaging/kafka"
	"retailops/internal/infrastructure/metrics"
	"retailops/internal/infrastructure/storage/postgres"
	"retailops/pkg/logger"
)

const (
	cleanupInterval    = time.Hour
	publishedRetention = 7 * 24 * time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.App.Storage != config.StoragePostgres {
		fmt.Println("worker requires STORAGE=postgres")
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting retailops outbox worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.Postgres.DSN)
	poolCfg.ApplicationName = "retailops-worker"
	poolCfg.MaxConns = 5
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	writer := kafka.NewWriter(kafka.Config{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.Topic,
		BatchTimeout: cfg.Kafka.BatchTimeout,
	})
	publisher := kafka.NewOutboxPublisher(writer, kafka.NewBreaker(kafka.DefaultBreakerConfig("kafka-outbox")))
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warnw("failed to close kafka writer", "error", err)
		}
	}()

	m := metrics.New("retailops_worker")
	txManager := postgres.NewTxManager(pool)
	w := &Worker{
		relay:        postgres.NewOutboxRelay(txManager, cfg.Outbox.BatchSize, cfg.Outbox.MaxRetries, &observedHandler{next: publisher, metrics: m}),
		idempotency:  postgres.NewIdempotencyStore(txManager, cfg.Idempotency.TTL),
		pool:         pool,
		pollInterval: cfg.Outbox.PollInterval,
		log:          log.WithComponent("outbox-worker"),
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           metricsMux(cfg.App.MetricsPath, m),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("metrics server failed", "error", err)
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()
	wg.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = metricsServer.Shutdown(shutdownCtx)

	log.Info("worker stopped")
}

func metricsMux(path string, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	return mux
}

// observedHandler records the outcome of every delivery.
type observedHandler struct {
	next    postgres.OutboxHandler
	metrics *metrics.Metrics
}

func (h *observedHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	err := h.next.Handle(ctx, msg)
	h.metrics.ObserveOutbox(msg.EventType, err)
	return err
}

// Worker polls the outbox and runs periodic cleanup.
type Worker struct {
	relay        *postgres.OutboxRelay
	idempotency  *postgres.IdempotencyStore
	pool         *postgres.Pool
	pollInterval time.Duration
	log          *logger.Logger
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(cleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		}
	}
}

// drain processes full batches back to back until the outbox runs dry.
func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			w.log.Errorw("outbox batch failed", "error", err)
			return
		}
		if n > 0 {
			w.log.Debugw("published outbox batch", "count", n)
		}
		if n == 0 {
			return
		}
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	if n, err := w.relay.MoveToDLQ(ctx); err != nil {
		w.log.Errorw("move to DLQ failed", "error", err)
	} else if n > 0 {
		w.log.Warnw("moved failed outbox messages to DLQ", "count", n)
	}

	if n, err := w.relay.PurgePublished(ctx, publishedRetention); err != nil {
		w.log.Errorw("purge outbox failed", "error", err)
	} else if n > 0 {
		w.log.Infow("purged published outbox messages", "count", n)
	}

	if n, err := w.idempotency.CleanupExpired(ctx); err != nil {
		w.log.Errorw("idempotency cleanup failed", "error", err)
	} else if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}

	w.pool.LogStats(ctx)
}
