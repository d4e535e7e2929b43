// Package main is the entry point for the retailcore background worker. It
// relays the transactional outbox into asynq and processes the resulting tasks.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"retailcore/internal/config"
	"retailcore/internal/infrastructure/jobs"
	"retailcore/internal/infrastructure/storage/postgres"
	"retailcore/pkg/logger"
)

const purgeInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logger())
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log.WithComponent("worker")); err != nil {
		log.Fatalw("worker failed", "error", err)
	}
	log.Info("worker stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	ctx = logger.WithLogger(ctx, log)
	log.Infow("starting retailcore worker", "concurrency", cfg.WorkerConcurrency)

	pool, err := postgres.NewPool(ctx, cfg.Pool())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	txm := postgres.NewTxManager(pool).WithStatementTimeout(cfg.StatementTimeout)

	client := asynq.NewClient(cfg.AsynqRedis())
	defer func() { _ = client.Close() }()

	relay := postgres.NewOutboxRelay(txm, cfg.OutboxBatchSize, jobs.NewOutboxForwarder(client))
	worker := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   cfg.AsynqRedis(),
		Concurrency: cfg.WorkerConcurrency,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCancel(relay.Run(ctx, cfg.OutboxPollInterval))
	})
	g.Go(func() error {
		return ignoreCancel(worker.Run(ctx))
	})
	g.Go(func() error {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				n, err := relay.PurgePublished(ctx, cfg.OutboxRetention)
				if err != nil {
					log.Warnw("outbox purge failed", "error", err)
					continue
				}
				if n > 0 {
					log.Infow("purged published outbox messages", "count", n)
				}
			}
		}
	})

	return g.Wait()
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
