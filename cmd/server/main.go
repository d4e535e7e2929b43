// Package main is the entry point for the retailcore API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"retailcore/internal/config"
	"retailcore/internal/core/security"
	"retailcore/internal/domain"
	"retailcore/internal/domain/auth"
	"retailcore/internal/domain/documents/adjustment"
	"retailcore/internal/domain/documents/opname"
	"retailcore/internal/domain/documents/purchaseorder"
	"retailcore/internal/domain/documents/unpacking"
	"retailcore/internal/domain/registers/stock"
	"retailcore/internal/infrastructure/cache"
	v1 "retailcore/internal/infrastructure/http/v1"
	"retailcore/internal/infrastructure/http/v1/handlers"
	"retailcore/internal/infrastructure/numerator"
	"retailcore/internal/infrastructure/storage/postgres"
	"retailcore/internal/infrastructure/storage/postgres/document_repo"
	"retailcore/internal/infrastructure/storage/postgres/register_repo"
	"retailcore/pkg/logger"
)

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

	if err := run(ctx, cfg, log); err != nil {
		log.Fatalw("server failed", "error", err)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	log.Infow("starting retailcore server", "env", cfg.AppEnv, "addr", cfg.HTTPAddr)

	pool, err := postgres.NewPool(ctx, cfg.Pool())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	postgres.LogPoolStats(ctx, pool.Pool)

	rdb, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() { _ = rdb.Close() }()

	txm := postgres.NewTxManager(pool).WithStatementTimeout(cfg.StatementTimeout)

	policy := security.MustDefaultPolicy()
	if cfg.ApproverRule != "" {
		if err := policy.SetRule(security.CapabilityApprove, cfg.ApproverRule); err != nil {
			return fmt.Errorf("approver rule: %w", err)
		}
	}

	audit, err := postgres.NewAuditStore(txm)
	if err != nil {
		return fmt.Errorf("audit store: %w", err)
	}
	outbox := postgres.NewOutboxPublisher(txm)
	stockSvc := stock.NewService(register_repo.NewStockRepo(txm), txm, outbox)

	deps := domain.Deps{
		TxManager:  txm,
		Numerator:  numerator.New(txm, cfg.Numbering()),
		Authorizer: policy,
		Stock:      stockSvc,
		Publisher:  outbox,
		Audit:      audit,
	}

	tokens := auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret))

	mode := gin.DebugMode
	if cfg.IsProduction() {
		mode = gin.ReleaseMode
	}

	router := v1.NewRouter(v1.RouterConfig{
		Logger: log,
		Tokens: tokens,
		Services: v1.Services{
			Adjustments:    adjustment.NewService(deps, document_repo.NewAdjustmentRepo(txm)),
			Opnames:        opname.NewService(deps, document_repo.NewOpnameRepo(txm)),
			Unpackings:     unpacking.NewService(deps, document_repo.NewUnpackingRepo(txm)),
			PurchaseOrders: purchaseorder.NewService(deps, document_repo.NewPurchaseOrderRepo(txm)),
			Stock:          stockSvc,
		},
		Idempotency: cache.NewIdempotencyStore(rdb, cfg.IdempotencyTTL),
		HealthChecks: map[string]handlers.Pinger{
			"postgres": pool,
			"redis": handlers.PingFunc(func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			}),
		},
		Mode: mode,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
