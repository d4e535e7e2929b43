// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"retailcore/internal/domain/documents/adjustment"
	"retailcore/internal/domain/documents/opname"
	"retailcore/internal/domain/documents/purchaseorder"
	"retailcore/internal/domain/documents/unpacking"
	"retailcore/internal/infrastructure/http/v1/handlers"
	"retailcore/internal/infrastructure/http/v1/middleware"
	"retailcore/pkg/logger"
)

// Services groups the domain services exposed over HTTP.
type Services struct {
	Adjustments    *adjustment.Service
	Opnames        *opname.Service
	Unpackings     *unpacking.Service
	PurchaseOrders *purchaseorder.Service
	Stock          handlers.StockReader
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	Logger *logger.Logger

	// Tokens validates bearer tokens.
	Tokens middleware.TokenValidator

	Services Services

	// Idempotency enables replay of POST requests carrying Idempotency-Key. Nil disables it.
	Idempotency middleware.IdempotencyStore

	// HealthChecks are pinged by /health/ready.
	HealthChecks map[string]handlers.Pinger

	// Mode is the gin mode: gin.ReleaseMode, gin.DebugMode or gin.TestMode.
	Mode string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode == "" {
		cfg.Mode = gin.ReleaseMode
	}
	gin.SetMode(cfg.Mode)
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.Tokens))

	var mutating []gin.HandlerFunc
	if cfg.Idempotency != nil {
		mutating = append(mutating, middleware.Idempotency(cfg.Idempotency))
	}

	registerDocumentRoutes(api, cfg.Services, mutating)
	registerStockRoutes(api, cfg.Services)

	return router
}

// registerDocumentRoutes registers the four document kinds.
func registerDocumentRoutes(rg *gin.RouterGroup, svc Services, mutating []gin.HandlerFunc) {
	base := handlers.NewBaseHandler()

	if svc.Adjustments != nil {
		RegisterDocumentRoutes(rg.Group("/adjustments"), handlers.NewAdjustmentHandler(base, svc.Adjustments), mutating...)
	}
	if svc.Opnames != nil {
		RegisterDocumentRoutes(rg.Group("/opnames"), handlers.NewOpnameHandler(base, svc.Opnames), mutating...)
	}
	if svc.Unpackings != nil {
		RegisterDocumentRoutes(rg.Group("/unpackings"), handlers.NewUnpackingHandler(base, svc.Unpackings), mutating...)
	}
	if svc.PurchaseOrders != nil {
		RegisterDocumentRoutes(rg.Group("/purchase-orders"), handlers.NewPurchaseOrderHandler(base, svc.PurchaseOrders), mutating...)
	}
}

// registerStockRoutes registers the stock read endpoints.
func registerStockRoutes(rg *gin.RouterGroup, svc Services) {
	if svc.Stock == nil {
		return
	}
	h := handlers.NewStockHandler(handlers.NewBaseHandler(), svc.Stock)

	stocks := rg.Group("/stocks")
	{
		stocks.GET("", h.List)
		stocks.GET("/movements", h.Movements)
		stocks.GET("/stores/:storeId/products/:productId", h.Get)
		stocks.GET("/stores/:storeId/verify", h.VerifyLedger)
	}
}
