// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"retailops/internal/domain/auth"
	"retailops/internal/infrastructure/http/v1/handlers"
	"retailops/internal/infrastructure/http/v1/middleware"
	"retailops/internal/infrastructure/idempotency"
	"retailops/internal/infrastructure/metrics"
	"retailops/pkg/logger"
)

// RouterConfig holds router dependencies. Optional fields may be nil.
type RouterConfig struct {
	Sales     handlers.SaleService
	Purchases handlers.PurchaseService
	Returns   handlers.ReturnService
	Inventory handlers.InventoryService

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator enables bearer authentication and role checks when set.
	JWTValidator middleware.JWTValidator

	// Idempotency enables X-Idempotency-Key handling on POST routes when set.
	Idempotency idempotency.Store

	// Metrics exposes MetricsPath and instruments every request when set.
	Metrics     *metrics.Metrics
	MetricsPath string

	// HealthChecks are pinged by /health/ready.
	HealthChecks map[string]handlers.Pinger

	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.GinMiddleware())
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(cfg.Metrics.Handler()))
	}
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	api := router.Group("/api/v1")
	if cfg.JWTValidator != nil {
		api.Use(middleware.Auth(cfg.JWTValidator))
	}
	if cfg.Idempotency != nil {
		api.Use(middleware.Idempotency(cfg.Idempotency))
	}

	registerSalesRoutes(api, cfg)
	registerPurchaseRoutes(api, cfg)
	registerReturnRoutes(api, cfg)
	registerInventoryRoutes(api, cfg)

	return router
}

// roles guards a route when authentication is enabled.
func roles(cfg RouterConfig, allowed []string) gin.HandlerFunc {
	if cfg.JWTValidator == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RequireRoles(allowed...)
}

func registerSalesRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Sales == nil {
		return
	}
	h := handlers.NewSalesHandler(cfg.Sales)
	g := rg.Group("/sales")
	g.POST("", roles(cfg, auth.SalesRoles), h.Create)
	g.GET("", roles(cfg, auth.ReadRoles), h.List)
	g.GET("/:id", roles(cfg, auth.ReadRoles), h.Get)
}

func registerPurchaseRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Purchases == nil {
		return
	}
	h := handlers.NewPurchasesHandler(cfg.Purchases)
	g := rg.Group("/purchases")
	g.POST("", roles(cfg, auth.PurchasingRoles), h.Create)
	g.GET("", roles(cfg, auth.ReadRoles), h.List)
	g.GET("/:id", roles(cfg, auth.ReadRoles), h.Get)
}

func registerReturnRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Returns == nil {
		return
	}
	h := handlers.NewReturnsHandler(cfg.Returns)
	g := rg.Group("/returns")
	g.POST("", roles(cfg, auth.SalesRoles), h.Create)
	g.GET("", roles(cfg, auth.ReadRoles), h.List)
	g.GET("/:id", roles(cfg, auth.ReadRoles), h.Get)
}

func registerInventoryRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Inventory == nil {
		return
	}
	h := handlers.NewInventoryHandler(cfg.Inventory)
	g := rg.Group("/inventory/products/:id")
	g.GET("/stock", roles(cfg, auth.ReadRoles), h.Stock)
	g.GET("/movements", roles(cfg, auth.ReadRoles), h.ListMovements)
	g.POST("/movements", roles(cfg, auth.InventoryRoles), h.RecordMovement)
}
