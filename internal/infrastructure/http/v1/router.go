package v1

import (
	"github.com/gin-gonic/gin"

	po "stockflow/internal/domain/documents/purchase_order"
	sr "stockflow/internal/domain/documents/supplier_return"
	"stockflow/internal/infrastructure/http/v1/handlers"
	"stockflow/internal/infrastructure/http/v1/middleware"
	"stockflow/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// DB backs the readiness probe
	DB handlers.Pinger

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	Orders    handlers.OrderService
	Reception handlers.ReceptionService
	Returns   handlers.ReturnService
	Ledger    handlers.StockReader

	// Activity is optional; activity routes are omitted when nil.
	Activity handlers.ActivityReader

	// Debug keeps gin in debug mode.
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.DB)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTValidator))

	base := handlers.NewBaseHandler()
	registerOrderRoutes(api.Group("/orders"), base, cfg)
	registerReturnRoutes(api.Group("/returns"), base, cfg)
	registerStockRoutes(api.Group("/stock"), base, cfg)

	return router
}

func activityHandler(base *handlers.BaseHandler, cfg RouterConfig, entityKind string) gin.HandlerFunc {
	if cfg.Activity == nil {
		return nil
	}
	return handlers.NewActivityHandler(base, cfg.Activity, entityKind).List
}

// registerOrderRoutes registers purchase order and reception endpoints.
func registerOrderRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewPurchaseOrderHandler(base, cfg.Orders, cfg.Reception)

	RegisterDocumentRoutes(rg, handler, "orders")
	RegisterActivityRoute(rg, activityHandler(base, cfg, po.EntityKind), "orders")

	rg.POST("/:id/status", middleware.RequirePermission("orders:update"), handler.SetStatus)
	rg.POST("/:id/receive", middleware.RequirePermission("orders:receive"), handler.Receive)
	rg.POST("/:id/complete-reception", middleware.RequirePermission("orders:receive"), handler.CompleteReception)
}

// registerReturnRoutes registers supplier return endpoints.
func registerReturnRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewSupplierReturnHandler(base, cfg.Returns)

	RegisterDocumentRoutes(rg, handler, "returns")
	RegisterActivityRoute(rg, activityHandler(base, cfg, sr.EntityKind), "returns")

	rg.POST("/draft", middleware.RequirePermission("returns:create"), handler.SaveDraft)
	rg.PUT("/:id", middleware.RequirePermission("returns:update"), handler.UpdateDraft)
	rg.DELETE("/:id", middleware.RequirePermission("returns:delete"), handler.Delete)
	rg.GET("/:id/history", middleware.RequirePermission("returns:read"), handler.History)

	update := middleware.RequirePermission("returns:update")
	rg.POST("/:id/submit", update, handler.Submit)
	rg.POST("/:id/approve", middleware.RequirePermission("returns:approve"), handler.Approve)
	rg.POST("/:id/ship", update, handler.Ship)
	rg.POST("/:id/receive", update, handler.MarkReceived)
	rg.POST("/:id/complete", update, handler.Complete)
	rg.POST("/:id/cancel", update, handler.Cancel)
	rg.POST("/:id/status", update, handler.SetStatus)

	rg.POST("/:id/items/:itemId/action", middleware.RequirePermission("returns:process"), handler.ItemAction)
}

// registerStockRoutes registers stock ledger endpoints.
func registerStockRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewStockHandler(base, cfg.Ledger)
	rg.GET("/:productId/movements", middleware.RequirePermission("stock:read"), handler.Movements)
}
