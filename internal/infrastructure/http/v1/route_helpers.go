// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockflow/internal/infrastructure/http/v1/middleware"
)

// DocumentRouteHandler defines the routes every document handler serves.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	GetByNumber(c *gin.Context)
}

// RegisterDocumentRoutes registers the create and read routes of a document.
//
// Usage:
//
//	handler := handlers.NewPurchaseOrderHandler(base, cfg.Orders, cfg.Reception)
//	RegisterDocumentRoutes(api.Group("/orders"), handler, "orders")
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler, permission string) {
	group.GET("", middleware.RequirePermission(permission+":read"), handler.List)
	group.POST("", middleware.RequirePermission(permission+":create"), handler.Create)
	group.GET("/by-number/:number", middleware.RequirePermission(permission+":read"), handler.GetByNumber)
	group.GET("/:id", middleware.RequirePermission(permission+":read"), handler.Get)
}

// RegisterActivityRoute exposes the activity log of a document under /:id/activity.
func RegisterActivityRoute(group *gin.RouterGroup, handler gin.HandlerFunc, permission string) {
	if handler == nil {
		return
	}
	group.GET("/:id/activity", middleware.RequirePermission(permission+":read"), handler)
}
