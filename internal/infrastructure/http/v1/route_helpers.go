package v1

import (
	"github.com/gin-gonic/gin"
)

// DocumentRouteHandler defines the handlers every document kind exposes.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	History(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Submit(c *gin.Context)
	Approve(c *gin.Context)
	Reject(c *gin.Context)
	Complete(c *gin.Context)
	TerminalAction() string
}

// RegisterDocumentRoutes registers CRUD and workflow routes for a document kind.
// mutating runs before every POST handler (idempotency).
//
// Usage:
//
//	handler := handlers.NewAdjustmentHandler(base, adjustmentService)
//	RegisterDocumentRoutes(api.Group("/adjustments"), handler, idem)
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler, mutating ...gin.HandlerFunc) {
	post := func(path string, h gin.HandlerFunc) {
		group.POST(path, append(mutating[:len(mutating):len(mutating)], h)...)
	}

	group.GET("", handler.List)
	post("", handler.Create)
	group.GET("/:id", handler.Get)
	group.GET("/:id/history", handler.History)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)

	post("/:id/submit", handler.Submit)
	post("/:id/approve", handler.Approve)
	post("/:id/reject", handler.Reject)
	post("/:id/"+handler.TerminalAction(), handler.Complete)
}
