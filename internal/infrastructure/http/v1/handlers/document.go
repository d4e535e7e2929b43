package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"retailcore/internal/core/id"
	"retailcore/internal/core/security"
	"retailcore/internal/domain"
	"retailcore/internal/infrastructure/http/v1/dto"
)

// DocumentOps is the workflow surface shared by all document services.
type DocumentOps[T domain.Document] interface {
	Get(ctx context.Context, tenantID, docID id.ID) (T, error)
	List(ctx context.Context, tenantID id.ID, filter domain.ListFilter) (domain.ListResult[T], error)
	Delete(ctx context.Context, tenantID, docID id.ID, actor security.Actor) error
	Submit(ctx context.Context, tenantID, docID id.ID, actor security.Actor) (T, error)
	Approve(ctx context.Context, tenantID, docID id.ID, actor security.Actor) (T, error)
	Reject(ctx context.Context, tenantID, docID id.ID, actor security.Actor, reason string) (T, error)
	History(ctx context.Context, tenantID, docID id.ID, limit int) ([]domain.AuditEntry, error)
}

// DocumentHandler serves one document kind. Create, Update and the terminal
// transition differ per kind and are supplied as functions.
type DocumentHandler[T domain.Document, C any, U any] struct {
	*BaseHandler
	ops      DocumentOps[T]
	terminal string

	create   func(ctx context.Context, tenantID id.ID, actor security.Actor, req C) (T, error)
	update   func(ctx context.Context, tenantID, docID id.ID, actor security.Actor, req U) (T, error)
	complete func(c *gin.Context, tenantID, docID id.ID, actor security.Actor) (T, error)
}

// DocumentHandlerConfig configures a DocumentHandler.
type DocumentHandlerConfig[T domain.Document, C any, U any] struct {
	Ops DocumentOps[T]
	// Terminal is the path segment of the stock-mutating transition, e.g. "apply".
	Terminal string
	Create   func(ctx context.Context, tenantID id.ID, actor security.Actor, req C) (T, error)
	Update   func(ctx context.Context, tenantID, docID id.ID, actor security.Actor, req U) (T, error)
	Complete func(c *gin.Context, tenantID, docID id.ID, actor security.Actor) (T, error)
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler[T domain.Document, C any, U any](base *BaseHandler, cfg DocumentHandlerConfig[T, C, U]) *DocumentHandler[T, C, U] {
	return &DocumentHandler[T, C, U]{
		BaseHandler: base,
		ops:         cfg.Ops,
		terminal:    cfg.Terminal,
		create:      cfg.Create,
		update:      cfg.Update,
		complete:    cfg.Complete,
	}
}

// TerminalAction returns the path segment of the terminal transition.
func (h *DocumentHandler[T, C, U]) TerminalAction() string {
	return h.terminal
}

// List handles GET /{kind}
func (h *DocumentHandler[T, C, U]) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.ops.List(c.Request.Context(), actor.TenantID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /{kind}/:id
func (h *DocumentHandler[T, C, U]) Get(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	doc, err := h.ops.Get(c.Request.Context(), actor.TenantID, docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// History handles GET /{kind}/:id/history
func (h *DocumentHandler[T, C, U]) History(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var q dto.HistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}

	entries, err := h.ops.History(c.Request.Context(), actor.TenantID, docID, q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}

// Create handles POST /{kind}
func (h *DocumentHandler[T, C, U]) Create(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req C
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.create(c.Request.Context(), actor.TenantID, actor, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// Update handles PUT /{kind}/:id
func (h *DocumentHandler[T, C, U]) Update(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req U
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.update(c.Request.Context(), actor.TenantID, docID, actor, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Delete handles DELETE /{kind}/:id
func (h *DocumentHandler[T, C, U]) Delete(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.ops.Delete(c.Request.Context(), actor.TenantID, docID, actor); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Submit handles POST /{kind}/:id/submit
func (h *DocumentHandler[T, C, U]) Submit(c *gin.Context) {
	h.transition(c, func(ctx context.Context, tenantID, docID id.ID, actor security.Actor) (T, error) {
		return h.ops.Submit(ctx, tenantID, docID, actor)
	})
}

// Approve handles POST /{kind}/:id/approve
func (h *DocumentHandler[T, C, U]) Approve(c *gin.Context) {
	h.transition(c, func(ctx context.Context, tenantID, docID id.ID, actor security.Actor) (T, error) {
		return h.ops.Approve(ctx, tenantID, docID, actor)
	})
}

// Reject handles POST /{kind}/:id/reject
func (h *DocumentHandler[T, C, U]) Reject(c *gin.Context) {
	var req dto.RejectRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.transition(c, func(ctx context.Context, tenantID, docID id.ID, actor security.Actor) (T, error) {
		return h.ops.Reject(ctx, tenantID, docID, actor, req.Reason)
	})
}

// Complete handles POST /{kind}/:id/{apply|finalize|process|receive}
func (h *DocumentHandler[T, C, U]) Complete(c *gin.Context) {
	h.transition(c, func(_ context.Context, tenantID, docID id.ID, actor security.Actor) (T, error) {
		return h.complete(c, tenantID, docID, actor)
	})
}

func (h *DocumentHandler[T, C, U]) transition(c *gin.Context, fn func(ctx context.Context, tenantID, docID id.ID, actor security.Actor) (T, error)) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	doc, err := fn(c.Request.Context(), actor.TenantID, docID, actor)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}
