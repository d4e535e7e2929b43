package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/registers/stock"
	"retailcore/internal/infrastructure/http/v1/dto"
)

// StockReader is the read side of the stock service.
type StockReader interface {
	GetStock(ctx context.Context, tenantID, storeID, productID id.ID) (*entity.Stock, error)
	ListStock(ctx context.Context, tenantID id.ID, filter stock.BalanceFilter) ([]entity.Stock, error)
	ListMovements(ctx context.Context, tenantID id.ID, filter stock.MovementFilter) ([]entity.StockMovement, error)
	VerifyLedger(ctx context.Context, tenantID, storeID id.ID) ([]stock.Drift, error)
}

// StockHandler serves stock balances and the movement ledger.
type StockHandler struct {
	*BaseHandler
	service StockReader
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service StockReader) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// List handles GET /stocks
func (h *StockHandler) List(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var q dto.StockQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	rows, err := h.service.ListStock(c.Request.Context(), actor.TenantID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	if rows == nil {
		rows = []entity.Stock{}
	}
	h.OK(c, gin.H{"items": rows})
}

// Get handles GET /stocks/:storeId/:productId
func (h *StockHandler) Get(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	storeID, ok := h.ParamID(c, "storeId")
	if !ok {
		return
	}
	productID, ok := h.ParamID(c, "productId")
	if !ok {
		return
	}

	row, err := h.service.GetStock(c.Request.Context(), actor.TenantID, storeID, productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, row)
}

// Movements handles GET /stocks/movements
func (h *StockHandler) Movements(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var q dto.MovementQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	moves, err := h.service.ListMovements(c.Request.Context(), actor.TenantID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	if moves == nil {
		moves = []entity.StockMovement{}
	}
	h.OK(c, gin.H{"items": moves})
}

// VerifyLedger handles GET /stocks/:storeId/verify
func (h *StockHandler) VerifyLedger(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	storeID, ok := h.ParamID(c, "storeId")
	if !ok {
		return
	}

	drift, err := h.service.VerifyLedger(c.Request.Context(), actor.TenantID, storeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if drift == nil {
		drift = []stock.Drift{}
	}
	h.OK(c, gin.H{"consistent": len(drift) == 0, "drift": drift})
}
