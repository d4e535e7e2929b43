package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/core/security"
	"retailcore/internal/domain/documents/adjustment"
	"retailcore/internal/domain/documents/opname"
	"retailcore/internal/domain/documents/purchaseorder"
	"retailcore/internal/domain/documents/unpacking"
	"retailcore/internal/infrastructure/http/v1/dto"
)

// NewAdjustmentHandler serves /adjustments.
func NewAdjustmentHandler(base *BaseHandler, svc *adjustment.Service) *DocumentHandler[*adjustment.StockAdjustment, dto.CreateAdjustmentRequest, dto.UpdateAdjustmentRequest] {
	return NewDocumentHandler(base, DocumentHandlerConfig[*adjustment.StockAdjustment, dto.CreateAdjustmentRequest, dto.UpdateAdjustmentRequest]{
		Ops:      svc,
		Terminal: "apply",
		Create: func(ctx context.Context, tenantID id.ID, actor security.Actor, req dto.CreateAdjustmentRequest) (*adjustment.StockAdjustment, error) {
			return svc.Create(ctx, tenantID, actor, req.ToInput())
		},
		Update: func(ctx context.Context, tenantID, docID id.ID, actor security.Actor, req dto.UpdateAdjustmentRequest) (*adjustment.StockAdjustment, error) {
			return svc.Update(ctx, tenantID, docID, actor, req.ToInput())
		},
		Complete: func(c *gin.Context, tenantID, docID id.ID, actor security.Actor) (*adjustment.StockAdjustment, error) {
			return svc.Apply(c.Request.Context(), tenantID, docID, actor)
		},
	})
}

// NewOpnameHandler serves /opnames.
func NewOpnameHandler(base *BaseHandler, svc *opname.Service) *DocumentHandler[*opname.StockOpname, dto.CreateOpnameRequest, dto.UpdateOpnameRequest] {
	return NewDocumentHandler(base, DocumentHandlerConfig[*opname.StockOpname, dto.CreateOpnameRequest, dto.UpdateOpnameRequest]{
		Ops:      svc,
		Terminal: "finalize",
		Create: func(ctx context.Context, tenantID id.ID, actor security.Actor, req dto.CreateOpnameRequest) (*opname.StockOpname, error) {
			return svc.Create(ctx, tenantID, actor, req.ToInput())
		},
		Update: func(ctx context.Context, tenantID, docID id.ID, actor security.Actor, req dto.UpdateOpnameRequest) (*opname.StockOpname, error) {
			return svc.Update(ctx, tenantID, docID, actor, req.ToInput())
		},
		Complete: func(c *gin.Context, tenantID, docID id.ID, actor security.Actor) (*opname.StockOpname, error) {
			return svc.Finalize(c.Request.Context(), tenantID, docID, actor)
		},
	})
}

// NewUnpackingHandler serves /unpackings.
func NewUnpackingHandler(base *BaseHandler, svc *unpacking.Service) *DocumentHandler[*unpacking.UnpackingTransaction, dto.CreateUnpackingRequest, dto.UpdateUnpackingRequest] {
	return NewDocumentHandler(base, DocumentHandlerConfig[*unpacking.UnpackingTransaction, dto.CreateUnpackingRequest, dto.UpdateUnpackingRequest]{
		Ops:      svc,
		Terminal: "process",
		Create: func(ctx context.Context, tenantID id.ID, actor security.Actor, req dto.CreateUnpackingRequest) (*unpacking.UnpackingTransaction, error) {
			return svc.Create(ctx, tenantID, actor, req.ToInput())
		},
		Update: func(ctx context.Context, tenantID, docID id.ID, actor security.Actor, req dto.UpdateUnpackingRequest) (*unpacking.UnpackingTransaction, error) {
			return svc.Update(ctx, tenantID, docID, actor, req.ToInput())
		},
		Complete: func(c *gin.Context, tenantID, docID id.ID, actor security.Actor) (*unpacking.UnpackingTransaction, error) {
			return svc.Process(c.Request.Context(), tenantID, docID, actor)
		},
	})
}

// NewPurchaseOrderHandler serves /purchase-orders. Receive takes an optional
// {"storeId"} body naming the receiving store of a tenant-level order.
func NewPurchaseOrderHandler(base *BaseHandler, svc *purchaseorder.Service) *DocumentHandler[*purchaseorder.PurchaseOrder, dto.CreatePurchaseOrderRequest, dto.UpdatePurchaseOrderRequest] {
	return NewDocumentHandler(base, DocumentHandlerConfig[*purchaseorder.PurchaseOrder, dto.CreatePurchaseOrderRequest, dto.UpdatePurchaseOrderRequest]{
		Ops:      svc,
		Terminal: "receive",
		Create: func(ctx context.Context, tenantID id.ID, actor security.Actor, req dto.CreatePurchaseOrderRequest) (*purchaseorder.PurchaseOrder, error) {
			return svc.Create(ctx, tenantID, actor, req.ToInput())
		},
		Update: func(ctx context.Context, tenantID, docID id.ID, actor security.Actor, req dto.UpdatePurchaseOrderRequest) (*purchaseorder.PurchaseOrder, error) {
			return svc.Update(ctx, tenantID, docID, actor, req.ToInput())
		},
		Complete: func(c *gin.Context, tenantID, docID id.ID, actor security.Actor) (*purchaseorder.PurchaseOrder, error) {
			var req dto.ReceiveRequest
			if c.Request.ContentLength != 0 {
				if err := c.ShouldBindJSON(&req); err != nil {
					return nil, apperror.NewValidation("invalid request body").WithDetail("error", err.Error())
				}
			}
			return svc.Receive(c.Request.Context(), tenantID, docID, actor, req.StoreID)
		},
	})
}
