package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"retailcore/internal/core/id"
	"retailcore/internal/domain/documents/purchaseorder"
)

// PurchaseOrderItemRequest is one ordered product.
type PurchaseOrderItemRequest struct {
	ProductID id.ID           `json:"productId" binding:"required"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func purchaseOrderItems(items []PurchaseOrderItemRequest) []purchaseorder.ItemInput {
	if items == nil {
		return nil
	}
	out := make([]purchaseorder.ItemInput, len(items))
	for i, it := range items {
		out[i] = purchaseorder.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return out
}

// CreatePurchaseOrderRequest is the body of POST /purchase-orders. A missing
// storeId creates a tenant-level order whose store is chosen at receipt.
type CreatePurchaseOrderRequest struct {
	StoreID      *id.ID                     `json:"storeId"`
	SupplierID   id.ID                      `json:"supplierId" binding:"required"`
	OrderDate    time.Time                  `json:"orderDate" binding:"required"`
	ExpectedDate *time.Time                 `json:"expectedDate"`
	Tax          decimal.Decimal            `json:"tax"`
	Notes        string                     `json:"notes"`
	Items        []PurchaseOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ToInput maps the request to the service input.
func (r CreatePurchaseOrderRequest) ToInput() purchaseorder.CreateInput {
	return purchaseorder.CreateInput{
		StoreID:      r.StoreID,
		SupplierID:   r.SupplierID,
		OrderDate:    r.OrderDate,
		ExpectedDate: r.ExpectedDate,
		Tax:          r.Tax,
		Notes:        r.Notes,
		Items:        purchaseOrderItems(r.Items),
	}
}

// UpdatePurchaseOrderRequest is the body of PUT /purchase-orders/:id.
type UpdatePurchaseOrderRequest struct {
	Version      int                        `json:"version" binding:"required,min=1"`
	SupplierID   *id.ID                     `json:"supplierId"`
	OrderDate    *time.Time                 `json:"orderDate"`
	ExpectedDate *time.Time                 `json:"expectedDate"`
	Tax          *decimal.Decimal           `json:"tax"`
	Notes        *string                    `json:"notes"`
	Items        []PurchaseOrderItemRequest `json:"items" binding:"omitempty,dive"`
}

// ToInput maps the request to the service input.
func (r UpdatePurchaseOrderRequest) ToInput() purchaseorder.UpdateInput {
	return purchaseorder.UpdateInput{
		Version:      r.Version,
		SupplierID:   r.SupplierID,
		OrderDate:    r.OrderDate,
		ExpectedDate: r.ExpectedDate,
		Tax:          r.Tax,
		Notes:        r.Notes,
		Items:        purchaseOrderItems(r.Items),
	}
}
