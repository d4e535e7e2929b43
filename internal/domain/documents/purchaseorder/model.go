// Package purchaseorder provides the PurchaseOrder document. Receiving an
// approved order posts one IN movement per line into the receiving store.
package purchaseorder

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/core/validation"
	"retailcore/internal/domain"
)

// Item is one ordered product.
type Item struct {
	ID              id.ID `db:"id" json:"id"`
	PurchaseOrderID id.ID `db:"purchase_order_id" json:"purchaseOrderId"`
	LineNo          int   `db:"line_no" json:"lineNo"`

	ProductID id.ID           `db:"product_id" json:"productId" validate:"nonnil_id"`
	Quantity  int64           `db:"quantity" json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unitPrice"`
	LineTotal decimal.Decimal `db:"line_total" json:"lineTotal"`
}

// PurchaseOrder is an order placed with a supplier. A nil StoreID makes it a
// tenant-level order whose receiving store is chosen at receipt.
type PurchaseOrder struct {
	entity.ApprovableDocument

	PONumber     string     `db:"po_number" json:"poNumber"`
	StoreID      *id.ID     `db:"store_id" json:"storeId,omitempty"`
	SupplierID   id.ID      `db:"supplier_id" json:"supplierId" validate:"nonnil_id"`
	OrderDate    time.Time  `db:"order_date" json:"orderDate" validate:"required"`
	ExpectedDate *time.Time `db:"expected_date" json:"expectedDate,omitempty"`

	Subtotal decimal.Decimal `db:"subtotal" json:"subtotal"`
	Tax      decimal.Decimal `db:"tax" json:"tax"`
	Total    decimal.Decimal `db:"total" json:"total"`

	Items []Item `db:"-" json:"items" validate:"min=1,dive"`
}

var _ domain.Document = (*PurchaseOrder)(nil)

// Validate implements entity.Validatable.
func (p *PurchaseOrder) Validate(_ context.Context) error {
	if err := validation.Struct(p); err != nil {
		return err
	}
	if p.StoreID != nil && id.IsNil(*p.StoreID) {
		return apperror.NewFieldValidation("storeId", "is invalid")
	}
	if p.ExpectedDate != nil && p.ExpectedDate.Before(p.OrderDate) {
		return apperror.NewFieldValidation("expectedDate", "must not be before the order date")
	}
	if p.Tax.IsNegative() {
		return apperror.NewFieldValidation("tax", "must be at least 0")
	}
	for i, it := range p.Items {
		if it.UnitPrice.IsNegative() {
			return apperror.NewFieldValidation(fmt.Sprintf("items[%d].unitPrice", i), "must be at least 0")
		}
	}
	return nil
}

// Recalculate refreshes line totals, subtotal and total.
func (p *PurchaseOrder) Recalculate() {
	subtotal := decimal.Zero
	for i := range p.Items {
		it := &p.Items[i]
		it.PurchaseOrderID = p.ID
		it.LineNo = i + 1
		if id.IsNil(it.ID) {
			it.ID = id.New()
		}
		it.LineTotal = types.LineTotal(it.Quantity, it.UnitPrice)
		subtotal = subtotal.Add(it.LineTotal)
	}
	p.Subtotal = types.RoundMoney(subtotal)
	p.Tax = types.RoundMoney(p.Tax)
	p.Total = p.Subtotal.Add(p.Tax)
}

// DocumentNumber implements domain.Document.
func (p *PurchaseOrder) DocumentNumber() string { return p.PONumber }

// SetDocumentNumber implements domain.Document.
func (p *PurchaseOrder) SetDocumentNumber(n string) { p.PONumber = n }

// DocumentDate implements domain.Document.
func (p *PurchaseOrder) DocumentDate() time.Time { return p.OrderDate }

// GetStoreID returns the ordering store, or id.Nil for a tenant-level order.
func (p *PurchaseOrder) GetStoreID() id.ID {
	if p.StoreID == nil {
		return id.Nil
	}
	return *p.StoreID
}

// Clone returns a deep copy.
func (p *PurchaseOrder) Clone() *PurchaseOrder {
	c := *p
	c.Items = slices.Clone(p.Items)
	if p.StoreID != nil {
		s := *p.StoreID
		c.StoreID = &s
	}
	return &c
}
