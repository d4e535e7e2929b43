// Package adjustment provides the StockAdjustment document: a single-product
// add or reduce correction that posts one ADJ movement when applied.
package adjustment

import (
	"context"
	"time"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/validation"
	"retailcore/internal/domain"
)

// Type is the direction of an adjustment.
type Type string

const (
	TypeAdd    Type = "add"
	TypeReduce Type = "reduce"
)

// Reason classifies why stock was adjusted.
type Reason string

const (
	ReasonDamaged    Reason = "damaged"
	ReasonExpired    Reason = "expired"
	ReasonLost       Reason = "lost"
	ReasonFound      Reason = "found"
	ReasonCorrection Reason = "correction"
	ReasonOther      Reason = "other"
)

// StockAdjustment is a manual stock correction for one product in one store.
type StockAdjustment struct {
	entity.ApprovableDocument

	AdjustmentNumber string    `db:"adjustment_number" json:"adjustmentNumber"`
	StoreID          id.ID     `db:"store_id" json:"storeId" validate:"nonnil_id"`
	AdjustmentDate   time.Time `db:"adjustment_date" json:"adjustmentDate" validate:"required,notfuture"`
	ProductID        id.ID     `db:"product_id" json:"productId" validate:"nonnil_id"`
	Type             Type      `db:"type" json:"type" validate:"oneof=add reduce"`
	Quantity         int64     `db:"quantity" json:"quantity" validate:"gt=0"`
	Reason           Reason    `db:"reason" json:"reason" validate:"oneof=damaged expired lost found correction other"`
}

var _ domain.Document = (*StockAdjustment)(nil)

// Validate implements entity.Validatable.
func (a *StockAdjustment) Validate(_ context.Context) error {
	return validation.Struct(a)
}

// DocumentNumber implements domain.Document.
func (a *StockAdjustment) DocumentNumber() string { return a.AdjustmentNumber }

// SetDocumentNumber implements domain.Document.
func (a *StockAdjustment) SetDocumentNumber(n string) { a.AdjustmentNumber = n }

// DocumentDate implements domain.Document.
func (a *StockAdjustment) DocumentDate() time.Time { return a.AdjustmentDate }

// GetStoreID returns the store whose stock is adjusted.
func (a *StockAdjustment) GetStoreID() id.ID { return a.StoreID }

// Delta returns the signed stock change.
func (a *StockAdjustment) Delta() int64 {
	if a.Type == TypeReduce {
		return -a.Quantity
	}
	return a.Quantity
}

// Clone returns a copy safe to mutate independently.
func (a *StockAdjustment) Clone() *StockAdjustment {
	c := *a
	return &c
}
