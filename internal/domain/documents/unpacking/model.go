// Package unpacking provides the UnpackingTransaction document: breaking a
// packed product (a carton) into its units. Processing takes the source out of
// stock and puts the result in, atomically.
package unpacking

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/validation"
	"retailcore/internal/domain"
)

// UnpackingTransaction converts SourceQuantity of SourceProductID into
// ResultQuantity of ResultProductID within one store.
type UnpackingTransaction struct {
	entity.ApprovableDocument

	UnpackingNumber string    `db:"unpacking_number" json:"unpackingNumber"`
	StoreID         id.ID     `db:"store_id" json:"storeId" validate:"nonnil_id"`
	UnpackingDate   time.Time `db:"unpacking_date" json:"unpackingDate" validate:"required,notfuture"`

	SourceProductID id.ID `db:"source_product_id" json:"sourceProductId" validate:"nonnil_id"`
	SourceQuantity  int64 `db:"source_quantity" json:"sourceQuantity" validate:"gt=0"`
	ResultProductID id.ID `db:"result_product_id" json:"resultProductId" validate:"nonnil_id,neid=SourceProductID"`
	ResultQuantity  int64 `db:"result_quantity" json:"resultQuantity" validate:"gt=0"`

	// ConversionRatio is recorded for reference; processing posts the quantities as entered.
	ConversionRatio *decimal.Decimal `db:"conversion_ratio" json:"conversionRatio,omitempty"`
}

var _ domain.Document = (*UnpackingTransaction)(nil)

// Validate implements entity.Validatable.
func (u *UnpackingTransaction) Validate(_ context.Context) error {
	return validation.Struct(u)
}

// DocumentNumber implements domain.Document.
func (u *UnpackingTransaction) DocumentNumber() string { return u.UnpackingNumber }

// SetDocumentNumber implements domain.Document.
func (u *UnpackingTransaction) SetDocumentNumber(n string) { u.UnpackingNumber = n }

// DocumentDate implements domain.Document.
func (u *UnpackingTransaction) DocumentDate() time.Time { return u.UnpackingDate }

// GetStoreID returns the store where unpacking happens.
func (u *UnpackingTransaction) GetStoreID() id.ID { return u.StoreID }

// Clone returns a copy safe to mutate independently.
func (u *UnpackingTransaction) Clone() *UnpackingTransaction {
	c := *u
	return &c
}
