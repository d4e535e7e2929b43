package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"retailcore/internal/core/id"
	"retailcore/internal/domain/documents/unpacking"
)

// CreateUnpackingRequest is the body of POST /unpackings.
type CreateUnpackingRequest struct {
	StoreID         id.ID            `json:"storeId" binding:"required"`
	UnpackingDate   time.Time        `json:"unpackingDate" binding:"required"`
	SourceProductID id.ID            `json:"sourceProductId" binding:"required"`
	SourceQuantity  int64            `json:"sourceQuantity"`
	ResultProductID id.ID            `json:"resultProductId" binding:"required"`
	ResultQuantity  int64            `json:"resultQuantity"`
	ConversionRatio *decimal.Decimal `json:"conversionRatio"`
	Notes           string           `json:"notes"`
}

// ToInput maps the request to the service input.
func (r CreateUnpackingRequest) ToInput() unpacking.CreateInput {
	return unpacking.CreateInput{
		StoreID:         r.StoreID,
		UnpackingDate:   r.UnpackingDate,
		SourceProductID: r.SourceProductID,
		SourceQuantity:  r.SourceQuantity,
		ResultProductID: r.ResultProductID,
		ResultQuantity:  r.ResultQuantity,
		ConversionRatio: r.ConversionRatio,
		Notes:           r.Notes,
	}
}

// UpdateUnpackingRequest is the body of PUT /unpackings/:id.
type UpdateUnpackingRequest struct {
	Version         int              `json:"version" binding:"required,min=1"`
	UnpackingDate   *time.Time       `json:"unpackingDate"`
	SourceProductID *id.ID           `json:"sourceProductId"`
	SourceQuantity  *int64           `json:"sourceQuantity"`
	ResultProductID *id.ID           `json:"resultProductId"`
	ResultQuantity  *int64           `json:"resultQuantity"`
	ConversionRatio *decimal.Decimal `json:"conversionRatio"`
	Notes           *string          `json:"notes"`
}

// ToInput maps the request to the service input.
func (r UpdateUnpackingRequest) ToInput() unpacking.UpdateInput {
	return unpacking.UpdateInput{
		Version:         r.Version,
		UnpackingDate:   r.UnpackingDate,
		SourceProductID: r.SourceProductID,
		SourceQuantity:  r.SourceQuantity,
		ResultProductID: r.ResultProductID,
		ResultQuantity:  r.ResultQuantity,
		ConversionRatio: r.ConversionRatio,
		Notes:           r.Notes,
	}
}
