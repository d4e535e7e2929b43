package dto

import (
	"time"

	"retailcore/internal/core/id"
	"retailcore/internal/domain/documents/adjustment"
)

// CreateAdjustmentRequest is the body of POST /adjustments.
type CreateAdjustmentRequest struct {
	StoreID        id.ID     `json:"storeId" binding:"required"`
	AdjustmentDate time.Time `json:"adjustmentDate" binding:"required"`
	ProductID      id.ID     `json:"productId" binding:"required"`
	Type           string    `json:"type" binding:"required"`
	Quantity       int64     `json:"quantity"`
	Reason         string    `json:"reason" binding:"required"`
	Notes          string    `json:"notes"`
}

// ToInput maps the request to the service input.
func (r CreateAdjustmentRequest) ToInput() adjustment.CreateInput {
	return adjustment.CreateInput{
		StoreID:        r.StoreID,
		AdjustmentDate: r.AdjustmentDate,
		ProductID:      r.ProductID,
		Type:           adjustment.Type(r.Type),
		Quantity:       r.Quantity,
		Reason:         adjustment.Reason(r.Reason),
		Notes:          r.Notes,
	}
}

// UpdateAdjustmentRequest is the body of PUT /adjustments/:id.
type UpdateAdjustmentRequest struct {
	Version        int        `json:"version" binding:"required,min=1"`
	AdjustmentDate *time.Time `json:"adjustmentDate"`
	ProductID      *id.ID     `json:"productId"`
	Type           *string    `json:"type"`
	Quantity       *int64     `json:"quantity"`
	Reason         *string    `json:"reason"`
	Notes          *string    `json:"notes"`
}

// ToInput maps the request to the service input.
func (r UpdateAdjustmentRequest) ToInput() adjustment.UpdateInput {
	in := adjustment.UpdateInput{
		Version:        r.Version,
		AdjustmentDate: r.AdjustmentDate,
		ProductID:      r.ProductID,
		Quantity:       r.Quantity,
		Notes:          r.Notes,
	}
	if r.Type != nil {
		t := adjustment.Type(*r.Type)
		in.Type = &t
	}
	if r.Reason != nil {
		reason := adjustment.Reason(*r.Reason)
		in.Reason = &reason
	}
	return in
}
