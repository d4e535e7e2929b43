package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"retailcore/internal/core/id"
	"retailcore/internal/domain/documents/opname"
)

// OpnameItemRequest is one counted product.
type OpnameItemRequest struct {
	ProductID        id.ID           `json:"productId" binding:"required"`
	PhysicalQuantity int64           `json:"physicalQuantity"`
	VarianceReason   string          `json:"varianceReason"`
	UnitCost         decimal.Decimal `json:"unitCost"`
}

func opnameItems(items []OpnameItemRequest) []opname.ItemInput {
	if items == nil {
		return nil
	}
	out := make([]opname.ItemInput, len(items))
	for i, it := range items {
		out[i] = opname.ItemInput{
			ProductID:        it.ProductID,
			PhysicalQuantity: it.PhysicalQuantity,
			VarianceReason:   it.VarianceReason,
			UnitCost:         it.UnitCost,
		}
	}
	return out
}

// CreateOpnameRequest is the body of POST /opnames.
type CreateOpnameRequest struct {
	StoreID    id.ID               `json:"storeId" binding:"required"`
	OpnameDate time.Time           `json:"opnameDate" binding:"required"`
	Notes      string              `json:"notes"`
	Items      []OpnameItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ToInput maps the request to the service input.
func (r CreateOpnameRequest) ToInput() opname.CreateInput {
	return opname.CreateInput{
		StoreID:    r.StoreID,
		OpnameDate: r.OpnameDate,
		Notes:      r.Notes,
		Items:      opnameItems(r.Items),
	}
}

// UpdateOpnameRequest is the body of PUT /opnames/:id. A non-null items list
// replaces the counted products.
type UpdateOpnameRequest struct {
	Version    int                 `json:"version" binding:"required,min=1"`
	OpnameDate *time.Time          `json:"opnameDate"`
	Notes      *string             `json:"notes"`
	Items      []OpnameItemRequest `json:"items" binding:"omitempty,dive"`
}

// ToInput maps the request to the service input.
func (r UpdateOpnameRequest) ToInput() opname.UpdateInput {
	return opname.UpdateInput{
		Version:    r.Version,
		OpnameDate: r.OpnameDate,
		Notes:      r.Notes,
		Items:      opnameItems(r.Items),
	}
}
