package entity

import (
	"time"

	"retailcore/internal/core/id"
)

// MovementType classifies a stock movement by its origin.
type MovementType string

const (
	MovementIn       MovementType = "IN"
	MovementOut      MovementType = "OUT"
	MovementAdjust   MovementType = "ADJ"
	MovementOpname   MovementType = "OPNAME"
	MovementTransfer MovementType = "TRANSFER"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjust, MovementOpname, MovementTransfer:
		return true
	}
	return false
}

// Direction encodes the sign of a movement; quantities are stored unsigned.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Reference links a movement back to the document that caused it.
type Reference struct {
	Type   string `db:"reference_type" json:"referenceType"`
	ID     id.ID  `db:"reference_id" json:"referenceId"`
	Number string `db:"reference_number" json:"referenceNumber"`
}

// StockMovement is an immutable ledger line. Rows are only ever inserted.
type StockMovement struct {
	ID        id.ID `db:"id" json:"id"`
	TenantID  id.ID `db:"tenant_id" json:"tenantId"`
	StoreID   id.ID `db:"store_id" json:"storeId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	Type      MovementType `db:"type" json:"type"`
	Direction Direction    `db:"direction" json:"direction"`
	// Quantity is always positive; Direction carries the sign.
	Quantity int64 `db:"quantity" json:"quantity"`

	QuantityBefore int64 `db:"quantity_before" json:"quantityBefore"`
	QuantityAfter  int64 `db:"quantity_after" json:"quantityAfter"`

	Reference

	CreatedBy id.ID     `db:"created_by" json:"createdBy"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockMovement builds a movement from a signed delta. delta must be non-zero.
func NewStockMovement(tenantID, storeID, productID id.ID, typ MovementType, delta, before int64, ref Reference, createdBy id.ID) StockMovement {
	dir, qty := DirectionIn, delta
	if delta < 0 {
		dir, qty = DirectionOut, -delta
	}
	return StockMovement{
		ID:             id.New(),
		TenantID:       tenantID,
		StoreID:        storeID,
		ProductID:      productID,
		Type:           typ,
		Direction:      dir,
		Quantity:       qty,
		QuantityBefore: before,
		QuantityAfter:  before + delta,
		Reference:      ref,
		CreatedBy:      createdBy,
		CreatedAt:      time.Now().UTC(),
	}
}

// Delta returns the signed quantity change.
func (m *StockMovement) Delta() int64 {
	if m.Direction == DirectionOut {
		return -m.Quantity
	}
	return m.Quantity
}

// Stock is the running quantity of one product in one store.
type Stock struct {
	ID        id.ID `db:"id" json:"id"`
	TenantID  id.ID `db:"tenant_id" json:"tenantId"`
	StoreID   id.ID `db:"store_id" json:"storeId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity int64  `db:"quantity" json:"quantity"`
	MinStock *int64 `db:"min_stock" json:"minStock,omitempty"`
	MaxStock *int64 `db:"max_stock" json:"maxStock,omitempty"`

	LastStockOpnameDate *time.Time `db:"last_stock_opname_date" json:"lastStockOpnameDate,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewStock creates an empty stock row for lazy initialisation.
func NewStock(tenantID, storeID, productID id.ID) *Stock {
	now := time.Now().UTC()
	return &Stock{
		ID:        id.New(),
		TenantID:  tenantID,
		StoreID:   storeID,
		ProductID: productID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsLow reports whether quantity is at or below the configured minimum.
func (s *Stock) IsLow() bool {
	return s.MinStock != nil && s.Quantity <= *s.MinStock
}
