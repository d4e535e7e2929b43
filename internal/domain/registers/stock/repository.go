// Package stock provides the stock ledger: per-store quantities plus the
// append-only movement log that explains them.
package stock

import (
	"context"
	"time"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
)

// Repository defines persistence for the stock ledger.
// All methods take tenantID explicitly; implementations must filter on it.
type Repository interface {
	// LockForUpdate returns the stock rows of productIDs in storeID, locked until
	// the surrounding transaction ends. Missing rows are created with quantity 0.
	// Rows are locked in id.Less order of product id.
	LockForUpdate(ctx context.Context, tenantID, storeID id.ID, productIDs []id.ID) (map[id.ID]*entity.Stock, error)

	// SaveStocks persists quantity, thresholds and last_stock_opname_date of locked rows.
	SaveStocks(ctx context.Context, stocks []*entity.Stock) error

	// InsertMovements appends ledger lines.
	InsertMovements(ctx context.Context, movements []entity.StockMovement) error

	// GetQuantities returns current quantities without locking. Absent rows are omitted.
	GetQuantities(ctx context.Context, tenantID, storeID id.ID, productIDs []id.ID) (map[id.ID]int64, error)

	// Get returns one stock row or a NOT_FOUND AppError.
	Get(ctx context.Context, tenantID, storeID, productID id.ID) (*entity.Stock, error)

	// List returns stock rows matching filter.
	List(ctx context.Context, tenantID id.ID, filter BalanceFilter) ([]entity.Stock, error)

	// ListMovements returns ledger lines matching filter, newest first.
	ListMovements(ctx context.Context, tenantID id.ID, filter MovementFilter) ([]entity.StockMovement, error)

	// LedgerDrift returns rows whose quantity differs from the sum of their movement deltas.
	LedgerDrift(ctx context.Context, tenantID, storeID id.ID) ([]Drift, error)
}

// BalanceFilter for filtering stock queries.
type BalanceFilter struct {
	StoreID     *id.ID
	ProductIDs  []id.ID
	ExcludeZero bool
	OnlyLow     bool
	Limit       int
	Offset      int
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	StoreID     *id.ID
	ProductID   *id.ID
	Type        *entity.MovementType
	ReferenceID *id.ID
	FromDate    *time.Time
	ToDate      *time.Time
	Limit       int
	Offset      int
}

// Drift is a ledger inconsistency.
type Drift struct {
	StoreID       id.ID `db:"store_id" json:"storeId"`
	ProductID     id.ID `db:"product_id" json:"productId"`
	Quantity      int64 `db:"quantity" json:"quantity"`
	MovementTotal int64 `db:"movement_total" json:"movementTotal"`
}
