package memstore

import (
	"context"
	"slices"
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/registers/stock"
)

var _ stock.Repository = (*StockRepo)(nil)

type stockKey struct {
	tenant, store, product id.ID
}

func (k stockKey) lockKey() string {
	return "stock:" + k.tenant.String() + ":" + k.store.String() + ":" + k.product.String()
}

// StockRepo is an in-memory stock.Repository.
type StockRepo struct {
	locks     *Locker
	rows      map[stockKey]*entity.Stock
	movements []entity.StockMovement
}

// NewStockRepo creates an empty stock ledger.
func NewStockRepo(locks *Locker) *StockRepo {
	return &StockRepo{locks: locks, rows: make(map[stockKey]*entity.Stock)}
}

func copyStock(s *entity.Stock) *entity.Stock {
	c := *s
	return &c
}

// LockForUpdate implements stock.Repository.
func (r *StockRepo) LockForUpdate(ctx context.Context, tenantID, storeID id.ID, productIDs []id.ID) (map[id.ID]*entity.Stock, error) {
	out := make(map[id.ID]*entity.Stock, len(productIDs))
	for _, pid := range productIDs {
		key := stockKey{tenantID, storeID, pid}
		r.locks.lockRow(ctx, key.lockKey())

		r.locks.mu.Lock()
		row, ok := r.rows[key]
		if !ok {
			row = entity.NewStock(tenantID, storeID, pid)
			r.rows[key] = row
			undo(ctx, func() { delete(r.rows, key) })
		}
		out[pid] = copyStock(row)
		r.locks.mu.Unlock()
	}
	return out, nil
}

// SaveStocks implements stock.Repository.
func (r *StockRepo) SaveStocks(ctx context.Context, stocks []*entity.Stock) error {
	r.locks.mu.Lock()
	defer r.locks.mu.Unlock()
	for _, s := range stocks {
		key := stockKey{s.TenantID, s.StoreID, s.ProductID}
		if prev, ok := r.rows[key]; ok {
			undo(ctx, func() { r.rows[key] = prev })
		}
		r.rows[key] = copyStock(s)
	}
	return nil
}

// InsertMovements implements stock.Repository.
func (r *StockRepo) InsertMovements(ctx context.Context, movements []entity.StockMovement) error {
	r.locks.mu.Lock()
	defer r.locks.mu.Unlock()
	for _, m := range movements {
		r.movements = append(r.movements, m)
		mid := m.ID
		undo(ctx, func() {
			r.movements = slices.DeleteFunc(r.movements, func(x entity.StockMovement) bool { return x.ID == mid })
		})
	}
	return nil
}

// GetQuantities implements stock.Repository.
func (r *StockRepo) GetQuantities(_ context.Context, tenantID, storeID id.ID, productIDs []id.ID) (map[id.ID]int64, error) {
	r.locks.mu.Lock()
	defer r.locks.mu.Unlock()
	out := make(map[id.ID]int64, len(productIDs))
	for _, pid := range productIDs {
		if row, ok := r.rows[stockKey{tenantID, storeID, pid}]; ok {
			out[pid] = row.Quantity
		}
	}
	return out, nil
}

// Get implements stock.Repository.
func (r *StockRepo) Get(_ context.Context, tenantID, storeID, productID id.ID) (*entity.Stock, error) {
	r.locks.mu.Lock()
	defer r.locks.mu.Unlock()
	row, ok := r.rows[stockKey{tenantID, storeID, productID}]
	if !ok {
		return nil, apperror.NewNotFound("stock", productID)
	}
	return copyStock(row), nil
}

// List implements stock.Repository.
func (r *StockRepo) List(_ context.Context, tenantID id.ID, f stock.BalanceFilter) ([]entity.Stock, error) {
	r.locks.mu.Lock()
	defer r.locks.mu.Unlock()
	var out []entity.Stock
	for k, row := range r.rows {
		if k.tenant != tenantID {
			continue
		}
		if f.StoreID != nil && k.store != *f.StoreID {
			continue
		}
		if len(f.ProductIDs) > 0 && !slices.Contains(f.ProductIDs, k.product) {
			continue
		}
		if f.ExcludeZero && row.Quantity == 0 {
			continue
		}
		if f.OnlyLow && !row.IsLow() {
			continue
		}
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b entity.Stock) int {
		if a.StoreID != b.StoreID {
			return compareID(a.StoreID, b.StoreID)
		}
		return compareID(a.ProductID, b.ProductID)
	})
	return page(out, f.Offset, f.Limit), nil
}

// ListMovements implements stock.Repository.
func (r *StockRepo) ListMovements(_ context.Context, tenantID id.ID, f stock.MovementFilter) ([]entity.StockMovement, error) {
	r.locks.mu.Lock()
	defer r.locks.mu.Unlock()
	var out []entity.StockMovement
	for _, m := range r.movements {
		switch {
		case m.TenantID != tenantID,
			f.StoreID != nil && m.StoreID != *f.StoreID,
			f.ProductID != nil && m.ProductID != *f.ProductID,
			f.Type != nil && m.Type != *f.Type,
			f.ReferenceID != nil && m.Reference.ID != *f.ReferenceID,
			f.FromDate != nil && m.CreatedAt.Before(*f.FromDate),
			f.ToDate != nil && m.CreatedAt.After(*f.ToDate):
			continue
		}
		out = append(out, m)
	}
	slices.Reverse(out)
	return page(out, f.Offset, f.Limit), nil
}

// LedgerDrift implements stock.Repository.
func (r *StockRepo) LedgerDrift(_ context.Context, tenantID, storeID id.ID) ([]stock.Drift, error) {
	r.locks.mu.Lock()
	defer r.locks.mu.Unlock()
	totals := make(map[stockKey]int64)
	for _, m := range r.movements {
		if m.TenantID == tenantID && m.StoreID == storeID {
			totals[stockKey{m.TenantID, m.StoreID, m.ProductID}] += m.Delta()
		}
	}
	var out []stock.Drift
	for k, row := range r.rows {
		if k.tenant != tenantID || k.store != storeID {
			continue
		}
		if total := totals[k]; total != row.Quantity {
			out = append(out, stock.Drift{StoreID: k.store, ProductID: k.product, Quantity: row.Quantity, MovementTotal: total})
		}
	}
	return out, nil
}

// Seed adds quantity to a balance and records it as an IN movement so the ledger stays consistent.
func (r *StockRepo) Seed(tenantID, storeID, productID id.ID, quantity int64) {
	r.locks.mu.Lock()
	defer r.locks.mu.Unlock()
	key := stockKey{tenantID, storeID, productID}
	row, ok := r.rows[key]
	if !ok {
		row = entity.NewStock(tenantID, storeID, productID)
		r.rows[key] = row
	}
	if quantity != 0 {
		ref := entity.Reference{Type: "opening_balance", ID: id.New(), Number: "SEED"}
		r.movements = append(r.movements, entity.NewStockMovement(
			tenantID, storeID, productID, entity.MovementIn, quantity, row.Quantity, ref, id.Nil,
		))
	}
	row.Quantity += quantity
}

// SetThresholds sets min/max stock on a row, creating it if needed.
func (r *StockRepo) SetThresholds(tenantID, storeID, productID id.ID, minStock, maxStock *int64) {
	r.locks.mu.Lock()
	defer r.locks.mu.Unlock()
	key := stockKey{tenantID, storeID, productID}
	row, ok := r.rows[key]
	if !ok {
		row = entity.NewStock(tenantID, storeID, productID)
		r.rows[key] = row
	}
	row.MinStock, row.MaxStock = minStock, maxStock
	row.UpdatedAt = time.Now().UTC()
}

// Quantity returns the committed quantity, 0 when the row is absent.
func (r *StockRepo) Quantity(tenantID, storeID, productID id.ID) int64 {
	r.locks.mu.Lock()
	defer r.locks.mu.Unlock()
	if row, ok := r.rows[stockKey{tenantID, storeID, productID}]; ok {
		return row.Quantity
	}
	return 0
}

// Movements returns every movement referencing refID, in insertion order.
func (r *StockRepo) Movements(refID id.ID) []entity.StockMovement {
	r.locks.mu.Lock()
	defer r.locks.mu.Unlock()
	var out []entity.StockMovement
	for _, m := range r.movements {
		if m.Reference.ID == refID {
			out = append(out, m)
		}
	}
	return out
}

func compareID(a, b id.ID) int {
	switch {
	case id.Less(a, b):
		return -1
	case id.Less(b, a):
		return 1
	}
	return 0
}

func page[T any](items []T, offset, limit int) []T {
	if offset > len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
