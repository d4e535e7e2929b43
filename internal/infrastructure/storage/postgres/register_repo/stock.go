// Package register_repo provides the PostgreSQL stock ledger.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/registers/stock"
	"retailcore/internal/infrastructure/storage/postgres"
)

const (
	stocksTable    = "stocks"
	movementsTable = "stock_movements"
)

var (
	stockColumns    = postgres.ExtractDBColumns[entity.Stock]()
	movementColumns = postgres.ExtractDBColumns[entity.StockMovement]()
)

// StockRepo implements stock.Repository.
type StockRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ stock.Repository = (*StockRepo)(nil)

// NewStockRepo creates a new stock ledger repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// LockForUpdate creates missing rows with ON CONFLICT DO NOTHING, then locks
// all requested rows ordered by product_id.
func (r *StockRepo) LockForUpdate(ctx context.Context, tenantID, storeID id.ID, productIDs []id.ID) (map[id.ID]*entity.Stock, error) {
	if len(productIDs) == 0 {
		return map[id.ID]*entity.Stock{}, nil
	}
	if r.txm.GetTx(ctx) == nil {
		return nil, fmt.Errorf("lock stock rows requires a transaction")
	}

	now := time.Now().UTC()
	ins := r.builder.Insert(stocksTable).
		Columns("id", "tenant_id", "store_id", "product_id", "quantity", "created_at", "updated_at")
	for _, pid := range productIDs {
		ins = ins.Values(id.New(), tenantID, storeID, pid, 0, now, now)
	}
	sql, args, err := ins.Suffix("ON CONFLICT (tenant_id, store_id, product_id) DO NOTHING").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}
	q := r.txm.GetQuerier(ctx)
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return nil, fmt.Errorf("ensure stock rows: %w", err)
	}

	sql, args, err = r.builder.Select(stockColumns...).From(stocksTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "store_id": storeID, "product_id": productIDs}).
		OrderBy("product_id").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lock: %w", err)
	}

	var rows []*entity.Stock
	if err := pgxscan.Select(ctx, q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("lock stock rows: %w", err)
	}
	out := make(map[id.ID]*entity.Stock, len(rows))
	for _, row := range rows {
		out[row.ProductID] = row
	}
	return out, nil
}

// SaveStocks writes quantity and the opname date of locked rows in one batch.
func (r *StockRepo) SaveStocks(ctx context.Context, stocks []*entity.Stock) error {
	queries := make([]postgres.BatchQuery, 0, len(stocks))
	for _, s := range stocks {
		queries = append(queries, postgres.BatchQuery{
			SQL: `UPDATE stocks SET quantity = $1, last_stock_opname_date = $2, updated_at = $3
				WHERE id = $4 AND tenant_id = $5`,
			Args: []any{s.Quantity, s.LastStockOpnameDate, s.UpdatedAt, s.ID, s.TenantID},
		})
	}
	return r.txm.ExecBatch(ctx, queries)
}

// InsertMovements appends ledger lines with COPY.
func (r *StockRepo) InsertMovements(ctx context.Context, movements []entity.StockMovement) error {
	rows := make([][]any, 0, len(movements))
	for i := range movements {
		rows = append(rows, postgres.StructValues(&movements[i], movementColumns))
	}
	_, err := r.txm.CopyRows(ctx, movementsTable, movementColumns, rows)
	return err
}

// GetQuantities returns current quantities without locking.
func (r *StockRepo) GetQuantities(ctx context.Context, tenantID, storeID id.ID, productIDs []id.ID) (map[id.ID]int64, error) {
	out := make(map[id.ID]int64, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	sql, args, err := r.builder.Select("product_id", "quantity").From(stocksTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "store_id": storeID, "product_id": productIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []struct {
		ProductID id.ID `db:"product_id"`
		Quantity  int64 `db:"quantity"`
	}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select quantities: %w", err)
	}
	for _, row := range rows {
		out[row.ProductID] = row.Quantity
	}
	return out, nil
}

// Get returns one stock row.
func (r *StockRepo) Get(ctx context.Context, tenantID, storeID, productID id.ID) (*entity.Stock, error) {
	sql, args, err := r.builder.Select(stockColumns...).From(stocksTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "store_id": storeID, "product_id": productID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s entity.Stock
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("stock", productID).WithDetail("store_id", storeID.String())
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// List returns stock rows matching filter.
func (r *StockRepo) List(ctx context.Context, tenantID id.ID, filter stock.BalanceFilter) ([]entity.Stock, error) {
	q := r.builder.Select(stockColumns...).From(stocksTable).Where(squirrel.Eq{"tenant_id": tenantID})
	if filter.StoreID != nil {
		q = q.Where(squirrel.Eq{"store_id": *filter.StoreID})
	}
	if len(filter.ProductIDs) > 0 {
		q = q.Where(squirrel.Eq{"product_id": filter.ProductIDs})
	}
	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"quantity": 0})
	}
	if filter.OnlyLow {
		q = q.Where("min_stock IS NOT NULL AND quantity <= min_stock")
	}
	q = q.OrderBy("store_id", "product_id")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []entity.Stock
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select stocks: %w", err)
	}
	return out, nil
}

// ListMovements returns ledger lines, newest first.
func (r *StockRepo) ListMovements(ctx context.Context, tenantID id.ID, filter stock.MovementFilter) ([]entity.StockMovement, error) {
	q := r.builder.Select(movementColumns...).From(movementsTable).Where(squirrel.Eq{"tenant_id": tenantID})
	if filter.StoreID != nil {
		q = q.Where(squirrel.Eq{"store_id": *filter.StoreID})
	}
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.ReferenceID != nil {
		q = q.Where(squirrel.Eq{"reference_id": *filter.ReferenceID})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}
	q = q.OrderBy("created_at DESC", "id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []entity.StockMovement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return out, nil
}

// LedgerDrift compares each row with the signed sum of its movements.
func (r *StockRepo) LedgerDrift(ctx context.Context, tenantID, storeID id.ID) ([]stock.Drift, error) {
	var out []stock.Drift
	err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, `
		SELECT s.store_id, s.product_id, s.quantity, COALESCE(m.total, 0) AS movement_total
		FROM stocks s
		LEFT JOIN (
			SELECT product_id,
			       SUM(CASE WHEN direction = 'in' THEN quantity ELSE -quantity END) AS total
			FROM stock_movements
			WHERE tenant_id = $1 AND store_id = $2
			GROUP BY product_id
		) m ON m.product_id = s.product_id
		WHERE s.tenant_id = $1 AND s.store_id = $2
		  AND s.quantity <> COALESCE(m.total, 0)
		ORDER BY s.product_id
	`, tenantID, storeID)
	if err != nil {
		return nil, fmt.Errorf("ledger drift: %w", err)
	}
	return out, nil
}
