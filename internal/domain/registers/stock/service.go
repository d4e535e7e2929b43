package stock

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/tx"
	"retailcore/internal/domain/events"
	"retailcore/pkg/logger"
)

var tracer = otel.Tracer("retailcore/stock")

// Line is one signed change requested by a document.
type Line struct {
	ProductID id.ID
	Type      entity.MovementType
	Delta     int64
}

// Batch is the complete stock effect of one terminal transition.
// It is applied all-or-nothing.
type Batch struct {
	TenantID  id.ID
	StoreID   id.ID
	Reference entity.Reference
	ActorID   id.ID
	Lines     []Line

	// CountedAt, when set, stamps last_stock_opname_date on every product in
	// CountedProducts, including those whose delta is zero.
	CountedAt       *time.Time
	CountedProducts []id.ID
}

// Result reports what Apply wrote.
type Result struct {
	Movements []entity.StockMovement
	Stocks    map[id.ID]*entity.Stock
}

// Service is the single writer of stock quantities, plus ledger read models.
type Service struct {
	repo      Repository
	txManager tx.Manager
	publisher events.Publisher
}

// NewService creates a new stock ledger service.
func NewService(repo Repository, txManager tx.Manager, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		txManager: txManager,
		publisher: publisher,
	}
}

// Apply locks the affected rows, rejects the batch if any row would go
// negative, then writes quantities and one movement per non-zero line.
// Joins the caller's transaction when ctx carries one.
func (s *Service) Apply(ctx context.Context, b Batch) (*Result, error) {
	if err := validateBatch(b); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "stock.apply", trace.WithAttributes(
		attribute.String("stock.reference_type", b.Reference.Type),
		attribute.String("stock.reference_id", b.Reference.ID.String()),
		attribute.Int("stock.lines", len(b.Lines)),
	))
	defer span.End()

	var result *Result
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rows, err := s.repo.LockForUpdate(ctx, b.TenantID, b.StoreID, affectedProducts(b))
		if err != nil {
			return fmt.Errorf("lock stock rows: %w", err)
		}

		movements := make([]entity.StockMovement, 0, len(b.Lines))
		for _, line := range b.Lines {
			if line.Delta == 0 {
				continue
			}
			row, ok := rows[line.ProductID]
			if !ok {
				return fmt.Errorf("stock row for product %s was not locked", line.ProductID)
			}
			after := row.Quantity + line.Delta
			if after < 0 {
				return apperror.NewInsufficientStock(line.ProductID.String(), -line.Delta, row.Quantity).
					WithDetail("store_id", b.StoreID.String()).
					WithDetail("reference_number", b.Reference.Number)
			}
			movements = append(movements, entity.NewStockMovement(
				b.TenantID, b.StoreID, line.ProductID, line.Type, line.Delta, row.Quantity, b.Reference, b.ActorID,
			))
			row.Quantity = after
		}

		now := time.Now().UTC()
		if b.CountedAt != nil {
			counted := b.CountedAt.UTC()
			for _, pid := range b.CountedProducts {
				if row, ok := rows[pid]; ok {
					row.LastStockOpnameDate = &counted
				}
			}
		}
		changed := make([]*entity.Stock, 0, len(rows))
		for _, row := range rows {
			row.UpdatedAt = now
			changed = append(changed, row)
		}

		if err := s.repo.SaveStocks(ctx, changed); err != nil {
			return fmt.Errorf("save stocks: %w", err)
		}
		if err := s.repo.InsertMovements(ctx, movements); err != nil {
			return fmt.Errorf("insert movements: %w", err)
		}
		if err := s.publish(ctx, b, movements, rows); err != nil {
			return fmt.Errorf("publish stock events: %w", err)
		}

		result = &Result{Movements: movements, Stocks: rows}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	logger.Info(ctx, "stock batch applied",
		"reference_type", b.Reference.Type,
		"reference_id", b.Reference.ID,
		"store_id", b.StoreID,
		"movements", len(result.Movements),
	)
	return result, nil
}

func (s *Service) publish(ctx context.Context, b Batch, movements []entity.StockMovement, rows map[id.ID]*entity.Stock) error {
	if len(movements) == 0 {
		return nil
	}

	deltas := make(map[string]int64, len(movements))
	for _, m := range movements {
		deltas[m.ProductID.String()] += m.Delta()
	}
	evs := []events.Event{{
		TenantID:      b.TenantID,
		AggregateType: b.Reference.Type,
		AggregateID:   b.Reference.ID,
		Type:          events.TypeStockChanged,
		Payload: events.StockChangedPayload{
			StoreID:         b.StoreID,
			ReferenceType:   b.Reference.Type,
			ReferenceID:     b.Reference.ID,
			ReferenceNumber: b.Reference.Number,
			Deltas:          deltas,
		},
	}}

	for _, m := range movements {
		row := rows[m.ProductID]
		if m.Delta() < 0 && row.IsLow() {
			evs = append(evs, events.Event{
				TenantID:      b.TenantID,
				AggregateType: "stock",
				AggregateID:   row.ID,
				Type:          events.TypeStockLow,
				Payload: events.StockLowPayload{
					StoreID:   row.StoreID,
					ProductID: row.ProductID,
					Quantity:  row.Quantity,
					MinStock:  *row.MinStock,
				},
			})
		}
	}
	return s.publisher.Publish(ctx, evs...)
}

func validateBatch(b Batch) error {
	if id.IsNil(b.TenantID) {
		return apperror.NewFieldValidation("tenantId", "tenant is required")
	}
	if id.IsNil(b.StoreID) {
		return apperror.NewFieldValidation("storeId", "store is required")
	}
	if id.IsNil(b.Reference.ID) || b.Reference.Type == "" {
		return apperror.NewFieldValidation("reference", "movement reference is required")
	}
	if len(b.Lines) == 0 && len(b.CountedProducts) == 0 {
		return apperror.NewValidation("stock batch has no lines")
	}
	for i, line := range b.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation(fmt.Sprintf("line %d: product is required", i))
		}
		if !line.Type.Valid() {
			return apperror.NewValidation(fmt.Sprintf("line %d: unknown movement type %q", i, line.Type))
		}
	}
	return nil
}

func affectedProducts(b Batch) []id.ID {
	seen := make(map[id.ID]struct{}, len(b.Lines)+len(b.CountedProducts))
	out := make([]id.ID, 0, len(b.Lines)+len(b.CountedProducts))
	add := func(pid id.ID) {
		if _, ok := seen[pid]; ok {
			return
		}
		seen[pid] = struct{}{}
		out = append(out, pid)
	}
	for _, l := range b.Lines {
		add(l.ProductID)
	}
	for _, pid := range b.CountedProducts {
		add(pid)
	}
	id.Sort(out)
	return out
}

// --- Read side ---

// Quantities returns current quantities for products in a store, zero for absent rows.
func (s *Service) Quantities(ctx context.Context, tenantID, storeID id.ID, productIDs []id.ID) (map[id.ID]int64, error) {
	found, err := s.repo.GetQuantities(ctx, tenantID, storeID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("get quantities: %w", err)
	}
	out := make(map[id.ID]int64, len(productIDs))
	for _, pid := range productIDs {
		out[pid] = found[pid]
	}
	return out, nil
}

// GetStock returns the stock row of a product in a store.
func (s *Service) GetStock(ctx context.Context, tenantID, storeID, productID id.ID) (*entity.Stock, error) {
	return s.repo.Get(ctx, tenantID, storeID, productID)
}

// ListStock returns stock rows.
func (s *Service) ListStock(ctx context.Context, tenantID id.ID, filter BalanceFilter) ([]entity.Stock, error) {
	return s.repo.List(ctx, tenantID, filter)
}

// ListMovements returns ledger lines.
func (s *Service) ListMovements(ctx context.Context, tenantID id.ID, filter MovementFilter) ([]entity.StockMovement, error) {
	return s.repo.ListMovements(ctx, tenantID, filter)
}

// VerifyLedger returns every (store, product) whose quantity disagrees with its movements.
func (s *Service) VerifyLedger(ctx context.Context, tenantID, storeID id.ID) ([]Drift, error) {
	drift, err := s.repo.LedgerDrift(ctx, tenantID, storeID)
	if err != nil {
		return nil, fmt.Errorf("ledger drift: %w", err)
	}
	if len(drift) > 0 {
		logger.Warn(ctx, "stock ledger drift detected", "store_id", storeID, "rows", len(drift))
	}
	return drift, nil
}
