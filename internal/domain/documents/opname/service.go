package opname

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/security"
	"retailcore/internal/domain"
	"retailcore/internal/domain/registers/stock"
)

// ItemInput is one counted product as entered by the user.
type ItemInput struct {
	ProductID        id.ID
	PhysicalQuantity int64
	VarianceReason   string
	UnitCost         decimal.Decimal
}

// CreateInput holds the fields of a new count.
type CreateInput struct {
	StoreID    id.ID
	OpnameDate time.Time
	Notes      string
	Items      []ItemInput
}

// UpdateInput edits a draft. Items, when non-nil, replace the item list;
// products already on the count keep their system quantity snapshot.
type UpdateInput struct {
	Version    int
	OpnameDate *time.Time
	Notes      *string
	Items      []ItemInput
}

// Service provides business operations for stock opnames.
type Service struct {
	*domain.DocumentService[*StockOpname]
	stock *stock.Service
}

// NewService creates a new stock opname service.
func NewService(deps domain.Deps, repo Repository) *Service {
	s := &Service{
		DocumentService: domain.NewDocumentService(domain.DocumentServiceConfig[*StockOpname]{
			Deps:       deps,
			Kind:       NumeratorKind,
			Definition: Definition,
			Repo:       repo,
			Effect:     effect,
		}),
		stock: deps.Stock,
	}
	recalc := func(_ context.Context, o *StockOpname) error {
		o.Recalculate()
		return nil
	}
	s.Hooks().On(domain.BeforeCreate, recalc)
	s.Hooks().On(domain.BeforeUpdate, recalc)
	s.Hooks().On(domain.BeforeSubmit, func(_ context.Context, o *StockOpname) error {
		return o.CheckReasons()
	})
	return s
}

// Create stores a new draft count, snapshotting current quantities as system quantities.
func (s *Service) Create(ctx context.Context, tenantID id.ID, actor security.Actor, in CreateInput) (*StockOpname, error) {
	doc := &StockOpname{
		ApprovableDocument: entity.NewApprovableDocument(tenantID, actor.ID),
		StoreID:            in.StoreID,
		OpnameDate:         in.OpnameDate,
	}
	doc.Notes = in.Notes

	items, err := s.buildItems(ctx, tenantID, in.StoreID, nil, in.Items)
	if err != nil {
		return nil, err
	}
	doc.Items = items

	if err := s.DocumentService.Create(ctx, tenantID, actor, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update edits a draft count; variance and the cached total are recomputed.
func (s *Service) Update(ctx context.Context, tenantID, docID id.ID, actor security.Actor, in UpdateInput) (*StockOpname, error) {
	return s.DocumentService.Update(ctx, tenantID, docID, actor, in.Version, func(doc *StockOpname) error {
		if in.OpnameDate != nil {
			doc.OpnameDate = *in.OpnameDate
		}
		if in.Notes != nil {
			doc.Notes = *in.Notes
		}
		if in.Items != nil {
			items, err := s.buildItems(ctx, tenantID, doc.StoreID, doc.Items, in.Items)
			if err != nil {
				return err
			}
			doc.Items = items
		}
		return nil
	})
}

// Finalize moves an approved count to finalized, posting one OPNAME movement
// per non-zero variance and stamping the count date on every counted product.
func (s *Service) Finalize(ctx context.Context, tenantID, docID id.ID, actor security.Actor) (*StockOpname, error) {
	doc, _, err := s.Complete(ctx, tenantID, docID, actor)
	return doc, err
}

func (s *Service) buildItems(ctx context.Context, tenantID, storeID id.ID, existing []Item, in []ItemInput) ([]Item, error) {
	snapshot := make(map[id.ID]int64, len(existing))
	for _, it := range existing {
		snapshot[it.ProductID] = it.SystemQuantity
	}

	var missing []id.ID
	for _, it := range in {
		if _, ok := snapshot[it.ProductID]; !ok {
			missing = append(missing, it.ProductID)
		}
	}
	if len(missing) > 0 && !id.IsNil(storeID) {
		current, err := s.stock.Quantities(ctx, tenantID, storeID, missing)
		if err != nil {
			return nil, fmt.Errorf("snapshot quantities: %w", err)
		}
		for pid, q := range current {
			snapshot[pid] = q
		}
	}

	items := make([]Item, 0, len(in))
	for _, it := range in {
		items = append(items, Item{
			ID:               id.New(),
			ProductID:        it.ProductID,
			SystemQuantity:   snapshot[it.ProductID],
			PhysicalQuantity: it.PhysicalQuantity,
			VarianceReason:   it.VarianceReason,
			UnitCost:         it.UnitCost,
		})
	}
	return items, nil
}

func effect(_ context.Context, doc *StockOpname, actor security.Actor) (stock.Batch, error) {
	lines := make([]stock.Line, 0, len(doc.Items))
	for _, it := range doc.Items {
		lines = append(lines, stock.Line{
			ProductID: it.ProductID,
			Type:      entity.MovementOpname,
			Delta:     it.Variance,
		})
	}
	counted := doc.OpnameDate
	return stock.Batch{
		TenantID: doc.TenantID,
		StoreID:  doc.StoreID,
		Reference: entity.Reference{
			Type:   EntityName,
			ID:     doc.ID,
			Number: doc.OpnameNumber,
		},
		ActorID:         actor.ID,
		Lines:           lines,
		CountedAt:       &counted,
		CountedProducts: doc.Products(),
	}, nil
}
