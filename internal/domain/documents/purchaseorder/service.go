package purchaseorder

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/security"
	"retailcore/internal/domain"
	"retailcore/internal/domain/registers/stock"
)

// ItemInput is one ordered product.
type ItemInput struct {
	ProductID id.ID
	Quantity  int64
	UnitPrice decimal.Decimal
}

// CreateInput holds the fields of a new order.
type CreateInput struct {
	StoreID      *id.ID
	SupplierID   id.ID
	OrderDate    time.Time
	ExpectedDate *time.Time
	Tax          decimal.Decimal
	Notes        string
	Items        []ItemInput
}

// UpdateInput edits a draft. Items, when non-nil, replace the item list.
type UpdateInput struct {
	Version      int
	SupplierID   *id.ID
	OrderDate    *time.Time
	ExpectedDate *time.Time
	Tax          *decimal.Decimal
	Notes        *string
	Items        []ItemInput
}

// Service provides business operations for purchase orders.
type Service struct {
	*domain.DocumentService[*PurchaseOrder]
}

// NewService creates a new purchase order service.
func NewService(deps domain.Deps, repo Repository) *Service {
	s := &Service{
		DocumentService: domain.NewDocumentService(domain.DocumentServiceConfig[*PurchaseOrder]{
			Deps:       deps,
			Kind:       NumeratorKind,
			Definition: Definition,
			Repo:       repo,
			Effect:     receiveInto(nil),
		}),
	}
	recalc := func(_ context.Context, p *PurchaseOrder) error {
		p.Recalculate()
		return nil
	}
	s.Hooks().On(domain.BeforeCreate, recalc)
	s.Hooks().On(domain.BeforeUpdate, recalc)
	return s
}

// Create stores a new draft order.
func (s *Service) Create(ctx context.Context, tenantID id.ID, actor security.Actor, in CreateInput) (*PurchaseOrder, error) {
	doc := &PurchaseOrder{
		ApprovableDocument: entity.NewApprovableDocument(tenantID, actor.ID),
		StoreID:            in.StoreID,
		SupplierID:         in.SupplierID,
		OrderDate:          in.OrderDate,
		ExpectedDate:       in.ExpectedDate,
		Tax:                in.Tax,
		Items:              buildItems(in.Items),
	}
	doc.Notes = in.Notes
	if err := s.DocumentService.Create(ctx, tenantID, actor, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update edits a draft order; totals are recomputed.
func (s *Service) Update(ctx context.Context, tenantID, docID id.ID, actor security.Actor, in UpdateInput) (*PurchaseOrder, error) {
	return s.DocumentService.Update(ctx, tenantID, docID, actor, in.Version, func(doc *PurchaseOrder) error {
		if in.SupplierID != nil {
			doc.SupplierID = *in.SupplierID
		}
		if in.OrderDate != nil {
			doc.OrderDate = *in.OrderDate
		}
		if in.ExpectedDate != nil {
			doc.ExpectedDate = in.ExpectedDate
		}
		if in.Tax != nil {
			doc.Tax = *in.Tax
		}
		if in.Notes != nil {
			doc.Notes = *in.Notes
		}
		if in.Items != nil {
			doc.Items = buildItems(in.Items)
		}
		return nil
	})
}

// Receive moves an approved order to received, posting one IN movement per line.
// storeID is required for a tenant-level order and must match the order's store otherwise.
func (s *Service) Receive(ctx context.Context, tenantID, docID id.ID, actor security.Actor, storeID *id.ID) (*PurchaseOrder, error) {
	doc, _, err := s.CompleteWith(ctx, tenantID, docID, actor, receiveInto(storeID))
	return doc, err
}

func buildItems(in []ItemInput) []Item {
	items := make([]Item, 0, len(in))
	for _, it := range in {
		items = append(items, Item{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return items
}

func receiveInto(receivingStore *id.ID) domain.EffectFunc[*PurchaseOrder] {
	return func(_ context.Context, doc *PurchaseOrder, actor security.Actor) (stock.Batch, error) {
		switch {
		case doc.StoreID == nil && (receivingStore == nil || id.IsNil(*receivingStore)):
			return stock.Batch{}, apperror.NewFieldValidation("storeId", "a receiving store is required for a tenant-level order")
		case doc.StoreID == nil:
			store := *receivingStore
			doc.StoreID = &store
		case receivingStore != nil && *receivingStore != *doc.StoreID:
			return stock.Batch{}, apperror.NewFieldValidation("storeId", "must match the order's store")
		}

		lines := make([]stock.Line, 0, len(doc.Items))
		for _, it := range doc.Items {
			lines = append(lines, stock.Line{
				ProductID: it.ProductID,
				Type:      entity.MovementIn,
				Delta:     it.Quantity,
			})
		}
		return stock.Batch{
			TenantID: doc.TenantID,
			StoreID:  *doc.StoreID,
			Reference: entity.Reference{
				Type:   EntityName,
				ID:     doc.ID,
				Number: doc.PONumber,
			},
			ActorID: actor.ID,
			Lines:   lines,
		}, nil
	}
}
