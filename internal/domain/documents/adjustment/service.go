package adjustment

import (
	"context"
	"time"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/security"
	"retailcore/internal/domain"
	"retailcore/internal/domain/registers/stock"
)

// CreateInput holds the fields a creator supplies.
type CreateInput struct {
	StoreID        id.ID
	AdjustmentDate time.Time
	ProductID      id.ID
	Type           Type
	Quantity       int64
	Reason         Reason
	Notes          string
}

// UpdateInput holds the editable fields of a draft. Nil fields are left unchanged.
type UpdateInput struct {
	Version        int
	AdjustmentDate *time.Time
	ProductID      *id.ID
	Type           *Type
	Quantity       *int64
	Reason         *Reason
	Notes          *string
}

// Service provides business operations for stock adjustments.
type Service struct {
	*domain.DocumentService[*StockAdjustment]
}

// NewService creates a new stock adjustment service.
func NewService(deps domain.Deps, repo Repository) *Service {
	return &Service{
		DocumentService: domain.NewDocumentService(domain.DocumentServiceConfig[*StockAdjustment]{
			Deps:       deps,
			Kind:       NumeratorKind,
			Definition: Definition,
			Repo:       repo,
			Effect:     effect,
		}),
	}
}

// Create stores a new draft adjustment.
func (s *Service) Create(ctx context.Context, tenantID id.ID, actor security.Actor, in CreateInput) (*StockAdjustment, error) {
	doc := &StockAdjustment{
		ApprovableDocument: entity.NewApprovableDocument(tenantID, actor.ID),
		StoreID:            in.StoreID,
		AdjustmentDate:     in.AdjustmentDate,
		ProductID:          in.ProductID,
		Type:               in.Type,
		Quantity:           in.Quantity,
		Reason:             in.Reason,
	}
	doc.Notes = in.Notes
	if err := s.DocumentService.Create(ctx, tenantID, actor, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update edits a draft. The store cannot change after creation.
func (s *Service) Update(ctx context.Context, tenantID, docID id.ID, actor security.Actor, in UpdateInput) (*StockAdjustment, error) {
	return s.DocumentService.Update(ctx, tenantID, docID, actor, in.Version, func(doc *StockAdjustment) error {
		if in.AdjustmentDate != nil {
			doc.AdjustmentDate = *in.AdjustmentDate
		}
		if in.ProductID != nil {
			doc.ProductID = *in.ProductID
		}
		if in.Type != nil {
			doc.Type = *in.Type
		}
		if in.Quantity != nil {
			doc.Quantity = *in.Quantity
		}
		if in.Reason != nil {
			doc.Reason = *in.Reason
		}
		if in.Notes != nil {
			doc.Notes = *in.Notes
		}
		return nil
	})
}

// Apply moves an approved adjustment to applied and posts its ADJ movement.
func (s *Service) Apply(ctx context.Context, tenantID, docID id.ID, actor security.Actor) (*StockAdjustment, error) {
	doc, _, err := s.Complete(ctx, tenantID, docID, actor)
	return doc, err
}

func effect(_ context.Context, doc *StockAdjustment, actor security.Actor) (stock.Batch, error) {
	return stock.Batch{
		TenantID: doc.TenantID,
		StoreID:  doc.StoreID,
		Reference: entity.Reference{
			Type:   EntityName,
			ID:     doc.ID,
			Number: doc.AdjustmentNumber,
		},
		ActorID: actor.ID,
		Lines: []stock.Line{{
			ProductID: doc.ProductID,
			Type:      entity.MovementAdjust,
			Delta:     doc.Delta(),
		}},
	}, nil
}
