package unpacking

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/security"
	"retailcore/internal/domain"
	"retailcore/internal/domain/registers/stock"
)

// CreateInput holds the fields of a new unpacking.
type CreateInput struct {
	StoreID         id.ID
	UnpackingDate   time.Time
	SourceProductID id.ID
	SourceQuantity  int64
	ResultProductID id.ID
	ResultQuantity  int64
	ConversionRatio *decimal.Decimal
	Notes           string
}

// UpdateInput edits a draft. Nil fields are left unchanged.
type UpdateInput struct {
	Version         int
	UnpackingDate   *time.Time
	SourceProductID *id.ID
	SourceQuantity  *int64
	ResultProductID *id.ID
	ResultQuantity  *int64
	ConversionRatio *decimal.Decimal
	Notes           *string
}

// Service provides business operations for unpacking transactions.
type Service struct {
	*domain.DocumentService[*UnpackingTransaction]
}

// NewService creates a new unpacking service.
func NewService(deps domain.Deps, repo Repository) *Service {
	return &Service{
		DocumentService: domain.NewDocumentService(domain.DocumentServiceConfig[*UnpackingTransaction]{
			Deps:       deps,
			Kind:       NumeratorKind,
			Definition: Definition,
			Repo:       repo,
			Effect:     effect,
		}),
	}
}

// Create stores a new draft unpacking.
func (s *Service) Create(ctx context.Context, tenantID id.ID, actor security.Actor, in CreateInput) (*UnpackingTransaction, error) {
	doc := &UnpackingTransaction{
		ApprovableDocument: entity.NewApprovableDocument(tenantID, actor.ID),
		StoreID:            in.StoreID,
		UnpackingDate:      in.UnpackingDate,
		SourceProductID:    in.SourceProductID,
		SourceQuantity:     in.SourceQuantity,
		ResultProductID:    in.ResultProductID,
		ResultQuantity:     in.ResultQuantity,
		ConversionRatio:    in.ConversionRatio,
	}
	doc.Notes = in.Notes
	if err := s.DocumentService.Create(ctx, tenantID, actor, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update edits a draft unpacking.
func (s *Service) Update(ctx context.Context, tenantID, docID id.ID, actor security.Actor, in UpdateInput) (*UnpackingTransaction, error) {
	return s.DocumentService.Update(ctx, tenantID, docID, actor, in.Version, func(doc *UnpackingTransaction) error {
		if in.UnpackingDate != nil {
			doc.UnpackingDate = *in.UnpackingDate
		}
		if in.SourceProductID != nil {
			doc.SourceProductID = *in.SourceProductID
		}
		if in.SourceQuantity != nil {
			doc.SourceQuantity = *in.SourceQuantity
		}
		if in.ResultProductID != nil {
			doc.ResultProductID = *in.ResultProductID
		}
		if in.ResultQuantity != nil {
			doc.ResultQuantity = *in.ResultQuantity
		}
		if in.ConversionRatio != nil {
			doc.ConversionRatio = in.ConversionRatio
		}
		if in.Notes != nil {
			doc.Notes = *in.Notes
		}
		return nil
	})
}

// Process moves an approved unpacking to processed: OUT on the source and IN
// on the result, both or neither.
func (s *Service) Process(ctx context.Context, tenantID, docID id.ID, actor security.Actor) (*UnpackingTransaction, error) {
	doc, _, err := s.Complete(ctx, tenantID, docID, actor)
	return doc, err
}

func effect(_ context.Context, doc *UnpackingTransaction, actor security.Actor) (stock.Batch, error) {
	return stock.Batch{
		TenantID: doc.TenantID,
		StoreID:  doc.StoreID,
		Reference: entity.Reference{
			Type:   EntityName,
			ID:     doc.ID,
			Number: doc.UnpackingNumber,
		},
		ActorID: actor.ID,
		Lines: []stock.Line{
			{ProductID: doc.SourceProductID, Type: entity.MovementOut, Delta: -doc.SourceQuantity},
			{ProductID: doc.ResultProductID, Type: entity.MovementIn, Delta: doc.ResultQuantity},
		},
	}, nil
}
