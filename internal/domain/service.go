package domain

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/numerator"
	"retailcore/internal/core/security"
	"retailcore/internal/core/tx"
	"retailcore/internal/domain/events"
	"retailcore/internal/domain/registers/stock"
	"retailcore/internal/domain/workflow"
	"retailcore/pkg/logger"
)

var tracer = otel.Tracer("retailcore/documents")

// EffectFunc builds the stock batch of a document's terminal transition.
// It runs inside the completing transaction, after the workflow check.
type EffectFunc[T Document] func(ctx context.Context, doc T, actor security.Actor) (stock.Batch, error)

// DocumentService provides the shared lifecycle of an approvable inventory document:
// numbered creation, draft edits, the approval workflow and the stock-mutating
// terminal transition.
type DocumentService[T Document] struct {
	kind      numerator.Kind
	machine   *workflow.Machine
	repo      DocumentRepository[T]
	txManager tx.Manager
	numerator numerator.Generator
	authz     security.Authorizer
	stock     *stock.Service
	effect    EffectFunc[T]
	publisher events.Publisher
	audit     AuditRecorder
	hooks     *HookRegistry[T]
}

// Deps are the collaborators shared by every document kind.
type Deps struct {
	TxManager  tx.Manager
	Numerator  numerator.Generator
	Authorizer security.Authorizer
	Stock      *stock.Service
	Publisher  events.Publisher // Optional
	Audit      AuditRecorder    // Optional
}

// DocumentServiceConfig configures the document service.
type DocumentServiceConfig[T Document] struct {
	Deps
	Kind       numerator.Kind
	Definition workflow.Definition
	Repo       DocumentRepository[T]
	Effect     EffectFunc[T]
}

// NewDocumentService creates a new document service.
func NewDocumentService[T Document](cfg DocumentServiceConfig[T]) *DocumentService[T] {
	if cfg.Publisher == nil {
		cfg.Publisher = events.NopPublisher{}
	}
	if cfg.Audit == nil {
		cfg.Audit = NopAuditRecorder{}
	}
	return &DocumentService[T]{
		kind:      cfg.Kind,
		machine:   workflow.NewMachine(cfg.Definition, cfg.Authorizer),
		repo:      cfg.Repo,
		txManager: cfg.TxManager,
		numerator: cfg.Numerator,
		authz:     cfg.Authorizer,
		stock:     cfg.Stock,
		effect:    cfg.Effect,
		publisher: cfg.Publisher,
		audit:     cfg.Audit,
		hooks:     NewHookRegistry[T](),
	}
}

// Hooks returns the hook registry for external registration.
func (s *DocumentService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// Machine returns the workflow machine of this kind.
func (s *DocumentService[T]) Machine() *workflow.Machine {
	return s.machine
}

func (s *DocumentService[T]) entityName() string {
	return s.machine.Definition().Entity
}

// Create assigns the next number and stores doc as a draft of tenantID owned by actor.
func (s *DocumentService[T]) Create(ctx context.Context, tenantID id.ID, actor security.Actor, doc T) error {
	h := doc.Header()
	if err := s.authz.Require(actor, security.CapabilityCreate, tenantID); err != nil {
		return err
	}
	h.TenantID = tenantID
	h.CreatedBy = actor.ID
	h.Workflow = entity.Workflow{Status: entity.StatusDraft}

	if err := s.hooks.Run(ctx, BeforeCreate, doc); err != nil {
		return err
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, s.entityName()+".create")
	defer span.End()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		claim := func(ctx context.Context, number string) error {
			doc.SetDocumentNumber(number)
			return s.repo.Create(ctx, doc)
		}
		if _, err := s.numerator.Assign(ctx, h.TenantID, s.kind, doc.DocumentDate(), claim); err != nil {
			return err
		}
		return s.recordAudit(ctx, doc, workflow.ActionCreate, actor, nil)
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	logger.Info(ctx, "document created",
		"entity", s.entityName(),
		"id", h.ID,
		"number", doc.DocumentNumber())
	return nil
}

// Get retrieves a document with lines.
func (s *DocumentService[T]) Get(ctx context.Context, tenantID, docID id.ID) (T, error) {
	return s.repo.GetByID(ctx, tenantID, docID)
}

// History returns the audit trail of a document, newest first. It is empty
// when the configured recorder cannot read entries back.
func (s *DocumentService[T]) History(ctx context.Context, tenantID, docID id.ID, limit int) ([]AuditEntry, error) {
	if _, err := s.repo.GetByID(ctx, tenantID, docID); err != nil {
		return nil, err
	}
	reader, ok := s.audit.(AuditReader)
	if !ok {
		return []AuditEntry{}, nil
	}
	entries, err := reader.History(ctx, tenantID, s.entityName(), docID, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []AuditEntry{}
	}
	return entries, nil
}

// List retrieves documents with filtering.
func (s *DocumentService[T]) List(ctx context.Context, tenantID id.ID, filter ListFilter) (ListResult[T], error) {
	filter.Normalize()
	return s.repo.List(ctx, tenantID, filter)
}

// Update applies mutate to a draft owned by actor. A non-zero expectedVersion
// must match the stored version.
func (s *DocumentService[T]) Update(
	ctx context.Context,
	tenantID, docID id.ID,
	actor security.Actor,
	expectedVersion int,
	mutate func(doc T) error,
) (T, error) {
	var out T
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, tenantID, docID)
		if err != nil {
			return err
		}
		if expectedVersion != 0 && doc.GetVersion() != expectedVersion {
			return apperror.NewConcurrentModification(s.entityName(), docID)
		}
		if err := s.machine.CheckEditable(doc, actor, workflow.ActionUpdate); err != nil {
			return err
		}
		if err := mutate(doc); err != nil {
			return err
		}
		if err := s.hooks.Run(ctx, BeforeUpdate, doc); err != nil {
			return err
		}
		if err := doc.Validate(ctx); err != nil {
			return err
		}
		doc.Header().Touch()
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		out = doc
		return s.recordAudit(ctx, doc, workflow.ActionUpdate, actor, nil)
	})
	return out, err
}

// Delete soft-deletes a draft owned by actor.
func (s *DocumentService[T]) Delete(ctx context.Context, tenantID, docID id.ID, actor security.Actor) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, tenantID, docID)
		if err != nil {
			return err
		}
		if err := s.machine.CheckEditable(doc, actor, workflow.ActionDelete); err != nil {
			return err
		}
		doc.Header().MarkDeleted()
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
		return s.recordAudit(ctx, doc, workflow.ActionDelete, actor, nil)
	})
}

// Submit moves a draft to submitted.
func (s *DocumentService[T]) Submit(ctx context.Context, tenantID, docID id.ID, actor security.Actor) (T, error) {
	return s.transition(ctx, tenantID, docID, workflow.ActionSubmit, func(ctx context.Context, doc T) (workflow.Transition, error) {
		t, err := s.machine.Submit(doc, actor)
		if err != nil {
			return t, err
		}
		return t, s.hooks.Run(ctx, BeforeSubmit, doc)
	})
}

// Approve moves a submitted document to approved.
func (s *DocumentService[T]) Approve(ctx context.Context, tenantID, docID id.ID, actor security.Actor) (T, error) {
	return s.transition(ctx, tenantID, docID, workflow.ActionApprove, func(_ context.Context, doc T) (workflow.Transition, error) {
		return s.machine.Approve(doc, actor)
	})
}

// Reject moves a submitted document to rejected.
func (s *DocumentService[T]) Reject(ctx context.Context, tenantID, docID id.ID, actor security.Actor, reason string) (T, error) {
	return s.transition(ctx, tenantID, docID, workflow.ActionReject, func(_ context.Context, doc T) (workflow.Transition, error) {
		return s.machine.Reject(doc, actor, reason)
	})
}

// Complete performs the terminal transition and its stock effect atomically.
// Either the status change and every movement commit together, or nothing does.
func (s *DocumentService[T]) Complete(ctx context.Context, tenantID, docID id.ID, actor security.Actor) (T, *stock.Result, error) {
	return s.CompleteWith(ctx, tenantID, docID, actor, s.effect)
}

// CompleteWith is Complete with a call-specific effect, for terminal
// transitions that take extra input.
func (s *DocumentService[T]) CompleteWith(ctx context.Context, tenantID, docID id.ID, actor security.Actor, effect EffectFunc[T]) (T, *stock.Result, error) {
	var result *stock.Result
	doc, err := s.transition(ctx, tenantID, docID, workflow.ActionComplete, func(ctx context.Context, doc T) (workflow.Transition, error) {
		t, err := s.machine.Complete(doc, actor)
		if err != nil {
			return t, err
		}
		batch, err := effect(ctx, doc, actor)
		if err != nil {
			return t, err
		}
		result, err = s.stock.Apply(ctx, batch)
		return t, err
	})
	if err != nil {
		return doc, nil, err
	}
	return doc, result, nil
}

type stepFunc[T Document] func(ctx context.Context, doc T) (workflow.Transition, error)

// transition locks the document, runs step and persists the result with its
// audit record and outbox event in one transaction.
func (s *DocumentService[T]) transition(ctx context.Context, tenantID, docID id.ID, action workflow.Action, step stepFunc[T]) (T, error) {
	ctx, span := tracer.Start(ctx, s.entityName()+"."+string(action), trace.WithAttributes(
		attribute.String("document.id", docID.String()),
	))
	defer span.End()

	var (
		out T
		t   workflow.Transition
	)
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, tenantID, docID)
		if err != nil {
			return err
		}
		t, err = step(ctx, doc)
		if err != nil {
			return err
		}
		doc.Header().Touch()
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("save %s: %w", action, err)
		}
		if err := s.publisher.Publish(ctx, s.transitionEvent(doc, t)); err != nil {
			return fmt.Errorf("publish transition: %w", err)
		}
		out = doc
		return s.recordAudit(ctx, doc, action, security.Actor{ID: t.ActorID}, map[string]any{
			"from":   t.From,
			"to":     t.To,
			"reason": t.Reason,
		})
	})
	if err != nil {
		span.RecordError(err)
		logger.Debug(ctx, "document transition refused",
			"entity", s.entityName(), "id", docID, "action", action, "error", err)
		return out, err
	}

	logger.Info(ctx, "document transitioned",
		"entity", s.entityName(),
		"id", docID,
		"number", out.DocumentNumber(),
		"from", t.From,
		"to", t.To,
		"actor_id", t.ActorID)

	if err := s.hooks.Run(ctx, AfterCommit, out); err != nil {
		logger.Warn(ctx, "after-commit hook failed", "entity", s.entityName(), "error", err)
	}
	return out, nil
}

func (s *DocumentService[T]) transitionEvent(doc T, t workflow.Transition) events.Event {
	return events.Event{
		TenantID:      doc.GetTenantID(),
		AggregateType: s.entityName(),
		AggregateID:   doc.GetID(),
		Type:          events.TypeDocumentTransitioned,
		Payload: events.DocumentTransitionedPayload{
			Entity:  s.entityName(),
			Number:  doc.DocumentNumber(),
			Action:  string(t.Action),
			From:    string(t.From),
			To:      string(t.To),
			ActorID: t.ActorID,
			At:      t.At,
		},
	}
}

func (s *DocumentService[T]) recordAudit(ctx context.Context, doc T, action workflow.Action, actor security.Actor, meta map[string]any) error {
	if err := s.audit.Record(ctx, AuditRecord{
		TenantID:   doc.GetTenantID(),
		EntityType: s.entityName(),
		EntityID:   doc.GetID(),
		Action:     action,
		ActorID:    actor.ID,
		Snapshot:   doc,
		Metadata:   meta,
	}); err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}
