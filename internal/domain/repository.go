// Package domain provides core business logic interfaces and types.
package domain

import (
	"context"
	"encoding/json"
	"time"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/workflow"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for document list operations.
type ListFilter struct {
	// Search matches the document number prefix and notes.
	Search string

	// IDs filters by specific IDs
	IDs []id.ID

	StoreID   *id.ID
	Statuses  []entity.Status
	CreatedBy *id.ID
	DateFrom  *time.Time
	DateTo    *time.Time

	// IncludeDeleted includes soft-deleted drafts
	IncludeDeleted bool

	// OrderBy specifies sorting (e.g., "number", "-created_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "-created_at",
	}
}

// Normalize clamps pagination to allowed bounds.
func (f *ListFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 500 {
		f.Limit = 500
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.OrderBy == "" {
		f.OrderBy = "-created_at"
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Documents ---

// Document is implemented by every inventory document kind.
type Document interface {
	workflow.Document
	entity.Validatable

	GetVersion() int
	SetVersion(v int)
	Header() *entity.ApprovableDocument

	// DocumentNumber returns the kind-specific number (adjustment_number, opname_number, ...).
	DocumentNumber() string
	SetDocumentNumber(number string)

	// DocumentDate is the business date used for numbering scope.
	DocumentDate() time.Time
}

// DocumentRepository defines persistence for one document kind, lines included.
// All methods take tenantID explicitly; implementations must filter on it.
type DocumentRepository[T Document] interface {
	// Create inserts header and lines. A number collision returns DUPLICATE_ENTRY.
	Create(ctx context.Context, doc T) error

	// GetByID returns a live document or NOT_FOUND.
	GetByID(ctx context.Context, tenantID, docID id.ID) (T, error)

	// GetForUpdate is GetByID holding a row lock until the transaction ends.
	GetForUpdate(ctx context.Context, tenantID, docID id.ID) (T, error)

	// Update writes header and lines with optimistic locking on version.
	// A stale version returns CONCURRENT_MODIFICATION.
	Update(ctx context.Context, doc T) error

	// List retrieves documents with filtering and pagination
	List(ctx context.Context, tenantID id.ID, filter ListFilter) (ListResult[T], error)
}

// AuditRecord describes one audited document change.
type AuditRecord struct {
	TenantID   id.ID
	EntityType string
	EntityID   id.ID
	Action     workflow.Action
	ActorID    id.ID
	Snapshot   any
	Metadata   map[string]any
}

// AuditRecorder persists audit records inside the caller's transaction.
type AuditRecorder interface {
	Record(ctx context.Context, rec AuditRecord) error
}

// AuditEntry is one stored audit record with its snapshot decoded.
type AuditEntry struct {
	ID         id.ID           `json:"id"`
	EntityType string          `json:"entityType"`
	EntityID   id.ID           `json:"entityId"`
	Action     string          `json:"action"`
	ActorID    id.ID           `json:"actorId"`
	Snapshot   json.RawMessage `json:"snapshot,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// AuditReader is implemented by recorders that can read the trail back.
type AuditReader interface {
	// History returns at most limit entries of one entity, newest first.
	History(ctx context.Context, tenantID id.ID, entityType string, entityID id.ID, limit int) ([]AuditEntry, error)
}

// NopAuditRecorder discards audit records.
type NopAuditRecorder struct{}

// Record implements AuditRecorder.
func (NopAuditRecorder) Record(context.Context, AuditRecord) error { return nil }

// --- Hooks ---

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	BeforeSubmit HookEvent = "before_submit"
	AfterCommit  HookEvent = "after_commit"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes all hooks for the specified event.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}
