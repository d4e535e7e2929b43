// Package entity provides core domain entities.
package entity

import (
	"context"
	"time"

	"retailcore/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	Validate(ctx context.Context) error
}

// Status is the workflow state of an approvable document.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"

	// Terminal states, one per document kind.
	StatusApplied   Status = "applied"
	StatusFinalized Status = "finalized"
	StatusProcessed Status = "processed"
	StatusReceived  Status = "received"
)

// IsTerminal reports whether s is one of the stock-mutating terminal states.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApplied, StatusFinalized, StatusProcessed, StatusReceived:
		return true
	}
	return false
}

// Workflow holds the state and the actor/timestamp pair of every transition.
type Workflow struct {
	Status Status `db:"status" json:"status"`

	SubmittedBy *id.ID     `db:"submitted_by" json:"submittedBy,omitempty"`
	SubmittedAt *time.Time `db:"submitted_at" json:"submittedAt,omitempty"`

	ApprovedBy *id.ID     `db:"approved_by" json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `db:"approved_at" json:"approvedAt,omitempty"`

	RejectedBy      *id.ID     `db:"rejected_by" json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time `db:"rejected_at" json:"rejectedAt,omitempty"`
	RejectionReason *string    `db:"rejection_reason" json:"rejectionReason,omitempty"`

	// CompletedBy/CompletedAt record the terminal transition (apply, finalize, process, receive).
	CompletedBy *id.ID     `db:"completed_by" json:"completedBy,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
}

// ApprovableDocument is the header shared by all inventory documents.
type ApprovableDocument struct {
	BaseDocument
	Workflow

	Notes string `db:"notes" json:"notes,omitempty"`
}

// NewApprovableDocument creates a draft header.
func NewApprovableDocument(tenantID, createdBy id.ID) ApprovableDocument {
	return ApprovableDocument{
		BaseDocument: NewBaseDocument(tenantID, createdBy),
		Workflow:     Workflow{Status: StatusDraft},
	}
}

// GetID returns the document ID.
func (d *ApprovableDocument) GetID() id.ID { return d.ID }

// GetTenantID returns the owning tenant.
func (d *ApprovableDocument) GetTenantID() id.ID { return d.TenantID }

// GetCreatedBy returns the creator.
func (d *ApprovableDocument) GetCreatedBy() id.ID { return d.CreatedBy }

// GetVersion returns the optimistic lock version.
func (d *ApprovableDocument) GetVersion() int { return d.Version }

// SetVersion is used by repositories after a successful write.
func (d *ApprovableDocument) SetVersion(v int) { d.Version = v }

// WorkflowState exposes the mutable workflow fields to the state machine.
func (d *ApprovableDocument) WorkflowState() *Workflow { return &d.Workflow }

// Header returns the shared header.
func (d *ApprovableDocument) Header() *ApprovableDocument { return d }
