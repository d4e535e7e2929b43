// Package workflow implements the approval state machine shared by every
// inventory document:
//
//	draft -> submitted -> approved -> <terminal>
//	                   \-> rejected
//
// rejected and the terminal state are absorbing. Each transition is a total
// function of (status, actor, document): it either mutates the document's
// workflow fields and returns the Transition, or returns an AppError and
// leaves the document untouched.
package workflow

import (
	"strings"
	"time"
	"unicode/utf8"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/security"
)

// MaxRejectionReasonLength bounds the rejection reason, in characters.
const MaxRejectionReasonLength = 500

// Action names a workflow operation.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionSubmit   Action = "submit"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionComplete Action = "complete"
	ActionDelete   Action = "delete"
)

// Document is anything carrying an approval workflow.
type Document interface {
	GetID() id.ID
	GetTenantID() id.ID
	GetCreatedBy() id.ID
	WorkflowState() *entity.Workflow
}

// Definition describes one document kind.
type Definition struct {
	// Entity is the machine name used in errors and audit ("stock_adjustment").
	Entity string
	// Terminal is the status reached by the stock-mutating transition.
	Terminal entity.Status
	// TerminalVerb is the user-facing name of the terminal transition ("apply").
	TerminalVerb string
}

// Transition records a successful state change.
type Transition struct {
	Action  Action        `json:"action"`
	From    entity.Status `json:"from"`
	To      entity.Status `json:"to"`
	ActorID id.ID         `json:"actorId"`
	At      time.Time     `json:"at"`
	Reason  string        `json:"reason,omitempty"`
}

// Machine enforces transitions for one Definition.
type Machine struct {
	def   Definition
	authz security.Authorizer
	now   func() time.Time
}

// NewMachine creates a Machine.
func NewMachine(def Definition, authz security.Authorizer) *Machine {
	return &Machine{
		def:   def,
		authz: authz,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Definition returns the kind this machine governs.
func (m *Machine) Definition() Definition { return m.def }

// Submit moves a draft to submitted. Only the creator may submit.
func (m *Machine) Submit(doc Document, actor security.Actor) (Transition, error) {
	wf := doc.WorkflowState()
	if wf.Status != entity.StatusDraft {
		return Transition{}, m.illegal(ActionSubmit, wf.Status)
	}
	if err := m.requireCreator(doc, actor, ActionSubmit); err != nil {
		return Transition{}, err
	}

	t := m.transition(ActionSubmit, wf.Status, entity.StatusSubmitted, actor)
	wf.Status = t.To
	wf.SubmittedBy = ptr(actor.ID)
	wf.SubmittedAt = ptr(t.At)
	return t, nil
}

// Approve moves a submitted document to approved. Requires the approve capability.
func (m *Machine) Approve(doc Document, actor security.Actor) (Transition, error) {
	wf := doc.WorkflowState()
	if wf.Status != entity.StatusSubmitted {
		return Transition{}, m.illegal(ActionApprove, wf.Status)
	}
	if err := m.authz.Require(actor, security.CapabilityApprove, doc.GetTenantID()); err != nil {
		return Transition{}, err
	}

	t := m.transition(ActionApprove, wf.Status, entity.StatusApproved, actor)
	wf.Status = t.To
	wf.ApprovedBy = ptr(actor.ID)
	wf.ApprovedAt = ptr(t.At)
	return t, nil
}

// Reject moves a submitted document to rejected with a mandatory reason.
func (m *Machine) Reject(doc Document, actor security.Actor, reason string) (Transition, error) {
	wf := doc.WorkflowState()
	if wf.Status != entity.StatusSubmitted {
		return Transition{}, m.illegal(ActionReject, wf.Status)
	}
	if err := m.authz.Require(actor, security.CapabilityApprove, doc.GetTenantID()); err != nil {
		return Transition{}, err
	}
	reason, err := NormalizeReason(reason)
	if err != nil {
		return Transition{}, err
	}

	t := m.transition(ActionReject, wf.Status, entity.StatusRejected, actor)
	t.Reason = reason
	wf.Status = t.To
	wf.RejectedBy = ptr(actor.ID)
	wf.RejectedAt = ptr(t.At)
	wf.RejectionReason = ptr(reason)
	return t, nil
}

// Complete moves an approved document to the kind's terminal status.
// A document already in the terminal status yields ALREADY_APPLIED.
// The caller performs the stock mutation inside the same transaction.
func (m *Machine) Complete(doc Document, actor security.Actor) (Transition, error) {
	wf := doc.WorkflowState()
	if wf.Status.IsTerminal() {
		return Transition{}, apperror.NewAlreadyApplied(m.def.Entity, doc.GetID().String(), string(wf.Status))
	}
	if wf.Status != entity.StatusApproved {
		return Transition{}, apperror.NewIllegalTransition(m.def.TerminalVerb, string(wf.Status)).
			WithDetail("entity", m.def.Entity)
	}
	if err := m.authz.Require(actor, security.CapabilityComplete, doc.GetTenantID()); err != nil {
		return Transition{}, err
	}

	t := m.transition(ActionComplete, wf.Status, m.def.Terminal, actor)
	wf.Status = t.To
	wf.CompletedBy = ptr(actor.ID)
	wf.CompletedAt = ptr(t.At)
	return t, nil
}

// CheckEditable allows edit and delete only on drafts and only by the creator.
func (m *Machine) CheckEditable(doc Document, actor security.Actor, action Action) error {
	wf := doc.WorkflowState()
	if wf.Status != entity.StatusDraft {
		return m.illegal(action, wf.Status)
	}
	return m.requireCreator(doc, actor, action)
}

// CanEdit is the boolean form of CheckEditable, for read models.
func (m *Machine) CanEdit(doc Document, actor security.Actor) bool {
	return m.CheckEditable(doc, actor, ActionUpdate) == nil
}

// NormalizeReason trims reason and enforces presence and the length limit.
func NormalizeReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", apperror.NewFieldValidation("reason", "rejection reason is required")
	}
	if utf8.RuneCountInString(reason) > MaxRejectionReasonLength {
		return "", apperror.NewFieldValidation("reason", "rejection reason must be at most 500 characters").
			WithDetail("max", MaxRejectionReasonLength)
	}
	return reason, nil
}

func (m *Machine) requireCreator(doc Document, actor security.Actor, action Action) error {
	if actor.IsZero() || actor.TenantID != doc.GetTenantID() || actor.ID != doc.GetCreatedBy() {
		return apperror.NewUnauthorized("only the creator may " + string(action) + " this document").
			WithDetail("entity", m.def.Entity).
			WithDetail("action", string(action))
	}
	return nil
}

func (m *Machine) illegal(action Action, from entity.Status) error {
	return apperror.NewIllegalTransition(string(action), string(from)).
		WithDetail("entity", m.def.Entity)
}

func (m *Machine) transition(action Action, from, to entity.Status, actor security.Actor) Transition {
	return Transition{Action: action, From: from, To: to, ActorID: actor.ID, At: m.now()}
}

func ptr[T any](v T) *T { return &v }
