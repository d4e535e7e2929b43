package workflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/security"
)

type fixture struct {
	tenant  id.ID
	creator security.Actor
	owner   security.Actor
	other   security.Actor
	m       *Machine
}

func newFixture() fixture {
	tenant := id.New()
	return fixture{
		tenant:  tenant,
		creator: security.NewActor(id.New(), tenant, security.RoleCashier),
		owner:   security.NewActor(id.New(), tenant, security.RoleTenantOwner),
		other:   security.NewActor(id.New(), tenant, security.RoleCashier),
		m: NewMachine(Definition{
			Entity:       "stock_adjustment",
			Terminal:     entity.StatusApplied,
			TerminalVerb: "apply",
		}, security.MustDefaultPolicy()),
	}
}

func (f fixture) newDoc() *entity.ApprovableDocument {
	d := entity.NewApprovableDocument(f.tenant, f.creator.ID)
	return &d
}

func (f fixture) docIn(status entity.Status) *entity.ApprovableDocument {
	d := f.newDoc()
	d.Status = status
	return d
}

func TestMachine_HappyPath(t *testing.T) {
	f := newFixture()
	doc := f.newDoc()

	tr, err := f.m.Submit(doc, f.creator)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDraft, tr.From)
	assert.Equal(t, entity.StatusSubmitted, doc.Status)
	require.NotNil(t, doc.SubmittedBy)
	assert.Equal(t, f.creator.ID, *doc.SubmittedBy)
	assert.NotNil(t, doc.SubmittedAt)

	_, err = f.m.Approve(doc, f.owner)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, doc.Status)
	assert.Equal(t, f.owner.ID, *doc.ApprovedBy)

	tr, err = f.m.Complete(doc, f.other)
	require.NoError(t, err)
	assert.Equal(t, ActionComplete, tr.Action)
	assert.Equal(t, entity.StatusApplied, doc.Status)
	assert.Equal(t, f.other.ID, *doc.CompletedBy)
}

func TestMachine_SubmitRequiresCreator(t *testing.T) {
	f := newFixture()
	doc := f.newDoc()

	_, err := f.m.Submit(doc, f.other)
	assert.True(t, apperror.IsUnauthorized(err))
	assert.Equal(t, entity.StatusDraft, doc.Status)
	assert.Nil(t, doc.SubmittedBy)
}

func TestMachine_ApproveRequiresCapability(t *testing.T) {
	f := newFixture()
	doc := f.docIn(entity.StatusSubmitted)

	_, err := f.m.Approve(doc, f.creator)
	assert.True(t, apperror.IsUnauthorized(err))
	assert.Equal(t, entity.StatusSubmitted, doc.Status)

	foreignOwner := security.NewActor(id.New(), id.New(), security.RoleTenantOwner)
	_, err = f.m.Approve(doc, foreignOwner)
	assert.True(t, apperror.IsUnauthorized(err))
}

func TestMachine_Reject(t *testing.T) {
	f := newFixture()

	t.Run("requires reason", func(t *testing.T) {
		doc := f.docIn(entity.StatusSubmitted)
		_, err := f.m.Reject(doc, f.owner, "   ")
		assert.True(t, apperror.IsValidation(err))
		assert.Equal(t, entity.StatusSubmitted, doc.Status)
	})

	t.Run("reason length", func(t *testing.T) {
		doc := f.docIn(entity.StatusSubmitted)
		_, err := f.m.Reject(doc, f.owner, strings.Repeat("x", 501))
		assert.True(t, apperror.IsValidation(err))

		_, err = f.m.Reject(doc, f.owner, strings.Repeat("é", 500))
		assert.NoError(t, err)
	})

	t.Run("records reason", func(t *testing.T) {
		doc := f.docIn(entity.StatusSubmitted)
		tr, err := f.m.Reject(doc, f.owner, "  wrong product  ")
		require.NoError(t, err)
		assert.Equal(t, "wrong product", tr.Reason)
		assert.Equal(t, entity.StatusRejected, doc.Status)
		assert.Equal(t, "wrong product", *doc.RejectionReason)
		assert.Equal(t, f.owner.ID, *doc.RejectedBy)
	})
}

func TestMachine_TransitionLegality(t *testing.T) {
	f := newFixture()
	all := []entity.Status{
		entity.StatusDraft, entity.StatusSubmitted, entity.StatusApproved,
		entity.StatusRejected, entity.StatusApplied,
	}

	type op struct {
		name    string
		allowed entity.Status
		run     func(doc *entity.ApprovableDocument) error
	}
	ops := []op{
		{"submit", entity.StatusDraft, func(d *entity.ApprovableDocument) error { _, err := f.m.Submit(d, f.creator); return err }},
		{"approve", entity.StatusSubmitted, func(d *entity.ApprovableDocument) error { _, err := f.m.Approve(d, f.owner); return err }},
		{"reject", entity.StatusSubmitted, func(d *entity.ApprovableDocument) error { _, err := f.m.Reject(d, f.owner, "no"); return err }},
		{"complete", entity.StatusApproved, func(d *entity.ApprovableDocument) error { _, err := f.m.Complete(d, f.owner); return err }},
		{"delete", entity.StatusDraft, func(d *entity.ApprovableDocument) error { return f.m.CheckEditable(d, f.creator, ActionDelete) }},
	}

	for _, o := range ops {
		for _, s := range all {
			t.Run(o.name+"/"+string(s), func(t *testing.T) {
				doc := f.docIn(s)
				err := o.run(doc)
				switch {
				case s == o.allowed:
					assert.NoError(t, err)
				case o.name == "complete" && s == entity.StatusApplied:
					assert.True(t, apperror.IsAlreadyApplied(err), "got %v", err)
					assert.Equal(t, s, doc.Status)
				default:
					assert.True(t, apperror.IsIllegalTransition(err), "got %v", err)
					assert.Equal(t, s, doc.Status)
				}
			})
		}
	}
}

func TestMachine_CheckEditable(t *testing.T) {
	f := newFixture()
	doc := f.newDoc()

	assert.True(t, f.m.CanEdit(doc, f.creator))
	assert.False(t, f.m.CanEdit(doc, f.owner))
	assert.True(t, apperror.IsUnauthorized(f.m.CheckEditable(doc, f.owner, ActionUpdate)))
}
