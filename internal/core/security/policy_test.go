package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
)

func TestCELPolicy_DefaultApprove(t *testing.T) {
	p := MustDefaultPolicy()
	tenant := id.New()

	owner := NewActor(id.New(), tenant, RoleTenantOwner)
	cashier := NewActor(id.New(), tenant, RoleCashier)

	assert.NoError(t, p.Require(owner, CapabilityApprove, tenant))

	err := p.Require(cashier, CapabilityApprove, tenant)
	require.Error(t, err)
	assert.True(t, apperror.IsUnauthorized(err))

	assert.NoError(t, p.Require(cashier, CapabilityComplete, tenant))
}

func TestCELPolicy_TenantMismatch(t *testing.T) {
	p := MustDefaultPolicy()
	owner := NewActor(id.New(), id.New(), RoleTenantOwner)

	err := p.Require(owner, CapabilityApprove, id.New())
	assert.True(t, apperror.IsUnauthorized(err))
}

func TestCELPolicy_CustomRule(t *testing.T) {
	p, err := NewCELPolicy(map[Capability]string{
		CapabilityApprove: `roles.exists(r, r == 'manager' || r == 'tenant_owner')`,
	})
	require.NoError(t, err)

	tenant := id.New()
	assert.NoError(t, p.Require(NewActor(id.New(), tenant, RoleManager), CapabilityApprove, tenant))
	// No rule installed for complete.
	assert.Error(t, p.Require(NewActor(id.New(), tenant, RoleManager), CapabilityComplete, tenant))
}

func TestCELPolicy_RejectsNonBoolRule(t *testing.T) {
	_, err := NewCELPolicy(map[Capability]string{CapabilityApprove: `size(roles)`})
	assert.Error(t, err)
}

func TestCELPolicy_NilRoles(t *testing.T) {
	p := MustDefaultPolicy()
	tenant := id.New()
	err := p.Require(Actor{ID: id.New(), TenantID: tenant}, CapabilityComplete, tenant)
	assert.True(t, apperror.IsUnauthorized(err))
}
