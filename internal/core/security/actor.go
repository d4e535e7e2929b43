// Package security provides actor identity and capability checks.
//
// Roles are plain data carried by the Actor. Which roles grant which
// capability is decided by an Authorizer, so workflow code never hard-codes a
// role name.
package security

import (
	"retailcore/internal/core/id"
)

// Well-known role names issued by the identity provider.
const (
	RoleTenantOwner = "tenant_owner"
	RoleOwner       = "owner"
	RoleManager     = "manager"
	RoleCashier     = "cashier"
)

// Capability names a guarded workflow action.
type Capability string

const (
	// CapabilityApprove guards approve and reject.
	CapabilityApprove Capability = "document.approve"
	// CapabilityComplete guards the terminal stock mutation (apply, finalize, process, receive).
	CapabilityComplete Capability = "document.complete"
	// CapabilityCreate guards document creation.
	CapabilityCreate Capability = "document.create"
)

// Actor is the user performing an operation.
type Actor struct {
	ID       id.ID
	TenantID id.ID
	Roles    []string
}

// NewActor builds an Actor.
func NewActor(userID, tenantID id.ID, roles ...string) Actor {
	return Actor{ID: userID, TenantID: tenantID, Roles: roles}
}

// IsZero reports whether the actor is unset.
func (a Actor) IsZero() bool {
	return id.IsNil(a.ID)
}
