package security

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
)

// Authorizer decides whether an actor may exercise a capability within a tenant.
type Authorizer interface {
	Require(actor Actor, capability Capability, tenantID id.ID) error
}

// DefaultRules are the capability expressions used when none are configured.
// Each expression sees `roles` (list of string) and `capability` (string).
var DefaultRules = map[Capability]string{
	CapabilityApprove:  `'tenant_owner' in roles || 'owner' in roles`,
	CapabilityComplete: `size(roles) > 0`,
	CapabilityCreate:   `size(roles) > 0`,
}

// CELPolicy evaluates per-capability CEL expressions over the actor's roles.
// Capabilities without a rule are denied.
type CELPolicy struct {
	mu       sync.RWMutex
	env      *cel.Env
	programs map[Capability]cel.Program
}

// NewCELPolicy compiles rules. Unknown capabilities are denied.
func NewCELPolicy(rules map[Capability]string) (*CELPolicy, error) {
	env, err := cel.NewEnv(
		cel.Variable("roles", cel.ListType(cel.StringType)),
		cel.Variable("capability", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	p := &CELPolicy{env: env, programs: make(map[Capability]cel.Program, len(rules))}
	for capability, expr := range rules {
		if err := p.SetRule(capability, expr); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// MustDefaultPolicy compiles DefaultRules and panics on failure.
func MustDefaultPolicy() *CELPolicy {
	p, err := NewCELPolicy(DefaultRules)
	if err != nil {
		panic(err)
	}
	return p
}

// SetRule compiles expr and installs it for capability.
func (p *CELPolicy) SetRule(capability Capability, expr string) error {
	ast, issues := p.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("compile rule for %s: %w", capability, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return fmt.Errorf("rule for %s must evaluate to bool, got %s", capability, ast.OutputType())
	}
	prg, err := p.env.Program(ast)
	if err != nil {
		return fmt.Errorf("program for %s: %w", capability, err)
	}

	p.mu.Lock()
	p.programs[capability] = prg
	p.mu.Unlock()
	return nil
}

// Require returns an Unauthorized AppError when the actor may not use capability in tenantID.
func (p *CELPolicy) Require(actor Actor, capability Capability, tenantID id.ID) error {
	if actor.IsZero() {
		return apperror.NewUnauthorized("actor is required")
	}
	if actor.TenantID != tenantID {
		return apperror.NewUnauthorized("actor does not belong to this tenant").
			WithDetail("tenant_id", tenantID.String())
	}

	p.mu.RLock()
	prg, ok := p.programs[capability]
	p.mu.RUnlock()
	if !ok {
		return apperror.NewUnauthorized(fmt.Sprintf("capability %s is not granted", capability)).
			WithDetail("capability", string(capability))
	}

	roles := actor.Roles
	if roles == nil {
		roles = []string{}
	}
	out, _, err := prg.Eval(map[string]any{
		"roles":      roles,
		"capability": string(capability),
	})
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("evaluate rule for %s: %w", capability, err))
	}
	if allowed, _ := out.Value().(bool); !allowed {
		return apperror.NewUnauthorized(fmt.Sprintf("capability %s is not granted", capability)).
			WithDetail("capability", string(capability))
	}
	return nil
}

var _ Authorizer = (*CELPolicy)(nil)
