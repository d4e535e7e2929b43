// Package context provides request-scoped values extraction.
// Values stored here are used for logging and audit enrichment only; domain
// operations receive tenant and actor as explicit arguments.
package context

import "context"

// UserContext contains authenticated user information.
type UserContext struct {
	UserID    string
	TenantID  string
	Roles     []string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}
