package numerator

import (
	"context"
	"time"

	"retailcore/internal/core/id"
)

// ClaimFunc persists a document under number. It returns a DUPLICATE_ENTRY
// AppError when the number is already taken.
type ClaimFunc func(ctx context.Context, number string) error

// Generator generates sequential document numbers.
// Implementations live in infrastructure layer.
type Generator interface {
	// Next returns the next number for kind within tenantID and the period containing scopeDate.
	// Numbers are unique under concurrent callers.
	Next(ctx context.Context, tenantID id.ID, kind Kind, scopeDate time.Time) (string, error)

	// Assign draws numbers and hands each to claim until one is accepted.
	// Collisions and transient database conflicts are retried a bounded number
	// of times, after which a NumberingConflict AppError is returned.
	Assign(ctx context.Context, tenantID id.ID, kind Kind, scopeDate time.Time, claim ClaimFunc) (string, error)
}
