package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"retailcore/internal/core/apperror"
)

// SQLSTATE codes the repositories react to.
const (
	sqlStateUniqueViolation      = "23505"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// IsUniqueViolation reports whether err is a unique constraint violation,
// optionally on a specific constraint.
func IsUniqueViolation(err error, constraint ...string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != sqlStateUniqueViolation {
		return false
	}
	if len(constraint) == 0 {
		return true
	}
	for _, c := range constraint {
		if pgErr.ConstraintName == c {
			return true
		}
	}
	return false
}

// IsRetryable reports whether the transaction failed on a serialization
// failure or a deadlock and may succeed when run again.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected
}

// MapDuplicate converts a unique violation into a DUPLICATE_ENTRY AppError and
// returns any other error unchanged.
func MapDuplicate(err error, entity, field, value string) error {
	if IsUniqueViolation(err) {
		return apperror.NewDuplicate(entity, field, value).WithCause(err)
	}
	return err
}
