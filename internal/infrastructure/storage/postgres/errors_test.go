package postgres

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"retailcore/internal/core/apperror"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "stock_adjustments_number_key"})

	assert.True(t, IsUniqueViolation(err))
	assert.True(t, IsUniqueViolation(err, "stock_adjustments_number_key"))
	assert.False(t, IsUniqueViolation(err, "other_key"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsRetryable(fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40P01"})))
	assert.False(t, IsRetryable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsRetryable(pgx.ErrNoRows))
}

func TestMapDuplicate(t *testing.T) {
	err := MapDuplicate(&pgconn.PgError{Code: "23505"}, "stock_adjustment", "number", "ADJ-202601-00001")
	assert.True(t, apperror.IsDuplicate(err))

	plain := fmt.Errorf("boom")
	assert.Same(t, plain, MapDuplicate(plain, "x", "y", "z"))
}
