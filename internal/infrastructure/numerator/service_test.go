package numerator

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	corenumerator "retailcore/internal/core/numerator"
	"retailcore/pkg/numerator"
)

// directRunner runs fn without a real savepoint.
type directRunner struct{ calls int }

func (d *directRunner) RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	d.calls++
	return fn(ctx)
}

type row struct {
	v   int64
	err error
}

func (r row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.v
	return nil
}

type counter struct {
	mu   sync.Mutex
	vals map[string]int64
	errs []error
}

func (c *counter) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.errs) > 0 {
		err := c.errs[0]
		c.errs = c.errs[1:]
		return row{err: err}
	}
	if c.vals == nil {
		c.vals = map[string]int64{}
	}
	k := args[0].(uuid.UUID).String() + args[1].(string)
	c.vals[k] += args[2].(int64)
	return row{v: c.vals[k]}
}

func newTestService(c *counter, attempts int) (*Service, *directRunner) {
	r := &directRunner{}
	return newService(r, func(context.Context) numerator.Querier { return c }, Config{
		MaxAttempts: attempts,
		Options:     numerator.DefaultOptions(),
	}), r
}

func TestNext_FormatsMonthlyNumbers(t *testing.T) {
	svc, _ := newTestService(&counter{}, 5)
	ctx := context.Background()
	tenant := id.New()
	jan := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	n, err := svc.Next(ctx, tenant, corenumerator.KindStockAdjustment, jan)
	require.NoError(t, err)
	assert.Equal(t, "ADJ-202601-00001", n)

	n, _ = svc.Next(ctx, tenant, corenumerator.KindStockAdjustment, jan)
	assert.Equal(t, "ADJ-202601-00002", n)

	n, _ = svc.Next(ctx, tenant, corenumerator.KindStockAdjustment, feb)
	assert.Equal(t, "ADJ-202602-00001", n)

	n, _ = svc.Next(ctx, tenant, corenumerator.KindPurchaseOrder, jan)
	assert.Equal(t, "PO-202601-00001", n)

	n, _ = svc.Next(ctx, id.New(), corenumerator.KindStockAdjustment, jan)
	assert.Equal(t, "ADJ-202601-00001", n)
}

func TestAssign_RetriesCollisionWithFreshNumber(t *testing.T) {
	svc, runner := newTestService(&counter{}, 5)
	taken := map[string]bool{"OPN-202601-00001": true, "OPN-202601-00002": true}

	var claimed []string
	number, err := svc.Assign(context.Background(), id.New(), corenumerator.KindStockOpname,
		time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		func(_ context.Context, n string) error {
			claimed = append(claimed, n)
			if taken[n] {
				return apperror.NewDuplicate("stock_opname", "opname_number", n)
			}
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, "OPN-202601-00003", number)
	assert.Equal(t, []string{"OPN-202601-00001", "OPN-202601-00002", "OPN-202601-00003"}, claimed)
	assert.Equal(t, 6, runner.calls)
}

func TestAssign_RetriesTransientSequenceErrors(t *testing.T) {
	c := &counter{errs: []error{&pgconn.PgError{Code: "40P01"}}}
	svc, _ := newTestService(c, 5)

	number, err := svc.Assign(context.Background(), id.New(), corenumerator.KindUnpacking, time.Now(),
		func(context.Context, string) error { return nil })
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^UNP-\d{6}-00001$`), number)
}

func TestAssign_ExhaustionIsNumberingConflict(t *testing.T) {
	svc, _ := newTestService(&counter{}, 3)
	attempts := 0

	_, err := svc.Assign(context.Background(), id.New(), corenumerator.KindPurchaseOrder, time.Now(),
		func(_ context.Context, n string) error {
			attempts++
			return &pgconn.PgError{Code: "40001"}
		})

	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeNumberingConflict))
	assert.Equal(t, 3, attempts)
}

func TestAssign_OtherErrorsAreNotRetried(t *testing.T) {
	svc, _ := newTestService(&counter{}, 5)
	boom := errors.New("insert failed")
	attempts := 0

	_, err := svc.Assign(context.Background(), id.New(), corenumerator.KindStockAdjustment, time.Now(),
		func(context.Context, string) error {
			attempts++
			return boom
		})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}
