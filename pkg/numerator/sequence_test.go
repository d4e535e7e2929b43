package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type mockRow struct {
	val int64
	err error
}

func (m mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	*(dest[0].(*int64)) = m.val
	return nil
}

// mockQuerier emulates the sys_sequences upsert: args are (tenant, key, increment).
type mockQuerier struct {
	mu    sync.Mutex
	vals  map[string]int64
	calls int
	err   error
}

func (m *mockQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return mockRow{err: m.err}
	}
	if m.vals == nil {
		m.vals = map[string]int64{}
	}
	k := args[0].(uuid.UUID).String() + "/" + args[1].(string)
	m.vals[k] += args[2].(int64)
	return mockRow{val: m.vals[k]}
}

func TestSequencer_Strict(t *testing.T) {
	q := &mockQuerier{}
	s := NewSequencer()
	ctx := context.Background()
	tenant := uuid.New()

	for want := int64(1); want <= 3; want++ {
		n, err := s.Next(ctx, q, tenant, "ADJ_202601", DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
	assert.Equal(t, 3, q.calls)
}

func TestSequencer_StrictScopesByTenantAndKey(t *testing.T) {
	q := &mockQuerier{}
	s := NewSequencer()
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	n, _ := s.Next(ctx, q, a, "ADJ_202601", DefaultOptions())
	assert.Equal(t, int64(1), n)
	n, _ = s.Next(ctx, q, b, "ADJ_202601", DefaultOptions())
	assert.Equal(t, int64(1), n)
	n, _ = s.Next(ctx, q, a, "ADJ_202602", DefaultOptions())
	assert.Equal(t, int64(1), n)
	n, _ = s.Next(ctx, q, a, "ADJ_202601", DefaultOptions())
	assert.Equal(t, int64(2), n)
}

func TestSequencer_CachedReservesRanges(t *testing.T) {
	q := &mockQuerier{}
	s := NewSequencer()
	ctx := context.Background()
	tenant := uuid.New()
	opts := Options{Strategy: StrategyCached, RangeSize: 10}

	for want := int64(1); want <= 10; want++ {
		n, err := s.Next(ctx, q, tenant, "PO_202601", opts)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
	assert.Equal(t, 1, q.calls)

	n, err := s.Next(ctx, q, tenant, "PO_202601", opts)
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)
	assert.Equal(t, 2, q.calls)

	s.Forget(tenant)
	n, err = s.Next(ctx, q, tenant, "PO_202601", opts)
	require.NoError(t, err)
	assert.Equal(t, int64(21), n)
}

func TestSequencer_CachedConcurrentValuesAreUnique(t *testing.T) {
	q := &mockQuerier{}
	s := NewSequencer()
	tenant := uuid.New()
	opts := Options{Strategy: StrategyCached, RangeSize: 7}

	var mu sync.Mutex
	seen := map[int64]bool{}
	var g errgroup.Group
	for i := 0; i < 50; i++ {
		g.Go(func() error {
			n, err := s.Next(context.Background(), q, tenant, "UNP_202601", opts)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[n] {
				return errors.New("duplicate value")
			}
			seen[n] = true
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, seen, 50)
}

func TestSequencer_PropagatesErrors(t *testing.T) {
	q := &mockQuerier{err: errors.New("connection reset")}
	_, err := NewSequencer().Next(context.Background(), q, uuid.New(), "ADJ", DefaultOptions())
	assert.ErrorContains(t, err, "connection reset")
}

func TestKeyAndFormat(t *testing.T) {
	ts := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "ADJ_202603", Key("ADJ", "month", ts))
	assert.Equal(t, "ADJ_2026", Key("ADJ", "year", ts))
	assert.Equal(t, "ADJ", Key("ADJ", "never", ts))

	assert.Equal(t, "OPN-202603-00042", Format("OPN", ts, 5, 42))
	assert.Equal(t, "PO-202603-00001", Format("PO", ts, 0, 1))
	assert.Equal(t, "PO-202603-123456", Format("PO", ts, 5, 123456))
}

func TestParse(t *testing.T) {
	prefix, period, n, ok := Parse("UNP-202603-00007")
	require.True(t, ok)
	assert.Equal(t, "UNP", prefix)
	assert.Equal(t, "202603", period)
	assert.Equal(t, int64(7), n)

	for _, bad := range []string{"", "UNP-00007", "UNP-2026-00007", "UNP-202613-00001", "UNP-202603-abc", "-202603-00001"} {
		_, _, _, ok := Parse(bad)
		assert.False(t, ok, bad)
	}
}
