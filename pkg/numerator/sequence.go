// Package numerator is the sequence engine behind document numbers: per-tenant
// counters in sys_sequences, drawn one at a time or reserved in ranges.
package numerator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Strategy defines how counter values are drawn.
type Strategy int

const (
	// StrategyStrict increments the counter once per number inside the caller's
	// transaction. Gap-free as long as the transaction commits.
	StrategyStrict Strategy = iota

	// StrategyCached reserves RangeSize values per round-trip and hands them
	// out from memory. Gaps appear on restart. The reservation must be
	// committed on its own, so pass a pool querier, not a transaction.
	StrategyCached
)

// Options configures number generation.
type Options struct {
	Strategy  Strategy
	RangeSize int64
}

// DefaultOptions returns StrategyStrict.
func DefaultOptions() Options {
	return Options{Strategy: StrategyStrict}
}

// Querier is the subset of pgx used by the engine.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const upsertSQL = `
	INSERT INTO sys_sequences (tenant_id, seq_key, current_val)
	VALUES ($1, $2, $3)
	ON CONFLICT (tenant_id, seq_key) DO UPDATE SET current_val = sys_sequences.current_val + EXCLUDED.current_val
	RETURNING current_val`

type cachedRange struct {
	current int64
	max     int64
}

// Sequencer draws counter values. It is safe for concurrent use.
type Sequencer struct {
	mu     sync.Mutex
	ranges map[string]*cachedRange
}

// NewSequencer creates a Sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{ranges: make(map[string]*cachedRange)}
}

// Next returns the next value of the counter (tenantID, key).
func (s *Sequencer) Next(ctx context.Context, q Querier, tenantID uuid.UUID, key string, opts Options) (int64, error) {
	if opts.Strategy == StrategyCached {
		return s.nextCached(ctx, q, tenantID, key, opts.RangeSize)
	}
	var n int64
	if err := q.QueryRow(ctx, upsertSQL, tenantID, key, int64(1)).Scan(&n); err != nil {
		return 0, fmt.Errorf("next %s: %w", key, err)
	}
	return n, nil
}

func (s *Sequencer) nextCached(ctx context.Context, q Querier, tenantID uuid.UUID, key string, size int64) (int64, error) {
	if size <= 0 {
		size = 50
	}
	cacheKey := tenantID.String() + ":" + key

	s.mu.Lock()
	defer s.mu.Unlock()

	rng, ok := s.ranges[cacheKey]
	if !ok {
		rng = &cachedRange{}
		s.ranges[cacheKey] = rng
	}
	if rng.current >= rng.max {
		var newMax int64
		if err := q.QueryRow(ctx, upsertSQL, tenantID, key, size).Scan(&newMax); err != nil {
			return 0, fmt.Errorf("reserve range %s: %w", key, err)
		}
		// The reserved range is (newMax-size, newMax].
		rng.current = newMax - size
		rng.max = newMax
	}
	rng.current++
	return rng.current, nil
}

// Forget drops cached ranges of a tenant, for example after a manual reset.
func (s *Sequencer) Forget(tenantID uuid.UUID) {
	prefix := tenantID.String() + ":"
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.ranges {
		if strings.HasPrefix(k, prefix) {
			delete(s.ranges, k)
		}
	}
}

// Key builds the counter key for prefix in the period containing t.
// reset is "month", "year" or anything else for a never-resetting counter.
func Key(prefix, reset string, t time.Time) string {
	switch reset {
	case "month":
		return prefix + "_" + t.Format("200601")
	case "year":
		return prefix + "_" + t.Format("2006")
	default:
		return prefix
	}
}

// Format renders PREFIX-YYYYMM-NNNNN. padWidth defaults to 5.
func Format(prefix string, t time.Time, padWidth int, n int64) string {
	if padWidth <= 0 {
		padWidth = 5
	}
	return fmt.Sprintf("%s-%s-%0*d", prefix, t.Format("200601"), padWidth, n)
}

// Parse splits a number produced by Format. ok is false for anything else.
func Parse(number string) (prefix, period string, n int64, ok bool) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] == "" || len(parts[1]) != 6 {
		return "", "", 0, false
	}
	if _, err := time.Parse("200601", parts[1]); err != nil {
		return "", "", 0, false
	}
	n, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || n <= 0 {
		return "", "", 0, false
	}
	return parts[0], parts[1], n, true
}
