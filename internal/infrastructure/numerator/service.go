// Package numerator implements core/numerator.Generator on sys_sequences.
package numerator

import (
	"context"
	"math/rand/v2"
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	corenumerator "retailcore/internal/core/numerator"
	"retailcore/internal/infrastructure/storage/postgres"
	"retailcore/pkg/logger"
	"retailcore/pkg/numerator"
)

// Config tunes numbering.
type Config struct {
	MaxAttempts int
	BaseBackoff time.Duration
	Options     numerator.Options
}

// DefaultConfig returns 5 attempts with a 10ms jittered backoff, strict counters.
func DefaultConfig() Config {
	return Config{MaxAttempts: 5, BaseBackoff: 10 * time.Millisecond, Options: numerator.DefaultOptions()}
}

// savepointRunner isolates one attempt so its failure does not abort the caller's transaction.
type savepointRunner interface {
	RunInSavepoint(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service generates document numbers.
type Service struct {
	tx      savepointRunner
	querier func(ctx context.Context) numerator.Querier
	seq     *numerator.Sequencer
	cfg     Config
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a numbering service over the transaction manager. Strict
// counters join the caller's transaction; cached ranges are reserved on the pool.
func New(txm *postgres.TxManager, cfg Config) *Service {
	querier := func(ctx context.Context) numerator.Querier { return txm.GetQuerier(ctx) }
	if cfg.Options.Strategy == numerator.StrategyCached {
		querier = func(context.Context) numerator.Querier { return txm.PoolQuerier() }
	}
	return newService(txm, querier, cfg)
}

func newService(tx savepointRunner, querier func(ctx context.Context) numerator.Querier, cfg Config) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &Service{tx: tx, querier: querier, seq: numerator.NewSequencer(), cfg: cfg}
}

// Next implements corenumerator.Generator.
func (s *Service) Next(ctx context.Context, tenantID id.ID, kind corenumerator.Kind, scopeDate time.Time) (string, error) {
	kc := corenumerator.ConfigFor(kind)
	key := numerator.Key(kc.Prefix, string(kc.ResetPeriod), scopeDate)
	n, err := s.seq.Next(ctx, s.querier(ctx), tenantID, key, s.cfg.Options)
	if err != nil {
		return "", err
	}
	return numerator.Format(kc.Prefix, scopeDate, kc.PadWidth, n), nil
}

// Assign implements corenumerator.Generator. The counter is advanced and the
// claim is made in separate savepoints, so a colliding number is never reused.
func (s *Service) Assign(ctx context.Context, tenantID id.ID, kind corenumerator.Kind, scopeDate time.Time, claim corenumerator.ClaimFunc) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := s.backoff(ctx, attempt); err != nil {
				return "", err
			}
		}

		var number string
		err := s.tx.RunInSavepoint(ctx, func(ctx context.Context) error {
			var err error
			number, err = s.Next(ctx, tenantID, kind, scopeDate)
			return err
		})
		if err == nil {
			err = s.tx.RunInSavepoint(ctx, func(ctx context.Context) error {
				return claim(ctx, number)
			})
		}
		if err == nil {
			return number, nil
		}
		if !retryable(err) {
			return "", err
		}

		lastErr = err
		logger.Warn(ctx, "document number collision, retrying",
			"kind", kind, "number", number, "attempt", attempt, "error", err)
	}
	return "", apperror.NewNumberingConflict(string(kind), s.cfg.MaxAttempts).WithCause(lastErr)
}

func (s *Service) backoff(ctx context.Context, attempt int) error {
	base := s.cfg.BaseBackoff
	if base <= 0 {
		return ctx.Err()
	}
	d := base*time.Duration(attempt-1) + rand.N(base)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func retryable(err error) bool {
	return apperror.IsDuplicate(err) || postgres.IsRetryable(err)
}
