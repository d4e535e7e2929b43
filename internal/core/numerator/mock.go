package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"retailcore/internal/core/id"
)

// MockGenerator is a test implementation of Generator.
// Without NextFunc it hands out PREFIX-YYYYMM-NNNNN from an in-memory counter.
type MockGenerator struct {
	NextFunc func(ctx context.Context, tenantID id.ID, kind Kind, scopeDate time.Time) (string, error)

	mu       sync.Mutex
	counters map[string]int64
}

// Next implements Generator.
func (m *MockGenerator) Next(ctx context.Context, tenantID id.ID, kind Kind, scopeDate time.Time) (string, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, tenantID, kind, scopeDate)
	}
	cfg := ConfigFor(kind)
	key := fmt.Sprintf("%s:%s:%s", tenantID, kind, scopeDate.Format("200601"))

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	m.counters[key]++
	return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, scopeDate.Format("200601"), cfg.PadWidth, m.counters[key]), nil
}

// Assign implements Generator with a single attempt.
func (m *MockGenerator) Assign(ctx context.Context, tenantID id.ID, kind Kind, scopeDate time.Time, claim ClaimFunc) (string, error) {
	number, err := m.Next(ctx, tenantID, kind, scopeDate)
	if err != nil {
		return "", err
	}
	if err := claim(ctx, number); err != nil {
		return "", err
	}
	return number, nil
}

var _ Generator = (*MockGenerator)(nil)
