package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"retailcore/internal/core/id"
	"retailcore/internal/domain"
	"retailcore/internal/domain/events"
)

// Store bundles the shared lock table, the transaction manager and the
// kind-independent tables.
type Store struct {
	Locks  *Locker
	Tx     *TxManager
	Stock  *StockRepo
	Outbox *Outbox
	Audit  *AuditLog
}

// New creates an empty Store.
func New() *Store {
	locks := NewLocker()
	return &Store{
		Locks:  locks,
		Tx:     NewTxManager(locks),
		Stock:  NewStockRepo(locks),
		Outbox: &Outbox{locks: locks},
		Audit:  &AuditLog{locks: locks},
	}
}

// Outbox records published events; rolled-back events are discarded.
type Outbox struct {
	locks  *Locker
	seq    int64
	events []outboxEntry
}

type outboxEntry struct {
	seq int64
	ev  events.Event
}

var _ events.Publisher = (*Outbox)(nil)

// Publish implements events.Publisher.
func (o *Outbox) Publish(ctx context.Context, evs ...events.Event) error {
	o.locks.mu.Lock()
	defer o.locks.mu.Unlock()
	first := o.seq + 1
	for _, e := range evs {
		o.seq++
		o.events = append(o.events, outboxEntry{seq: o.seq, ev: e})
	}
	undo(ctx, func() {
		o.events = slices.DeleteFunc(o.events, func(x outboxEntry) bool { return x.seq >= first && x.seq < first+int64(len(evs)) })
	})
	return nil
}

// Events returns the committed events of type typ, or all when typ is empty.
func (o *Outbox) Events(typ string) []events.Event {
	o.locks.mu.Lock()
	defer o.locks.mu.Unlock()
	var out []events.Event
	for _, e := range o.events {
		if typ == "" || e.ev.Type == typ {
			out = append(out, e.ev)
		}
	}
	return out
}

// AuditLog records audit entries.
type AuditLog struct {
	locks   *Locker
	records []*auditItem
}

type auditItem struct {
	id  id.ID
	at  time.Time
	rec domain.AuditRecord
}

var (
	_ domain.AuditRecorder = (*AuditLog)(nil)
	_ domain.AuditReader   = (*AuditLog)(nil)
)

// Record implements domain.AuditRecorder.
func (a *AuditLog) Record(ctx context.Context, rec domain.AuditRecord) error {
	a.locks.mu.Lock()
	defer a.locks.mu.Unlock()
	r := &auditItem{id: id.New(), at: time.Now().UTC(), rec: rec}
	a.records = append(a.records, r)
	undo(ctx, func() {
		a.records = slices.DeleteFunc(a.records, func(x *auditItem) bool { return x == r })
	})
	return nil
}

// History implements domain.AuditReader.
func (a *AuditLog) History(_ context.Context, tenantID id.ID, entityType string, entityID id.ID, limit int) ([]domain.AuditEntry, error) {
	a.locks.mu.Lock()
	defer a.locks.mu.Unlock()
	out := []domain.AuditEntry{}
	for i := len(a.records) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		r := a.records[i]
		if r.rec.TenantID != tenantID || r.rec.EntityType != entityType || r.rec.EntityID != entityID {
			continue
		}
		e := domain.AuditEntry{
			ID:         r.id,
			EntityType: r.rec.EntityType,
			EntityID:   r.rec.EntityID,
			Action:     string(r.rec.Action),
			ActorID:    r.rec.ActorID,
			CreatedAt:  r.at,
		}
		if r.rec.Snapshot != nil {
			raw, err := json.Marshal(r.rec.Snapshot)
			if err != nil {
				return nil, fmt.Errorf("marshal snapshot: %w", err)
			}
			e.Snapshot = raw
		}
		if len(r.rec.Metadata) > 0 {
			raw, err := json.Marshal(r.rec.Metadata)
			if err != nil {
				return nil, fmt.Errorf("marshal metadata: %w", err)
			}
			e.Metadata = raw
		}
		out = append(out, e)
	}
	return out, nil
}

// Records returns the committed audit records.
func (a *AuditLog) Records() []domain.AuditRecord {
	a.locks.mu.Lock()
	defer a.locks.mu.Unlock()
	out := make([]domain.AuditRecord, 0, len(a.records))
	for _, r := range a.records {
		out = append(out, r.rec)
	}
	return out
}
