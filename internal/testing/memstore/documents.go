package memstore

import (
	"context"
	"slices"
	"strings"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/domain"
)

// Cloneable documents can be deep-copied, lines included.
type Cloneable[T any] interface {
	domain.Document
	Clone() T
}

// DocTable is an in-memory domain.DocumentRepository for one document kind.
type DocTable[T Cloneable[T]] struct {
	entity string
	locks  *Locker
	rows   map[id.ID]T
	order  []id.ID
}

// NewDocTable creates an empty table. entity names the kind in errors.
func NewDocTable[T Cloneable[T]](entity string, locks *Locker) *DocTable[T] {
	return &DocTable[T]{entity: entity, locks: locks, rows: make(map[id.ID]T)}
}

func (t *DocTable[T]) lockKey(docID id.ID) string {
	return t.entity + ":" + docID.String()
}

// Create implements domain.DocumentRepository.
func (t *DocTable[T]) Create(ctx context.Context, doc T) error {
	t.locks.mu.Lock()
	defer t.locks.mu.Unlock()

	number := doc.DocumentNumber()
	for _, row := range t.rows {
		if row.GetTenantID() == doc.GetTenantID() && row.DocumentNumber() == number {
			return apperror.NewDuplicate(t.entity, "number", number)
		}
	}
	docID := doc.GetID()
	t.rows[docID] = doc.Clone()
	t.order = append(t.order, docID)
	undo(ctx, func() {
		delete(t.rows, docID)
		t.order = slices.DeleteFunc(t.order, func(x id.ID) bool { return x == docID })
	})
	return nil
}

// GetByID implements domain.DocumentRepository.
func (t *DocTable[T]) GetByID(_ context.Context, tenantID, docID id.ID) (T, error) {
	t.locks.mu.Lock()
	defer t.locks.mu.Unlock()
	return t.get(tenantID, docID)
}

func (t *DocTable[T]) get(tenantID, docID id.ID) (T, error) {
	var zero T
	row, ok := t.rows[docID]
	if !ok || row.GetTenantID() != tenantID || row.Header().IsDeleted() {
		return zero, apperror.NewNotFound(t.entity, docID)
	}
	return row.Clone(), nil
}

// GetForUpdate implements domain.DocumentRepository.
func (t *DocTable[T]) GetForUpdate(ctx context.Context, tenantID, docID id.ID) (T, error) {
	t.locks.lockRow(ctx, t.lockKey(docID))
	t.locks.mu.Lock()
	defer t.locks.mu.Unlock()
	return t.get(tenantID, docID)
}

// Update implements domain.DocumentRepository.
func (t *DocTable[T]) Update(ctx context.Context, doc T) error {
	t.locks.mu.Lock()
	defer t.locks.mu.Unlock()

	docID := doc.GetID()
	prev, ok := t.rows[docID]
	if !ok || prev.GetTenantID() != doc.GetTenantID() {
		return apperror.NewNotFound(t.entity, docID)
	}
	if prev.GetVersion() != doc.GetVersion() {
		return apperror.NewConcurrentModification(t.entity, docID)
	}
	doc.SetVersion(doc.GetVersion() + 1)
	t.rows[docID] = doc.Clone()
	undo(ctx, func() { t.rows[docID] = prev })
	return nil
}

// List implements domain.DocumentRepository.
func (t *DocTable[T]) List(_ context.Context, tenantID id.ID, f domain.ListFilter) (domain.ListResult[T], error) {
	t.locks.mu.Lock()
	defer t.locks.mu.Unlock()

	var items []T
	for i := len(t.order) - 1; i >= 0; i-- {
		row := t.rows[t.order[i]]
		h := row.Header()
		switch {
		case row.GetTenantID() != tenantID,
			h.IsDeleted() && !f.IncludeDeleted,
			len(f.IDs) > 0 && !slices.Contains(f.IDs, h.ID),
			len(f.Statuses) > 0 && !slices.Contains(f.Statuses, h.Status),
			f.CreatedBy != nil && h.CreatedBy != *f.CreatedBy,
			f.Search != "" && !strings.HasPrefix(row.DocumentNumber(), f.Search),
			f.DateFrom != nil && row.DocumentDate().Before(*f.DateFrom),
			f.DateTo != nil && row.DocumentDate().After(*f.DateTo):
			continue
		}
		if f.StoreID != nil {
			if s, ok := any(row).(interface{ GetStoreID() id.ID }); ok && s.GetStoreID() != *f.StoreID {
				continue
			}
		}
		items = append(items, row.Clone())
	}
	return domain.ListResult[T]{
		Items:      page(items, f.Offset, f.Limit),
		TotalCount: int64(len(items)),
		Limit:      f.Limit,
		Offset:     f.Offset,
	}, nil
}

// Count returns the number of stored rows, deleted ones included.
func (t *DocTable[T]) Count() int {
	t.locks.mu.Lock()
	defer t.locks.mu.Unlock()
	return len(t.rows)
}
