// Package memstore provides in-memory implementations of the persistence
// interfaces for service tests. Transactions are emulated with an undo log and
// per-row mutexes held until commit or rollback, which gives the same
// serialisation behaviour as SELECT ... FOR UPDATE.
package memstore

import (
	"context"
	"sync"

	"retailcore/internal/core/tx"
)

var _ tx.ReadOnlyManager = (*TxManager)(nil)

type txKey struct{}

type txState struct {
	mu    sync.Mutex
	undo  []func()
	held  map[string]bool
	locks []*sync.Mutex
}

func stateFrom(ctx context.Context) *txState {
	st, _ := ctx.Value(txKey{}).(*txState)
	return st
}

func (st *txState) onRollback(fn func()) {
	st.mu.Lock()
	st.undo = append(st.undo, fn)
	st.mu.Unlock()
}

func (st *txState) rollback() {
	for i := len(st.undo) - 1; i >= 0; i-- {
		st.undo[i]()
	}
	st.undo = nil
}

func (st *txState) release() {
	for i := len(st.locks) - 1; i >= 0; i-- {
		st.locks[i].Unlock()
	}
	st.locks = nil
	st.held = nil
}

// TxManager emulates tx.Manager. Nested calls reuse the outer transaction.
type TxManager struct {
	locks *Locker
}

// NewTxManager creates a transaction manager sharing locks with the repositories.
func NewTxManager(locks *Locker) *TxManager {
	return &TxManager{locks: locks}
}

// RunInTransaction implements tx.Manager.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if stateFrom(ctx) != nil {
		return fn(ctx)
	}
	st := &txState{held: make(map[string]bool)}
	err := fn(context.WithValue(ctx, txKey{}, st))
	if err != nil {
		m.locks.mu.Lock()
		st.rollback()
		m.locks.mu.Unlock()
	}
	st.release()
	return err
}

// ReadOnly implements tx.ReadOnlyManager.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransaction(ctx, fn)
}

// Locker hands out row locks and guards all table data with one mutex.
type Locker struct {
	mu   sync.Mutex
	rows map[string]*sync.Mutex
}

// NewLocker creates a Locker.
func NewLocker() *Locker {
	return &Locker{rows: make(map[string]*sync.Mutex)}
}

// lockRow blocks until key is free, then holds it until the transaction in ctx ends.
// Outside a transaction it is a no-op.
func (l *Locker) lockRow(ctx context.Context, key string) {
	st := stateFrom(ctx)
	if st == nil || st.held[key] {
		return
	}
	l.mu.Lock()
	m, ok := l.rows[key]
	if !ok {
		m = &sync.Mutex{}
		l.rows[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	st.held[key] = true
	st.locks = append(st.locks, m)
}

// undo registers fn to run if the transaction in ctx rolls back.
// Callers hold l.mu when the undo runs.
func undo(ctx context.Context, fn func()) {
	if st := stateFrom(ctx); st != nil {
		st.onRollback(fn)
	}
}
