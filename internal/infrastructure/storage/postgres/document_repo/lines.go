package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/georgysavva/scany/v2/pgxscan"

	"retailcore/internal/core/id"
	"retailcore/internal/domain"
	"retailcore/internal/infrastructure/storage/postgres"
)

// itemLines stores the items of a document in a child table keyed by fk.
// Saving replaces all lines of the document.
type itemLines[T domain.Document, L any] struct {
	table  string
	fk     string
	cols   []string
	get    func(T) []L
	set    func(T, []L)
	parent func(*L) id.ID
}

func (l itemLines[T, L]) save(ctx context.Context, txm *postgres.TxManager, doc T) error {
	docID := doc.GetID()
	if _, err := txm.GetQuerier(ctx).Exec(ctx, "DELETE FROM "+l.table+" WHERE "+l.fk+" = $1", docID); err != nil {
		return fmt.Errorf("delete %s: %w", l.table, err)
	}

	items := l.get(doc)
	rows := make([][]any, 0, len(items))
	for i := range items {
		rows = append(rows, postgres.StructValues(&items[i], l.cols))
	}
	if _, err := txm.CopyRows(ctx, l.table, l.cols, rows); err != nil {
		return err
	}
	return nil
}

func (l itemLines[T, L]) load(ctx context.Context, q postgres.Querier, docs []T) error {
	ids := make([]id.ID, len(docs))
	for i, d := range docs {
		ids[i] = d.GetID()
	}

	var items []L
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ANY($1) ORDER BY %s, line_no",
		strings.Join(l.cols, ", "), l.table, l.fk, l.fk)
	if err := pgxscan.Select(ctx, q, &items, sql, ids); err != nil {
		return fmt.Errorf("select %s: %w", l.table, err)
	}

	byDoc := make(map[id.ID][]L, len(docs))
	for i := range items {
		p := l.parent(&items[i])
		byDoc[p] = append(byDoc[p], items[i])
	}
	for _, d := range docs {
		l.set(d, byDoc[d.GetID()])
	}
	return nil
}
