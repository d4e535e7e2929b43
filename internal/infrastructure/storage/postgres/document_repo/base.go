// Package document_repo provides PostgreSQL repositories for the inventory
// documents. Every query filters on tenant_id explicitly.
package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/domain"
	"retailcore/internal/infrastructure/storage/postgres"
)

// Table describes the header table of one document kind.
type Table struct {
	Name       string
	Entity     string
	NumberCol  string
	DateCol    string
	HasStoreID bool
}

// lineStore persists the item lines of a document kind.
type lineStore[T any] interface {
	save(ctx context.Context, txm *postgres.TxManager, doc T) error
	load(ctx context.Context, q postgres.Querier, docs []T) error
}

// BaseDocumentRepo implements domain.DocumentRepository for one header table
// and, optionally, its item table.
type BaseDocumentRepo[T domain.Document] struct {
	txm     *postgres.TxManager
	table   Table
	cols    []string
	newFn   func() T
	lines   lineStore[T]
	builder squirrel.StatementBuilderType
}

// NewBaseDocumentRepo creates a repository over table. cols are the header columns.
func NewBaseDocumentRepo[T domain.Document](txm *postgres.TxManager, table Table, cols []string, newFn func() T) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txm:     txm,
		table:   table,
		cols:    cols,
		newFn:   newFn,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *BaseDocumentRepo[T]) withLines(ls lineStore[T]) *BaseDocumentRepo[T] {
	r.lines = ls
	return r
}

// Create inserts header and lines.
func (r *BaseDocumentRepo[T]) Create(ctx context.Context, doc T) error {
	q := r.builder.Insert(r.table.Name).Columns(r.cols...).Values(postgres.StructValues(doc, r.cols)...)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate(r.table.Entity, r.table.NumberCol, doc.DocumentNumber()).WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", r.table.Name, err)
	}

	if r.lines != nil {
		if err := r.lines.save(ctx, r.txm, doc); err != nil {
			return err
		}
	}
	return nil
}

// Update writes the header guarded by version and replaces the lines.
func (r *BaseDocumentRepo[T]) Update(ctx context.Context, doc T) error {
	values := postgres.StructToMap(doc)
	set := make(map[string]any, len(r.cols))
	for _, col := range r.cols {
		switch col {
		case "id", "tenant_id", "created_at", "created_by", "version":
			continue
		}
		set[col] = values[col]
	}

	h := doc.Header()
	q := r.builder.Update(r.table.Name).
		SetMap(set).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": h.ID, "tenant_id": h.TenantID, "version": h.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.table.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.table.Entity, h.ID)
	}
	doc.SetVersion(h.Version + 1)

	if r.lines != nil {
		if err := r.lines.save(ctx, r.txm, doc); err != nil {
			return err
		}
	}
	return nil
}

// GetByID returns a live document with its lines.
func (r *BaseDocumentRepo[T]) GetByID(ctx context.Context, tenantID, docID id.ID) (T, error) {
	return r.getOne(ctx, tenantID, docID, "")
}

// GetForUpdate is GetByID holding FOR UPDATE on the header row.
func (r *BaseDocumentRepo[T]) GetForUpdate(ctx context.Context, tenantID, docID id.ID) (T, error) {
	return r.getOne(ctx, tenantID, docID, "FOR UPDATE")
}

func (r *BaseDocumentRepo[T]) getOne(ctx context.Context, tenantID, docID id.ID, suffix string) (T, error) {
	doc := r.newFn()
	q := r.builder.Select(r.cols...).From(r.table.Name).
		Where(squirrel.Eq{"id": docID, "tenant_id": tenantID}).
		Where("deleted_at IS NULL")
	if suffix != "" {
		q = q.Suffix(suffix)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return doc, fmt.Errorf("build query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return doc, apperror.NewNotFound(r.table.Entity, docID)
		}
		return doc, fmt.Errorf("get %s: %w", r.table.Entity, err)
	}

	if r.lines != nil {
		if err := r.lines.load(ctx, querier, []T{doc}); err != nil {
			return doc, err
		}
	}
	return doc, nil
}

// List retrieves documents with filtering and pagination.
func (r *BaseDocumentRepo[T]) List(ctx context.Context, tenantID id.ID, filter domain.ListFilter) (domain.ListResult[T], error) {
	filter.Normalize()
	result := domain.ListResult[T]{Limit: filter.Limit, Offset: filter.Offset}

	where := squirrel.And{squirrel.Eq{"tenant_id": tenantID}}
	if !filter.IncludeDeleted {
		where = append(where, squirrel.Expr("deleted_at IS NULL"))
	}
	if len(filter.IDs) > 0 {
		where = append(where, squirrel.Eq{"id": filter.IDs})
	}
	if filter.StoreID != nil && r.table.HasStoreID {
		where = append(where, squirrel.Eq{"store_id": *filter.StoreID})
	}
	if len(filter.Statuses) > 0 {
		where = append(where, squirrel.Eq{"status": filter.Statuses})
	}
	if filter.CreatedBy != nil {
		where = append(where, squirrel.Eq{"created_by": *filter.CreatedBy})
	}
	if filter.DateFrom != nil {
		where = append(where, squirrel.GtOrEq{r.table.DateCol: *filter.DateFrom})
	}
	if filter.DateTo != nil {
		where = append(where, squirrel.LtOrEq{r.table.DateCol: *filter.DateTo})
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		where = append(where, squirrel.Or{
			squirrel.ILike{r.table.NumberCol: s + "%"},
			squirrel.ILike{"notes": "%" + s + "%"},
		})
	}

	querier := r.txm.GetQuerier(ctx)

	countSQL, countArgs, err := r.builder.Select("COUNT(*)").From(r.table.Name).Where(where).ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.table.Name, err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}

	sql, args, err := r.builder.Select(r.cols...).From(r.table.Name).Where(where).
		OrderBy(orderBy, "id DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.table.Name, err)
	}
	if r.lines != nil && len(result.Items) > 0 {
		if err := r.lines.load(ctx, querier, result.Items); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (r *BaseDocumentRepo[T]) parseOrderBy(orderBy string) (string, error) {
	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" {
		return "created_at DESC", nil
	}

	direction := "ASC"
	field := orderBy
	switch {
	case strings.HasPrefix(orderBy, "-"):
		direction, field = "DESC", orderBy[1:]
	case strings.HasPrefix(orderBy, "+"):
		field = orderBy[1:]
	}

	switch field {
	case "number":
		field = r.table.NumberCol
	case "date":
		field = r.table.DateCol
	}
	for _, col := range r.cols {
		if col == field {
			return field + " " + direction, nil
		}
	}
	return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
}
