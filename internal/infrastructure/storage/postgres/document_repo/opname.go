package document_repo

import (
	"retailcore/internal/core/id"
	"retailcore/internal/domain/documents/opname"
	"retailcore/internal/infrastructure/storage/postgres"
)

// NewOpnameRepo creates the stock_opnames repository with its items.
func NewOpnameRepo(txm *postgres.TxManager) *BaseDocumentRepo[*opname.StockOpname] {
	repo := NewBaseDocumentRepo(txm, Table{
		Name:       "stock_opnames",
		Entity:     opname.EntityName,
		NumberCol:  "opname_number",
		DateCol:    "opname_date",
		HasStoreID: true,
	}, postgres.ExtractDBColumns[opname.StockOpname](), func() *opname.StockOpname {
		return &opname.StockOpname{}
	})
	return repo.withLines(itemLines[*opname.StockOpname, opname.Item]{
		table:  "stock_opname_items",
		fk:     "opname_id",
		cols:   postgres.ExtractDBColumns[opname.Item](),
		get:    func(d *opname.StockOpname) []opname.Item { return d.Items },
		set:    func(d *opname.StockOpname, items []opname.Item) { d.Items = items },
		parent: func(it *opname.Item) id.ID { return it.OpnameID },
	})
}

var _ opname.Repository = (*BaseDocumentRepo[*opname.StockOpname])(nil)
