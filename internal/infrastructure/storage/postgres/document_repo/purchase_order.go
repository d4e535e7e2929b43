package document_repo

import (
	"retailcore/internal/core/id"
	"retailcore/internal/domain/documents/purchaseorder"
	"retailcore/internal/infrastructure/storage/postgres"
)

// NewPurchaseOrderRepo creates the purchase_orders repository with its items.
// store_id is nullable; a store filter matches only store-level orders.
func NewPurchaseOrderRepo(txm *postgres.TxManager) *BaseDocumentRepo[*purchaseorder.PurchaseOrder] {
	repo := NewBaseDocumentRepo(txm, Table{
		Name:       "purchase_orders",
		Entity:     purchaseorder.EntityName,
		NumberCol:  "po_number",
		DateCol:    "order_date",
		HasStoreID: true,
	}, postgres.ExtractDBColumns[purchaseorder.PurchaseOrder](), func() *purchaseorder.PurchaseOrder {
		return &purchaseorder.PurchaseOrder{}
	})
	return repo.withLines(itemLines[*purchaseorder.PurchaseOrder, purchaseorder.Item]{
		table:  "purchase_order_items",
		fk:     "purchase_order_id",
		cols:   postgres.ExtractDBColumns[purchaseorder.Item](),
		get:    func(d *purchaseorder.PurchaseOrder) []purchaseorder.Item { return d.Items },
		set:    func(d *purchaseorder.PurchaseOrder, items []purchaseorder.Item) { d.Items = items },
		parent: func(it *purchaseorder.Item) id.ID { return it.PurchaseOrderID },
	})
}

var _ purchaseorder.Repository = (*BaseDocumentRepo[*purchaseorder.PurchaseOrder])(nil)
