package document_repo

import (
	"retailcore/internal/domain/documents/adjustment"
	"retailcore/internal/infrastructure/storage/postgres"
)

// NewAdjustmentRepo creates the stock_adjustments repository.
func NewAdjustmentRepo(txm *postgres.TxManager) *BaseDocumentRepo[*adjustment.StockAdjustment] {
	return NewBaseDocumentRepo(txm, Table{
		Name:       "stock_adjustments",
		Entity:     adjustment.EntityName,
		NumberCol:  "adjustment_number",
		DateCol:    "adjustment_date",
		HasStoreID: true,
	}, postgres.ExtractDBColumns[adjustment.StockAdjustment](), func() *adjustment.StockAdjustment {
		return &adjustment.StockAdjustment{}
	})
}

var _ adjustment.Repository = (*BaseDocumentRepo[*adjustment.StockAdjustment])(nil)
