package document_repo

import (
	"retailcore/internal/domain/documents/unpacking"
	"retailcore/internal/infrastructure/storage/postgres"
)

// NewUnpackingRepo creates the unpacking_transactions repository.
func NewUnpackingRepo(txm *postgres.TxManager) *BaseDocumentRepo[*unpacking.UnpackingTransaction] {
	return NewBaseDocumentRepo(txm, Table{
		Name:       "unpacking_transactions",
		Entity:     unpacking.EntityName,
		NumberCol:  "unpacking_number",
		DateCol:    "unpacking_date",
		HasStoreID: true,
	}, postgres.ExtractDBColumns[unpacking.UnpackingTransaction](), func() *unpacking.UnpackingTransaction {
		return &unpacking.UnpackingTransaction{}
	})
}

var _ unpacking.Repository = (*BaseDocumentRepo[*unpacking.UnpackingTransaction])(nil)
