package purchaseorder

import "retailcore/internal/domain"

// Repository defines persistence for purchase orders. Items are stored with the header.
type Repository interface {
	domain.DocumentRepository[*PurchaseOrder]
}
