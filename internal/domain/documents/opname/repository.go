package opname

import "retailcore/internal/domain"

// Repository defines persistence for stock opnames. Items are stored with the header.
type Repository interface {
	domain.DocumentRepository[*StockOpname]
}
