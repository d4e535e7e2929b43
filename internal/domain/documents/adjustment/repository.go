package adjustment

import "retailcore/internal/domain"

// Repository defines persistence for stock adjustments.
type Repository interface {
	domain.DocumentRepository[*StockAdjustment]
}
