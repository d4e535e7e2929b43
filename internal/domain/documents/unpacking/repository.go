package unpacking

import "retailcore/internal/domain"

// Repository defines persistence for unpacking transactions.
type Repository interface {
	domain.DocumentRepository[*UnpackingTransaction]
}
