// internal/core/ports/sale_repository.go
package ports

import (
	"context"
	"time"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/google/uuid"
)

// SaleRepository persists committed sales.
type SaleRepository interface {
	// Commit stores the sale and decrements stock in one transaction. A line
	// that asks for more than is on hand fails with *domain.StockMismatchError
	// and nothing is written.
	Commit(ctx context.Context, sale *domain.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]domain.Sale, error)
}
