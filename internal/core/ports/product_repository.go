// internal/core/ports/product_repository.go
package ports

import (
	"context"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
)

// ProductFilter narrows a product listing
type ProductFilter struct {
	Search     string
	CategoryID *int64
	OnlyActive bool
	Limit      int
}

// ProductRepository defines the persistence port for products and categories.
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	FindByCode(ctx context.Context, code string) (*domain.Product, error)
	Upsert(ctx context.Context, p *domain.Product) error
	LowStock(ctx context.Context, threshold int, ids []int64) ([]domain.Product, error)
	EnsureCategory(ctx context.Context, name, description string) (int64, error)
}
