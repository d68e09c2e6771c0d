// internal/core/ports/inventory_service.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
)

// InventoryService is the authority on products and stock. The point of sale
// reaches it over HTTP; the inventory process implements it on Postgres.
type InventoryService interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	// CommitSale records a sale and decrements stock atomically. A refused
	// sale is reported with Success=false and a Message, not an error.
	CommitSale(ctx context.Context, req domain.SaleRequest) (*domain.SaleResult, error)
}

// SalesService extends InventoryService with the queries the HTTP API and
// the report worker need.
type SalesService interface {
	InventoryService
	SearchProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	GetProductByCode(ctx context.Context, code string) (*domain.Product, error)
	ListSalesByDate(ctx context.Context, day string) ([]domain.Sale, error)
	GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
}
