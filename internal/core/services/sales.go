// internal/core/services/sales.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// CatalogCacheKey holds the cached active product list
const CatalogCacheKey = "catalog:products"

// SalesService is the inventory-side implementation of the sales API. It is
// the stock authority: every commit is re-validated here regardless of what
// the terminal checked.
type SalesService struct {
	products ports.ProductRepository
	sales    ports.SaleRepository
	cache    ports.CacheRepository
	tasks    ports.TaskEnqueuer
	cacheTTL time.Duration
	logger   *slog.Logger
}

// Statically assert that *SalesService implements the SalesService interface.
var _ ports.SalesService = (*SalesService)(nil)

// NewSalesService creates a new sales service
func NewSalesService(products ports.ProductRepository, sales ports.SaleRepository, cache ports.CacheRepository,
	tasks ports.TaskEnqueuer, cacheTTL time.Duration, logger *slog.Logger) *SalesService {
	return &SalesService{
		products: products,
		sales:    sales,
		cache:    cache,
		tasks:    tasks,
		cacheTTL: cacheTTL,
		logger:   logger.With(slog.String("service", "sales")),
	}
}

// ListProducts returns active products ordered by name, served from cache
// when possible. A cache outage falls through to the database.
func (s *SalesService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	fetch := func() (interface{}, error) {
		return s.products.List(ctx, ports.ProductFilter{OnlyActive: true})
	}

	var products []domain.Product
	err := s.cache.GetOrSet(ctx, CatalogCacheKey, &products, fetch, s.cacheTTL)
	if err == nil {
		return products, nil
	}

	s.logger.WarnContext(ctx, "catalog cache unavailable, reading database",
		slog.String("error", err.Error()))

	products, err = s.products.List(ctx, ports.ProductFilter{OnlyActive: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// CommitSale validates and records a sale. Business refusals come back as a
// result with Success=false; only infrastructure failures return an error.
func (s *SalesService) CommitSale(ctx context.Context, req domain.SaleRequest) (*domain.SaleResult, error) {
	if err := req.Validate(); err != nil {
		s.logger.InfoContext(ctx, "sale refused by validation",
			slog.String("reason", err.Error()))
		return &domain.SaleResult{Success: false, Message: err.Error()}, nil
	}

	sale := domain.NewSale(req)
	if err := s.sales.Commit(ctx, sale); err != nil {
		var mismatch *domain.StockMismatchError
		switch {
		case errors.As(err, &mismatch):
			s.logger.InfoContext(ctx, "sale refused by stock check",
				slog.Int64("product_id", mismatch.ProductID),
				slog.Int("available", mismatch.Available),
				slog.Int("requested", mismatch.Requested))
			return &domain.SaleResult{Success: false, Message: mismatch.Error()}, nil
		case errors.Is(err, domain.ErrProductNotFound):
			return &domain.SaleResult{Success: false, Message: err.Error()}, nil
		}
		return nil, fmt.Errorf("failed to commit sale: %w", err)
	}

	if err := s.cache.Delete(ctx, CatalogCacheKey); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate catalog cache",
			slog.String("error", err.Error()))
	}
	if err := s.tasks.EnqueueSaleCommitted(ctx, sale); err != nil {
		s.logger.WarnContext(ctx, "failed to enqueue sale follow-up",
			slog.String("sale_id", sale.ID.String()),
			slog.String("error", err.Error()))
	}

	s.logger.InfoContext(ctx, "sale recorded",
		slog.String("sale_id", sale.ID.String()),
		slog.Int64("total", sale.Total),
		slog.Int("lines", len(sale.Items)),
		slog.String("payment_method", string(sale.PaymentMethod)))

	return &domain.SaleResult{
		Success: true,
		Message: "sale recorded",
		SaleID:  sale.ID.String(),
	}, nil
}

// SearchProducts lists products matching filter straight from the database
func (s *SalesService) SearchProducts(ctx context.Context, filter ports.ProductFilter) ([]domain.Product, error) {
	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

// GetProductByCode resolves a scannable code
func (s *SalesService) GetProductByCode(ctx context.Context, code string) (*domain.Product, error) {
	product, err := s.products.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: code %s", domain.ErrProductNotFound, code)
	}
	return product, nil
}

// ListSalesByDate returns the sales committed on a local calendar day
func (s *SalesService) ListSalesByDate(ctx context.Context, day string) ([]domain.Sale, error) {
	from, err := time.ParseInLocation(domain.DayLayout, day, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", day, err)
	}

	sales, err := s.sales.ListBetween(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	return sales, nil
}

// GetSale returns one committed sale with its lines
func (s *SalesService) GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	if sale == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSaleNotFound, id)
	}
	return sale, nil
}
