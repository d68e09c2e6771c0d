// internal/adapters/db/product_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

var productColumns = []string{
	"p.id", "p.code", "p.name", "p.unit_price", "p.available_stock",
	"p.category_id", "COALESCE(c.name, '')", "p.active", "p.created_at", "p.updated_at",
}

// ProductRepository implements ports.ProductRepository on Postgres
type ProductRepository struct {
	db     *Database
	logger *slog.Logger
}

var _ ports.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a new product repository
func NewProductRepository(db *Database, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "product")),
	}
}

func selectProducts() squirrel.SelectBuilder {
	return squirrel.Select(productColumns...).
		From("products p").
		LeftJoin("categories c ON c.id = p.category_id").
		PlaceholderFormat(squirrel.Dollar)
}

// buildListQuery renders the listing query for filter
func buildListQuery(filter ports.ProductFilter) (string, []interface{}, error) {
	qb := selectProducts()

	if filter.OnlyActive {
		qb = qb.Where(squirrel.Eq{"p.active": true})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		qb = qb.Where(squirrel.Or{
			squirrel.ILike{"p.name": pattern},
			squirrel.ILike{"p.code": pattern},
		})
	}
	if filter.CategoryID != nil {
		qb = qb.Where(squirrel.Eq{"p.category_id": *filter.CategoryID})
	}

	qb = qb.OrderBy("p.name ASC", "p.id ASC")
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}

	return qb.ToSql()
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p     domain.Product
		price decimal.Decimal
	)
	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &price, &p.AvailableStock,
		&p.CategoryID, &p.CategoryName, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}
	p.UnitPrice = domain.PesosFromDecimal(price)
	return p, nil
}

// List returns products matching filter ordered by name
func (r *ProductRepository) List(ctx context.Context, filter ports.ProductFilter) ([]domain.Product, error) {
	query, args, err := buildListQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	products, err := scanAll(rows, func(rows pgx.Rows) (domain.Product, error) {
		return scanProduct(rows)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}
	if products == nil {
		products = []domain.Product{}
	}

	r.logger.DebugContext(ctx, "products listed",
		slog.Int("count", len(products)),
		slog.String("search", filter.Search))

	return products, nil
}

func (r *ProductRepository) findOne(ctx context.Context, where squirrel.Sqlizer) (*domain.Product, error) {
	query, args, err := selectProducts().Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	p, err := scanProduct(r.db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &p, nil
}

// FindByID returns the product or nil when it does not exist
func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	return r.findOne(ctx, squirrel.Eq{"p.id": id})
}

// FindByCode returns the product with an exact code or nil
func (r *ProductRepository) FindByCode(ctx context.Context, code string) (*domain.Product, error) {
	return r.findOne(ctx, squirrel.Eq{"p.code": code})
}

// Upsert inserts a product or updates the one with the same code
func (r *ProductRepository) Upsert(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	p.PrepareForStorage()

	query := `
		INSERT INTO products (
			code, name, unit_price, available_stock, category_id, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			unit_price = EXCLUDED.unit_price,
			available_stock = EXCLUDED.available_stock,
			category_id = EXCLUDED.category_id,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`

	err := r.db.pool.QueryRow(ctx, query,
		p.Code, p.Name, domain.PesosToDecimal(p.UnitPrice), p.AvailableStock,
		p.CategoryID, p.Active, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}

	r.logger.DebugContext(ctx, "product saved",
		slog.Int64("id", p.ID),
		slog.String("code", p.Code))

	return nil
}

// LowStock returns active products at or below threshold. When ids is not
// empty only those products are considered.
func (r *ProductRepository) LowStock(ctx context.Context, threshold int, ids []int64) ([]domain.Product, error) {
	qb := selectProducts().
		Where(squirrel.Eq{"p.active": true}).
		Where(squirrel.LtOrEq{"p.available_stock": threshold}).
		OrderBy("p.available_stock ASC", "p.name ASC")
	if len(ids) > 0 {
		qb = qb.Where(squirrel.Eq{"p.id": ids})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock: %w", err)
	}

	return scanAll(rows, func(rows pgx.Rows) (domain.Product, error) {
		return scanProduct(rows)
	})
}

// EnsureCategory returns the id of the named category, creating it if needed
func (r *ProductRepository) EnsureCategory(ctx context.Context, name, description string) (int64, error) {
	query := `
		INSERT INTO categories (name, description)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
		RETURNING id`

	var id int64
	if err := r.db.pool.QueryRow(ctx, query, name, description).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to ensure category %s: %w", name, err)
	}
	return id, nil
}
