// internal/adapters/db/sale_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// SaleRepository implements ports.SaleRepository on Postgres
type SaleRepository struct {
	db     *Database
	logger *slog.Logger
}

var _ ports.SaleRepository = (*SaleRepository)(nil)

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *Database, logger *slog.Logger) *SaleRepository {
	return &SaleRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "sale")),
	}
}

type lockedProduct struct {
	code  string
	name  string
	stock int
}

// Commit stores the sale and decrements stock in one transaction. Product
// rows are locked in id order so concurrent commits cannot deadlock; row
// locks make read committed sufficient.
func (r *SaleRepository) Commit(ctx context.Context, sale *domain.Sale) error {
	ids := sale.ProductIDs()
	slices.Sort(ids)

	err := r.db.InTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT id, code, name, available_stock
			FROM products
			WHERE id = ANY($1) AND active
			ORDER BY id
			FOR UPDATE`, ids)
		if err != nil {
			return fmt.Errorf("failed to lock products: %w", err)
		}

		locked := make(map[int64]lockedProduct, len(ids))
		for rows.Next() {
			var (
				id int64
				lp lockedProduct
			)
			if err := rows.Scan(&id, &lp.code, &lp.name, &lp.stock); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan product: %w", err)
			}
			locked[id] = lp
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to read products: %w", err)
		}

		for i, item := range sale.Items {
			lp, ok := locked[item.ProductID]
			if !ok {
				return fmt.Errorf("%w: id %d", domain.ErrProductNotFound, item.ProductID)
			}
			if lp.stock < item.Quantity {
				return &domain.StockMismatchError{
					ProductID: item.ProductID,
					Name:      lp.name,
					Available: lp.stock,
					Requested: item.Quantity,
				}
			}
			sale.Items[i].ProductCode = lp.code
			sale.Items[i].ProductName = lp.name
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO sales (id, total, payment_method, cash_received, change_due, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			sale.ID, domain.PesosToDecimal(sale.Total), string(sale.PaymentMethod),
			domain.PesosToDecimal(sale.CashReceived), domain.PesosToDecimal(sale.ChangeDue), sale.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert sale: %w", err)
		}

		batch := &pgx.Batch{}
		for i, item := range sale.Items {
			batch.Queue(`
				INSERT INTO sale_items (
					sale_id, line_no, product_id, product_code, product_name, quantity, unit_price, subtotal
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				sale.ID, i+1, item.ProductID, item.ProductCode, item.ProductName, item.Quantity,
				domain.PesosToDecimal(item.UnitPrice), domain.PesosToDecimal(item.Subtotal))
			batch.Queue(`
				UPDATE products
				SET available_stock = available_stock - $1, updated_at = NOW()
				WHERE id = $2`,
				item.Quantity, item.ProductID)
		}

		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to write sale line: %w", err)
			}
		}
		return br.Close()
	})
	if err != nil {
		return err
	}

	r.logger.DebugContext(ctx, "sale stored",
		slog.String("sale_id", sale.ID.String()),
		slog.Int("lines", len(sale.Items)))

	return nil
}

func selectSales() squirrel.SelectBuilder {
	return squirrel.Select("id", "total", "payment_method", "cash_received", "change_due", "created_at").
		From("sales").
		PlaceholderFormat(squirrel.Dollar)
}

func scanSale(row pgx.Row) (domain.Sale, error) {
	var (
		s                       domain.Sale
		method                  string
		total, received, change decimal.Decimal
	)
	if err := row.Scan(&s.ID, &total, &method, &received, &change, &s.CreatedAt); err != nil {
		return domain.Sale{}, err
	}
	s.PaymentMethod = domain.PaymentMethod(method)
	s.Total = domain.PesosFromDecimal(total)
	s.CashReceived = domain.PesosFromDecimal(received)
	s.ChangeDue = domain.PesosFromDecimal(change)
	return s, nil
}

// FindByID returns the sale with its lines or nil when it does not exist
func (r *SaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	query, args, err := selectSales().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	sale, err := scanSale(r.db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find sale: %w", err)
	}

	sales := []domain.Sale{sale}
	if err := r.attachItems(ctx, sales); err != nil {
		return nil, err
	}
	return &sales[0], nil
}

// ListBetween returns sales created in [from, to) with their lines
func (r *SaleRepository) ListBetween(ctx context.Context, from, to time.Time) ([]domain.Sale, error) {
	query, args, err := selectSales().
		Where(squirrel.GtOrEq{"created_at": from}).
		Where(squirrel.Lt{"created_at": to}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}

	sales, err := scanAll(rows, func(rows pgx.Rows) (domain.Sale, error) {
		return scanSale(rows)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan sales: %w", err)
	}
	if len(sales) == 0 {
		return []domain.Sale{}, nil
	}

	if err := r.attachItems(ctx, sales); err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *SaleRepository) attachItems(ctx context.Context, sales []domain.Sale) error {
	ids := make([]uuid.UUID, len(sales))
	index := make(map[uuid.UUID]int, len(sales))
	for i, s := range sales {
		ids[i] = s.ID
		index[s.ID] = i
	}

	rows, err := r.db.pool.Query(ctx, `
		SELECT sale_id, product_id, product_code, product_name, quantity, unit_price, subtotal
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY sale_id, line_no`, ids)
	if err != nil {
		return fmt.Errorf("failed to query sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			saleID          uuid.UUID
			item            domain.SaleItem
			price, subtotal decimal.Decimal
		)
		if err := rows.Scan(&saleID, &item.ProductID, &item.ProductCode, &item.ProductName,
			&item.Quantity, &price, &subtotal); err != nil {
			return fmt.Errorf("failed to scan sale item: %w", err)
		}
		item.UnitPrice = domain.PesosFromDecimal(price)
		item.Subtotal = domain.PesosFromDecimal(subtotal)

		i := index[saleID]
		sales[i].Items = append(sales[i].Items, item)
	}

	return rows.Err()
}
