// cmd/seeder/catalog.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// catalogColumns is the expected header of a catalog sheet
var catalogColumns = []string{"Code", "Name", "Price", "Stock", "Category"}

// demoCatalog is the shop's starter assortment
func demoCatalog() []domain.Product {
	return []domain.Product{
		{Code: "REF001", Name: "Refresco Cola 2L", UnitPrice: 1500, AvailableStock: 50, CategoryName: "Bebidas", Active: true},
		{Code: "AGUA002", Name: "Agua Mineral 1.5L", UnitPrice: 800, AvailableStock: 100, CategoryName: "Bebidas", Active: true},
		{Code: "SNK003", Name: "Papas Fritas Grandes", UnitPrice: 1200, AvailableStock: 30, CategoryName: "Snacks", Active: true},
		{Code: "LCH004", Name: "Leche Entera 1L", UnitPrice: 1000, AvailableStock: 40, CategoryName: "Lácteos", Active: true},
		{Code: "PAN005", Name: "Pan de Molde Blanco", UnitPrice: 2500, AvailableStock: 20, CategoryName: "Panadería", Active: true},
	}
}

// rowError is a sheet row that could not be read
type rowError struct {
	Row int
	Err error
}

func (e rowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Err)
}

// readCatalog reads products from the first sheet of an xlsx workbook.
// Row 1 is the header; bad rows are reported and skipped.
func readCatalog(path string) ([]domain.Product, []rowError, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, nil, fmt.Errorf("no sheets found in catalog file")
	}
	return parseSheet(file.Sheets[0])
}

func parseSheet(sheet *xlsx.Sheet) ([]domain.Product, []rowError, error) {
	var (
		products []domain.Product
		bad      []rowError
		rowIdx   int
	)

	err := sheet.ForEachRow(func(r *xlsx.Row) error {
		rowIdx++
		if rowIdx == 1 {
			return nil
		}

		get := func(i int) string {
			c := r.GetCell(i)
			if c == nil {
				return ""
			}
			if s, err := c.FormattedValue(); err == nil {
				return strings.TrimSpace(s)
			}
			return strings.TrimSpace(c.String())
		}

		code := get(0)
		if code == "" {
			return nil
		}

		price, err := parsePesos(get(2))
		if err != nil {
			bad = append(bad, rowError{Row: rowIdx, Err: fmt.Errorf("price: %w", err)})
			return nil
		}
		stock, err := strconv.Atoi(get(3))
		if err != nil {
			bad = append(bad, rowError{Row: rowIdx, Err: fmt.Errorf("stock: %w", err)})
			return nil
		}

		p := domain.Product{
			Code:           code,
			Name:           get(1),
			UnitPrice:      price,
			AvailableStock: stock,
			CategoryName:   get(4),
			Active:         true,
		}
		if err := p.Validate(); err != nil {
			bad = append(bad, rowError{Row: rowIdx, Err: err})
			return nil
		}
		products = append(products, p)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return products, bad, nil
}

// parsePesos accepts 1500, 1.500 and $1.500
func parsePesos(s string) (int64, error) {
	s = strings.NewReplacer("$", "", ".", "", " ", "").Replace(s)
	return strconv.ParseInt(s, 10, 64)
}

// seeder writes products through the repository, creating categories on
// the way. Products are matched by code so seeding twice is harmless.
type seeder struct {
	repo       ports.ProductRepository
	logger     *slog.Logger
	categories map[string]int64
}

func newSeeder(repo ports.ProductRepository, logger *slog.Logger) *seeder {
	return &seeder{
		repo:       repo,
		logger:     logger,
		categories: make(map[string]int64),
	}
}

// seed upserts products and returns how many were saved
func (s *seeder) seed(ctx context.Context, products []domain.Product) (int, error) {
	saved := 0
	for i := range products {
		p := products[i]

		if p.CategoryName != "" {
			id, ok := s.categories[p.CategoryName]
			if !ok {
				var err error
				id, err = s.repo.EnsureCategory(ctx, p.CategoryName, "")
				if err != nil {
					return saved, err
				}
				s.categories[p.CategoryName] = id
			}
			p.CategoryID = &id
		}

		if err := s.repo.Upsert(ctx, &p); err != nil {
			return saved, fmt.Errorf("product %s: %w", p.Code, err)
		}
		saved++

		s.logger.Debug("product seeded",
			slog.String("code", p.Code),
			slog.Int64("id", p.ID))
	}
	return saved, nil
}
