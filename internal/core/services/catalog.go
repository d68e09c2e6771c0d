// internal/core/services/catalog.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// Catalog holds the last product snapshot fetched from the inventory service.
// A snapshot is replaced wholesale on every successful reload and never
// mutated in place.
type Catalog struct {
	source   ports.InventoryService
	notifier ports.Notifier
	timeout  time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	products []domain.Product
	byID     map[int64]int
	byCode   map[string]int
	loadedAt time.Time
}

var _ ports.ProductCatalog = (*Catalog)(nil)

// NewCatalog creates an empty catalog. timeout bounds each reload; zero
// means the caller's context alone decides.
func NewCatalog(source ports.InventoryService, notifier ports.Notifier, timeout time.Duration, logger *slog.Logger) *Catalog {
	return &Catalog{
		source:   source,
		notifier: notifier,
		timeout:  timeout,
		logger:   logger.With(slog.String("service", "catalog")),
		byID:     map[int64]int{},
		byCode:   map[string]int{},
	}
}

// Reload fetches a fresh snapshot. On failure the previous snapshot (possibly
// empty) stays in place and the cashier is notified.
func (c *Catalog) Reload(ctx context.Context) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	products, err := c.source.ListProducts(ctx)
	if err != nil {
		c.mu.RLock()
		stale := len(c.products) > 0
		c.mu.RUnlock()

		c.logger.WarnContext(ctx, "failed to load products",
			slog.String("error", err.Error()),
			slog.Bool("stale", stale))
		c.notifier.Notify(ctx, catalogUnavailableNotice(stale))
		return fmt.Errorf("failed to load products: %w", err)
	}

	c.replace(products)

	c.logger.InfoContext(ctx, "catalog loaded",
		slog.Int("count", len(products)),
		slog.Duration("duration", time.Since(start)))

	return nil
}

func (c *Catalog) replace(products []domain.Product) {
	byID := make(map[int64]int, len(products))
	byCode := make(map[string]int, len(products))
	snapshot := make([]domain.Product, len(products))
	copy(snapshot, products)

	for i, p := range snapshot {
		byID[p.ID] = i
		if p.Code != "" {
			byCode[p.Code] = i
		}
	}

	c.mu.Lock()
	c.products = snapshot
	c.byID = byID
	c.byCode = byCode
	c.loadedAt = time.Now()
	c.mu.Unlock()
}

// Product resolves a product id against the current snapshot
func (c *Catalog) Product(id int64) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[i], true
}

// LookupCode finds a product by exact code
func (c *Catalog) LookupCode(code string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byCode[code]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[i], true
}

// Products returns a copy of the current snapshot
func (c *Catalog) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Search filters the snapshot by case-insensitive name or code substring
func (c *Catalog) Search(term string) []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		if p.Matches(term) {
			out = append(out, p)
		}
	}
	return out
}

// LoadedAt reports when the current snapshot was fetched
func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}
