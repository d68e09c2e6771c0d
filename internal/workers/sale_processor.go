// internal/workers/sale_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
	"github.com/ammerola/minimarket-pos/internal/core/services"
	"github.com/ammerola/minimarket-pos/internal/pkg/logger"
)

// counterRetention keeps a week of daily counters around
const counterRetention = 8 * 24 * time.Hour

// SaleProcessor runs the post-commit follow-up of a sale: catalog cache
// invalidation, daily running totals and low stock warnings
type SaleProcessor struct {
	cache     ports.CacheRepository
	products  ports.ProductRepository
	threshold int
	logger    *slog.Logger
}

// NewSaleProcessor creates a new sale processor
func NewSaleProcessor(cache ports.CacheRepository, products ports.ProductRepository,
	lowStockThreshold int, logger *slog.Logger) *SaleProcessor {
	return &SaleProcessor{
		cache:     cache,
		products:  products,
		threshold: lowStockThreshold,
		logger:    logger.With(slog.String("processor", "sale")),
	}
}

// ProcessSaleCommitted handles a sale:committed task
func (p *SaleProcessor) ProcessSaleCommitted(ctx context.Context, t *asynq.Task) error {
	var payload SaleCommittedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	ctx = logger.WithValue(ctx, logger.ContextKeySaleID, payload.SaleID)

	if err := p.cache.Delete(ctx, services.CatalogCacheKey); err != nil {
		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}

	day := payload.CreatedAt.In(time.Local).Format(domain.DayLayout)
	totalKey, countKey := SalesCounterKeys(day)

	total, err := p.cache.IncrementBy(ctx, totalKey, payload.Total)
	if err != nil {
		return fmt.Errorf("failed to update sales total: %w", err)
	}
	count, err := p.cache.Increment(ctx, countKey)
	if err != nil {
		return fmt.Errorf("failed to update sales count: %w", err)
	}
	for _, key := range []string{totalKey, countKey} {
		if err := p.cache.Expire(ctx, key, counterRetention); err != nil {
			p.logger.WarnContext(ctx, "failed to set counter expiry",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
	}

	p.logger.InfoContext(ctx, "sale follow-up done",
		slog.String("day", day),
		slog.Int64("day_total", total),
		slog.Int64("day_count", count))

	if len(payload.ProductIDs) == 0 {
		return nil
	}

	low, err := p.products.LowStock(ctx, p.threshold, payload.ProductIDs)
	if err != nil {
		// Counters are already bumped; a retry would count the sale twice.
		p.logger.WarnContext(ctx, "failed to check stock levels",
			slog.String("error", err.Error()))
		return nil
	}
	for _, product := range low {
		p.logger.WarnContext(ctx, "low stock",
			slog.Int64("product_id", product.ID),
			slog.String("code", product.Code),
			slog.String("name", product.Name),
			slog.Int("available", product.AvailableStock),
			slog.Int("threshold", p.threshold))
	}

	return nil
}
