// internal/core/ports/tasks.go
package ports

import (
	"context"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
)

// TaskEnqueuer hands post-commit work to the background worker
type TaskEnqueuer interface {
	EnqueueSaleCommitted(ctx context.Context, sale *domain.Sale) error
	// EnqueueDailyReport schedules the spreadsheet for a local calendar day
	// (YYYY-MM-DD); an empty day means yesterday.
	EnqueueDailyReport(ctx context.Context, day string) error
}
