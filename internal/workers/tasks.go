// internal/workers/tasks.go
package workers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	redis_a "github.com/ammerola/minimarket-pos/internal/adapters/redis_adapter"
	"github.com/ammerola/minimarket-pos/internal/core/domain"
)

const (
	TypeSaleCommitted    = "sale:committed"
	TypeDailySalesReport = "report:daily_sales"
)

// Queue names, matching ASYNQ_QUEUES
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// SaleCommittedPayload is the follow-up work for one recorded sale
type SaleCommittedPayload struct {
	SaleID     string    `json:"sale_id"`
	Total      int64     `json:"total"`
	ProductIDs []int64   `json:"product_ids"`
	CreatedAt  time.Time `json:"created_at"`
}

// DailyReportPayload selects the day to export; empty means yesterday
type DailyReportPayload struct {
	Date string `json:"date,omitempty"`
}

// NewSaleCommittedTask builds the task for sale. The sale id doubles as
// the task id so a retried enqueue is not processed twice.
func NewSaleCommittedTask(sale *domain.Sale) (*asynq.Task, error) {
	payload, err := json.Marshal(SaleCommittedPayload{
		SaleID:     sale.ID.String(),
		Total:      sale.Total,
		ProductIDs: sale.ProductIDs(),
		CreatedAt:  sale.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return asynq.NewTask(TypeSaleCommitted, payload,
		asynq.TaskID("sale:"+sale.ID.String()),
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	), nil
}

// NewDailyReportTask builds the report task for day
func NewDailyReportTask(day string) (*asynq.Task, error) {
	if day != "" {
		if _, err := time.Parse(domain.DayLayout, day); err != nil {
			return nil, fmt.Errorf("invalid report date %q: %w", day, err)
		}
	}

	payload, err := json.Marshal(DailyReportPayload{Date: day})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return asynq.NewTask(TypeDailySalesReport, payload,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
	), nil
}

// SalesCounterKeys returns the Redis keys of the running totals for day
func SalesCounterKeys(day string) (total, count string) {
	return redis_a.BuildKey(redis_a.PrefixSales, "day", day, "total"),
		redis_a.BuildKey(redis_a.PrefixSales, "day", day, "count")
}
