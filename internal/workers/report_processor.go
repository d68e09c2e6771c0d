// internal/workers/report_processor.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// ReportProcessor exports a day of sales to a spreadsheet in report storage
type ReportProcessor struct {
	sales   ports.SaleRepository
	storage ports.ReportStorage
	prefix  string
	now     func() time.Time
	logger  *slog.Logger
}

// NewReportProcessor creates a new report processor writing under prefix
func NewReportProcessor(sales ports.SaleRepository, storage ports.ReportStorage, prefix string, logger *slog.Logger) *ReportProcessor {
	return &ReportProcessor{
		sales:   sales,
		storage: storage,
		prefix:  prefix,
		now:     time.Now,
		logger:  logger.With(slog.String("processor", "report")),
	}
}

// ReportKey is the storage key of the report for day
func (p *ReportProcessor) ReportKey(day string) string {
	return DailyReportKey(p.prefix, day)
}

// DailyReportKey is where the report for day is stored under prefix
func DailyReportKey(prefix, day string) string {
	return path.Join(prefix, day+".xlsx")
}

// ProcessDailySalesReport handles a report:daily_sales task
func (p *ReportProcessor) ProcessDailySalesReport(ctx context.Context, t *asynq.Task) error {
	start := time.Now()

	var payload DailyReportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	day := payload.Date
	if day == "" {
		day = p.now().In(time.Local).AddDate(0, 0, -1).Format(domain.DayLayout)
	}
	from, err := time.ParseInLocation(domain.DayLayout, day, time.Local)
	if err != nil {
		return fmt.Errorf("invalid report date %q: %v: %w", day, err, asynq.SkipRetry)
	}

	sales, err := p.sales.ListBetween(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("failed to load sales: %w", err)
	}

	file, err := BuildDailyReport(day, sales)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	key := p.ReportKey(day)
	location, err := p.storage.Upload(ctx, key, &buf, xlsxContentType, map[string]string{
		"report-date": day,
		"sale-count":  fmt.Sprint(len(sales)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload report: %w", err)
	}

	p.logger.InfoContext(ctx, "daily sales report stored",
		slog.String("day", day),
		slog.Int("sales", len(sales)),
		slog.String("location", location),
		slog.Duration("duration", time.Since(start)))

	if url, err := p.storage.PresignedURL(ctx, key, 24*time.Hour); err == nil {
		p.logger.DebugContext(ctx, "report download link", slog.String("url", url))
	}

	return nil
}
