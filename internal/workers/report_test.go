// internal/workers/report_test.go
package workers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/minimarket-pos/internal/adapters/storage"
	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/workers"
	"github.com/ammerola/minimarket-pos/test/helpers"
	"github.com/ammerola/minimarket-pos/test/mocks"
)

func reportSales() []domain.Sale {
	at := time.Date(2025, 3, 14, 10, 0, 0, 0, time.Local)
	return []domain.Sale{
		{
			ID:            uuid.MustParse("11111111-1111-4111-8111-111111111111"),
			Total:         3800,
			PaymentMethod: domain.PaymentCash,
			CashReceived:  5000,
			ChangeDue:     1200,
			CreatedAt:     at,
			Items: []domain.SaleItem{
				{ProductID: 1, ProductCode: "REF001", ProductName: "Refresco Cola 2L", Quantity: 2, UnitPrice: 1500, Subtotal: 3000},
				{ProductID: 2, ProductCode: "AGUA002", ProductName: "Agua Mineral 1.5L", Quantity: 1, UnitPrice: 800, Subtotal: 800},
			},
		},
		{
			ID:            uuid.MustParse("22222222-2222-4222-8222-222222222222"),
			Total:         2500,
			PaymentMethod: domain.PaymentCard,
			CashReceived:  2500,
			CreatedAt:     at.Add(time.Hour),
			Items: []domain.SaleItem{
				{ProductID: 5, ProductCode: "PAN005", ProductName: "Pan de Molde Blanco", Quantity: 1, UnitPrice: 2500, Subtotal: 2500},
			},
		},
	}
}

func cellValue(t *testing.T, sheet *xlsx.Sheet, row, col int) string {
	t.Helper()
	cell, err := sheet.Cell(row, col)
	require.NoError(t, err)
	return cell.Value
}

func TestBuildDailyReport(t *testing.T) {
	file, err := workers.BuildDailyReport("2025-03-14", reportSales())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, file.Write(&buf))

	read, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)

	summary, ok := read.Sheet["Summary"]
	require.True(t, ok)
	assert.Equal(t, "card", cellValue(t, summary, 1, 0))
	assert.Equal(t, "2500", cellValue(t, summary, 1, 2))
	assert.Equal(t, "cash", cellValue(t, summary, 2, 0))
	assert.Equal(t, "3800", cellValue(t, summary, 2, 2))
	assert.Equal(t, "Total 2025-03-14", cellValue(t, summary, 3, 0))
	assert.Equal(t, "2", cellValue(t, summary, 3, 1))
	assert.Equal(t, "6300", cellValue(t, summary, 3, 2))

	sales := read.Sheet["Sales"]
	require.NotNil(t, sales)
	assert.Equal(t, 3, sales.MaxRow)
	assert.Equal(t, "11111111-1111-4111-8111-111111111111", cellValue(t, sales, 1, 0))
	assert.Equal(t, "3", cellValue(t, sales, 1, 3))

	items := read.Sheet["Items"]
	require.NotNil(t, items)
	assert.Equal(t, 4, items.MaxRow)
	assert.Equal(t, "PAN005", cellValue(t, items, 3, 1))
}

func TestBuildDailyReport_NoSales(t *testing.T) {
	file, err := workers.BuildDailyReport("2025-03-15", nil)
	require.NoError(t, err)

	summary := file.Sheet["Summary"]
	require.NotNil(t, summary)
	assert.Equal(t, "Total 2025-03-15", cellValue(t, summary, 1, 0))
	assert.Equal(t, "0", cellValue(t, summary, 1, 2))
}

func TestReportProcessor_ProcessDailySalesReport(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSaleRepository(ctrl)

	from := time.Date(2025, 3, 14, 0, 0, 0, 0, time.Local)
	repo.EXPECT().ListBetween(gomock.Any(), from, from.AddDate(0, 0, 1)).Return(reportSales(), nil)

	dir := t.TempDir()
	store := storage.NewLocalStorage(dir, helpers.TestLogger())
	processor := workers.NewReportProcessor(repo, store, "reports/sales", helpers.TestLogger())
	processor.SetClock(func() time.Time { return time.Date(2025, 3, 15, 0, 5, 0, 0, time.Local) })

	// empty date selects yesterday
	task, err := workers.NewDailyReportTask("")
	require.NoError(t, err)
	require.NoError(t, processor.ProcessDailySalesReport(ctx, task))

	assert.Equal(t, "reports/sales/2025-03-14.xlsx", processor.ReportKey("2025-03-14"))
	exists, err := store.Exists(ctx, "reports/sales/2025-03-14.xlsx")
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := os.ReadFile(filepath.Join(dir, "reports", "sales", "2025-03-14.xlsx"))
	require.NoError(t, err)
	read, err := xlsx.OpenBinary(data)
	require.NoError(t, err)
	assert.Contains(t, read.Sheet, "Items")
}

func TestReportProcessor_Upload(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSaleRepository(ctrl)
	store := mocks.NewMockReportStorage(ctrl)

	repo.EXPECT().ListBetween(gomock.Any(), gomock.Any(), gomock.Any()).Return(reportSales(), nil)
	store.EXPECT().
		Upload(gomock.Any(), "reports/2025-03-14.xlsx", gomock.Any(),
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			map[string]string{"report-date": "2025-03-14", "sale-count": "2"}).
		DoAndReturn(func(_ context.Context, _ string, data io.Reader, _ string, _ map[string]string) (string, error) {
			body, err := io.ReadAll(data)
			require.NoError(t, err)
			assert.NotEmpty(t, body)
			return "s3://bucket/reports/2025-03-14.xlsx", nil
		})
	store.EXPECT().PresignedURL(gomock.Any(), "reports/2025-03-14.xlsx", 24*time.Hour).Return("", errors.New("no presign"))

	processor := workers.NewReportProcessor(repo, store, "reports", helpers.TestLogger())
	task, err := workers.NewDailyReportTask("2025-03-14")
	require.NoError(t, err)
	assert.NoError(t, processor.ProcessDailySalesReport(context.Background(), task))
}

func TestReportProcessor_Failures(t *testing.T) {
	tests := []struct {
		name       string
		payload    []byte
		setupMocks func(*mocks.MockSaleRepository, *mocks.MockReportStorage)
		skipRetry  bool
	}{
		{
			name:      "malformed_payload",
			payload:   []byte("]"),
			skipRetry: true,
		},
		{
			name:      "bad_date",
			payload:   mustJSON(t, workers.DailyReportPayload{Date: "2025-13-40"}),
			skipRetry: true,
		},
		{
			name:    "repository_error",
			payload: mustJSON(t, workers.DailyReportPayload{Date: "2025-03-14"}),
			setupMocks: func(repo *mocks.MockSaleRepository, _ *mocks.MockReportStorage) {
				repo.EXPECT().ListBetween(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))
			},
		},
		{
			name:    "upload_error",
			payload: mustJSON(t, workers.DailyReportPayload{Date: "2025-03-14"}),
			setupMocks: func(repo *mocks.MockSaleRepository, store *mocks.MockReportStorage) {
				repo.EXPECT().ListBetween(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
				store.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return("", errors.New("access denied"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockSaleRepository(ctrl)
			store := mocks.NewMockReportStorage(ctrl)
			if tt.setupMocks != nil {
				tt.setupMocks(repo, store)
			}

			processor := workers.NewReportProcessor(repo, store, "reports", helpers.TestLogger())
			err := processor.ProcessDailySalesReport(context.Background(), asynq.NewTask(workers.TypeDailySalesReport, tt.payload))
			require.Error(t, err)
			assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
		})
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
