// internal/workers/sale_processor_test.go
package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	redis_a "github.com/ammerola/minimarket-pos/internal/adapters/redis_adapter"
	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/services"
	"github.com/ammerola/minimarket-pos/internal/workers"
	"github.com/ammerola/minimarket-pos/test/helpers"
	"github.com/ammerola/minimarket-pos/test/mocks"
)

func TestSaleProcessor_ProcessSaleCommitted(t *testing.T) {
	ctx := context.Background()
	sale := testSale(t)
	task, err := workers.NewSaleCommittedTask(sale)
	require.NoError(t, err)

	tests := []struct {
		name       string
		setupMocks func(*mocks.MockProductRepository)
		runs       int
		wantTotal  string
		wantCount  string
	}{
		{
			name: "updates_counters_and_checks_stock",
			setupMocks: func(repo *mocks.MockProductRepository) {
				repo.EXPECT().
					LowStock(gomock.Any(), 5, []int64{1, 3}).
					Return([]domain.Product{*helpers.CreateTestProduct(func(p *domain.Product) { p.AvailableStock = 2 })}, nil)
			},
			runs:      1,
			wantTotal: "4200",
			wantCount: "1",
		},
		{
			name: "stock_check_failure_is_not_retried",
			setupMocks: func(repo *mocks.MockProductRepository) {
				repo.EXPECT().
					LowStock(gomock.Any(), 5, []int64{1, 3}).
					Return(nil, errors.New("connection reset"))
			},
			runs:      1,
			wantTotal: "4200",
			wantCount: "1",
		},
		{
			name: "counters_accumulate",
			setupMocks: func(repo *mocks.MockProductRepository) {
				repo.EXPECT().LowStock(gomock.Any(), 5, []int64{1, 3}).Return(nil, nil).Times(2)
			},
			runs:      2,
			wantTotal: "8400",
			wantCount: "2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockProductRepository(ctrl)
			tt.setupMocks(repo)

			tr := helpers.SetupTestRedis(t)
			cache := redis_a.NewCache(tr.Client, time.Minute, helpers.TestLogger())
			require.NoError(t, cache.Set(ctx, services.CatalogCacheKey, helpers.DemoCatalog()))

			processor := workers.NewSaleProcessor(cache, repo, 5, helpers.TestLogger())
			for i := 0; i < tt.runs; i++ {
				require.NoError(t, processor.ProcessSaleCommitted(ctx, task))
			}

			assert.False(t, tr.Server.Exists(services.CatalogCacheKey))

			totalKey, countKey := workers.SalesCounterKeys("2025-03-14")
			total, err := tr.Server.Get(totalKey)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			count, err := tr.Server.Get(countKey)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, count)
			assert.Equal(t, 8*24*time.Hour, tr.Server.TTL(totalKey))
		})
	}
}

func TestSaleProcessor_NoProducts(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockProductRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)

	payload, err := json.Marshal(workers.SaleCommittedPayload{
		SaleID:    "8a0f1f2e-0000-4000-8000-000000000001",
		Total:     0,
		CreatedAt: time.Date(2025, 3, 14, 9, 0, 0, 0, time.Local),
	})
	require.NoError(t, err)

	totalKey, countKey := workers.SalesCounterKeys("2025-03-14")
	cache.EXPECT().Delete(gomock.Any(), services.CatalogCacheKey).Return(nil)
	cache.EXPECT().IncrementBy(gomock.Any(), totalKey, int64(0)).Return(int64(0), nil)
	cache.EXPECT().Increment(gomock.Any(), countKey).Return(int64(1), nil)
	cache.EXPECT().Expire(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("readonly")).Times(2)

	processor := workers.NewSaleProcessor(cache, repo, 5, helpers.TestLogger())
	assert.NoError(t, processor.ProcessSaleCommitted(context.Background(), asynq.NewTask(workers.TypeSaleCommitted, payload)))
}

func TestSaleProcessor_Failures(t *testing.T) {
	tests := []struct {
		name       string
		payload    []byte
		setupMocks func(*mocks.MockCacheRepository)
		skipRetry  bool
	}{
		{
			name:      "malformed_payload",
			payload:   []byte("{not json"),
			skipRetry: true,
		},
		{
			name:    "cache_unavailable",
			payload: []byte(`{"sale_id":"x","total":100,"created_at":"2025-03-14T10:00:00Z"}`),
			setupMocks: func(cache *mocks.MockCacheRepository) {
				cache.EXPECT().Delete(gomock.Any(), services.CatalogCacheKey).Return(errors.New("connection refused"))
			},
		},
		{
			name:    "counter_failure",
			payload: []byte(`{"sale_id":"x","total":100,"created_at":"2025-03-14T10:00:00Z"}`),
			setupMocks: func(cache *mocks.MockCacheRepository) {
				cache.EXPECT().Delete(gomock.Any(), services.CatalogCacheKey).Return(nil)
				cache.EXPECT().IncrementBy(gomock.Any(), gomock.Any(), int64(100)).Return(int64(0), errors.New("WRONGTYPE"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			cache := mocks.NewMockCacheRepository(ctrl)
			repo := mocks.NewMockProductRepository(ctrl)
			if tt.setupMocks != nil {
				tt.setupMocks(cache)
			}

			processor := workers.NewSaleProcessor(cache, repo, 5, helpers.TestLogger())
			err := processor.ProcessSaleCommitted(context.Background(), asynq.NewTask(workers.TypeSaleCommitted, tt.payload))
			require.Error(t, err)
			assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
		})
	}
}
