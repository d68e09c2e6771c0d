// internal/adapters/redis_adapter/cache_test.go
package redis_a_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redis_a "github.com/ammerola/minimarket-pos/internal/adapters/redis_adapter"
	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/test/helpers"
)

func TestCache_SetAndGet(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := redis_a.NewCache(client, 5*time.Minute, helpers.TestLogger())

	tests := []struct {
		name      string
		key       string
		value     interface{}
		wantError bool
	}{
		{
			name:  "stores_and_retrieves_string",
			key:   "test:string",
			value: "Agua Mineral 1.5L",
		},
		{
			name:  "stores_and_retrieves_struct",
			key:   "test:struct",
			value: domain.CartLine{ProductID: 1, Name: "Refresco Cola 2L", UnitPrice: 1500, Quantity: 2},
		},
		{
			name:  "stores_and_retrieves_slice",
			key:   "test:slice",
			value: []string{"REF001", "AGUA002", "SNK003"},
		},
		{
			name: "stores_and_retrieves_map",
			key:  "test:map",
			value: map[string]interface{}{
				"code":   "PAN005",
				"stock":  20,
				"active": true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Set value
			err := cache.Set(ctx, tt.key, tt.value)
			require.NoError(t, err)

			// Get value
			var result interface{}
			if _, ok := tt.value.(string); ok {
				var strResult string
				err = cache.Get(ctx, tt.key, &strResult)
				result = strResult
			} else if _, ok := tt.value.([]string); ok {
				var sliceResult []string
				err = cache.Get(ctx, tt.key, &sliceResult)
				result = sliceResult
			} else {
				// For complex types, unmarshal to json.RawMessage first
				var jsonResult json.RawMessage
				err = cache.Get(ctx, tt.key, &jsonResult)
				require.NoError(t, err)

				expectedJSON, _ := json.Marshal(tt.value)
				assert.JSONEq(t, string(expectedJSON), string(jsonResult))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.value, result)
		})
	}
}

func TestCache_SetWithTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := redis_a.NewCache(client, 5*time.Minute, helpers.TestLogger())

	// Set with short TTL
	err := cache.SetWithTTL(ctx, "ttl:test", "value", 100*time.Millisecond)
	require.NoError(t, err)

	// Verify it exists
	var result string
	err = cache.Get(ctx, "ttl:test", &result)
	require.NoError(t, err)
	assert.Equal(t, "value", result)

	// Fast forward time in miniredis
	mr.FastForward(200 * time.Millisecond)

	// Should be expired
	err = cache.Get(ctx, "ttl:test", &result)
	assert.ErrorIs(t, err, redis_a.ErrCacheMiss)
}

func TestCache_Delete(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := redis_a.NewCache(client, 5*time.Minute, helpers.TestLogger())

	// Set multiple keys
	keys := []string{"del:1", "del:2", "del:3"}
	for _, key := range keys {
		err := cache.Set(ctx, key, "value")
		require.NoError(t, err)
	}

	// Delete keys
	err := cache.Delete(ctx, keys...)
	require.NoError(t, err)

	// Verify all deleted
	for _, key := range keys {
		var result string
		err := cache.Get(ctx, key, &result)
		assert.ErrorIs(t, err, redis_a.ErrCacheMiss)
	}
}

func TestCache_GetOrSet(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := redis_a.NewCache(client, 5*time.Minute, helpers.TestLogger())

	fetchCount := 0
	fetchFunc := func() (interface{}, error) {
		fetchCount++
		return "fetched value", nil
	}

	// First call should fetch
	var result1 string
	err := cache.GetOrSet(ctx, "getorset:test", &result1, fetchFunc, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "fetched value", result1)
	assert.Equal(t, 1, fetchCount)

	// Second call should get from cache
	var result2 string
	err = cache.GetOrSet(ctx, "getorset:test", &result2, fetchFunc, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "fetched value", result2)
	assert.Equal(t, 1, fetchCount) // Should not increment
}

func TestCache_IncrementOperations(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := redis_a.NewCache(client, 5*time.Minute, helpers.TestLogger())

	// Test Increment
	val, err := cache.Increment(ctx, "counter:test")
	require.NoError(t, err)
	assert.Equal(t, int64(1), val)

	val, err = cache.Increment(ctx, "counter:test")
	require.NoError(t, err)
	assert.Equal(t, int64(2), val)

	// Test IncrementBy
	val, err = cache.IncrementBy(ctx, "counter:test", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(7), val)

	val, err = cache.IncrementBy(ctx, "counter:test", -2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), val)
}

func TestCache_GetOrSet_CorruptValueRefetches(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := redis_a.NewCache(client, 5*time.Minute, helpers.TestLogger())

	require.NoError(t, mr.Set("catalog:products", "{not json"))

	var products []domain.Product
	err := cache.GetOrSet(ctx, "catalog:products", &products, func() (interface{}, error) {
		return helpers.DemoCatalog(), nil
	}, time.Minute)
	require.NoError(t, err)
	assert.Len(t, products, 5)

	// The fetched value replaced the corrupt one
	var cached []domain.Product
	require.NoError(t, cache.Get(ctx, "catalog:products", &cached))
	assert.Equal(t, "REF001", cached[0].Code)
	assert.Equal(t, time.Minute, mr.TTL("catalog:products"))
}

func TestCache_GetOrSet_FetchError(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := redis_a.NewCache(client, 5*time.Minute, helpers.TestLogger())

	boom := errors.New("database down")
	var result []domain.Product
	err := cache.GetOrSet(ctx, "catalog:products", &result, func() (interface{}, error) {
		return nil, boom
	}, time.Minute)

	require.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("catalog:products"))
}

func TestCache_GetCorrupt(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := redis_a.NewCache(client, 5*time.Minute, helpers.TestLogger())

	require.NoError(t, mr.Set("bad", "{"))

	var out map[string]string
	err := cache.Get(ctx, "bad", &out)
	assert.ErrorIs(t, err, redis_a.ErrCacheCorrupt)
}

func TestCache_IncrementOperations_DailyCounters(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := redis_a.NewCache(client, 5*time.Minute, helpers.TestLogger())

	val, err := cache.Increment(ctx, "sales:day:2025-01-02:count")
	require.NoError(t, err)
	assert.Equal(t, int64(1), val)

	val, err = cache.IncrementBy(ctx, "sales:day:2025-01-02:total", 4500)
	require.NoError(t, err)
	assert.Equal(t, int64(4500), val)

	val, err = cache.IncrementBy(ctx, "sales:day:2025-01-02:total", 800)
	require.NoError(t, err)
	assert.Equal(t, int64(5300), val)

	// Counters decode through Get like any JSON value
	var total int64
	require.NoError(t, cache.Get(ctx, "sales:day:2025-01-02:total", &total))
	assert.Equal(t, int64(5300), total)

	require.NoError(t, cache.Expire(ctx, "sales:day:2025-01-02:total", time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("sales:day:2025-01-02:total"))
}

func TestCache_Ping(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := redis_a.NewCache(client, 5*time.Minute, helpers.TestLogger())

	require.NoError(t, cache.Ping(context.Background()))

	mr.Close()
	assert.Error(t, cache.Ping(context.Background()))
}

func TestCache_BuildKey(t *testing.T) {
	tests := []struct {
		name     string
		prefix   redis_a.CacheKeyPrefix
		parts    []string
		expected string
	}{
		{
			name:     "sales_counter",
			prefix:   redis_a.PrefixSales,
			parts:    []string{"day", "2025-01-02", "total"},
			expected: "sales:day:2025-01-02:total",
		},
		{
			name:     "no_parts",
			prefix:   redis_a.PrefixSales,
			parts:    []string{},
			expected: "sales",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, redis_a.BuildKey(tt.prefix, tt.parts...))
		})
	}
}
