// internal/adapters/redis_adapter/cache.go
package redis_a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ammerola/minimarket-pos/internal/core/ports"
	"github.com/redis/go-redis/v9"
)

// CacheKeyPrefix defines prefixes for different cache types
type CacheKeyPrefix string

const (
	PrefixSales CacheKeyPrefix = "sales"
)

var (
	// ErrCacheMiss is returned when a key is not found in cache
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheCorrupt is returned when a cached value cannot be decoded
	ErrCacheCorrupt = errors.New("cache value corrupt")
)

// Cache provides JSON value caching on Redis
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Statically assert that *Cache implements the CacheRepository interface.
var _ ports.CacheRepository = (*Cache)(nil)

// NewCache creates a new cache instance
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "cache")),
	}
}

// Set stores a value in cache with default TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores a value in cache with custom TTL
func (c *Cache) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.ErrorContext(ctx, "failed to set cache",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return fmt.Errorf("redis set error: %w", err)
	}

	c.logger.DebugContext(ctx, "cache set",
		slog.String("key", key),
		slog.Duration("ttl", ttl))

	return nil
}

// Get retrieves a value from cache
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.logger.DebugContext(ctx, "cache miss", slog.String("key", key))
			return ErrCacheMiss
		}
		c.logger.ErrorContext(ctx, "failed to get cache",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return fmt.Errorf("redis get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}

	c.logger.DebugContext(ctx, "cache hit", slog.String("key", key))
	return nil
}

// Delete removes keys from cache
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.ErrorContext(ctx, "failed to delete cache",
			slog.Any("keys", keys),
			slog.String("error", err.Error()))
		return fmt.Errorf("redis del error: %w", err)
	}

	c.logger.DebugContext(ctx, "cache deleted", slog.Any("keys", keys))
	return nil
}

// Expire sets a new expiration for a key
func (c *Cache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("redis expire error: %w", err)
	}
	return nil
}

// GetOrSet retrieves from cache or fetches and stores on a miss. A corrupt
// cached value is treated as a miss.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{},
	fetch func() (interface{}, error), ttl time.Duration) error {

	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheMiss) && !errors.Is(err, ErrCacheCorrupt) {
		return err
	}

	value, err := fetch()
	if err != nil {
		return fmt.Errorf("fetch error: %w", err)
	}

	if err := c.SetWithTTL(ctx, key, value, ttl); err != nil {
		c.logger.WarnContext(ctx, "failed to cache value after fetch",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal error: %w", err)
	}
	return nil
}

// Increment increments a counter
func (c *Cache) Increment(ctx context.Context, key string) (int64, error) {
	return c.IncrementBy(ctx, key, 1)
}

// IncrementBy increments a counter by a specific amount
func (c *Cache) IncrementBy(ctx context.Context, key string, value int64) (int64, error) {
	val, err := c.client.IncrBy(ctx, key, value).Result()
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to increment counter",
			slog.String("key", key),
			slog.Int64("value", value),
			slog.String("error", err.Error()))
		return 0, fmt.Errorf("redis incrby error: %w", err)
	}

	return val, nil
}

// Ping checks if Redis is accessible
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping error: %w", err)
	}
	return nil
}

// BuildKey creates a cache key with prefix
func BuildKey(prefix CacheKeyPrefix, parts ...string) string {
	return strings.Join(append([]string{string(prefix)}, parts...), ":")
}
