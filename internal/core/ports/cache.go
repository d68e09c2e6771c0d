// internal/core/ports/cache.go
package ports

import (
	"context"
	"time"
)

// CacheRepository defines the interface for cache operations
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}) error
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// GetOrSet fills dest from cache, or from fetch on a miss, storing the
	// fetched value for ttl.
	GetOrSet(ctx context.Context, key string, dest interface{},
		fetch func() (interface{}, error), ttl time.Duration) error

	// Counter operations
	Increment(ctx context.Context, key string) (int64, error)
	IncrementBy(ctx context.Context, key string, value int64) (int64, error)

	Ping(ctx context.Context) error
}
