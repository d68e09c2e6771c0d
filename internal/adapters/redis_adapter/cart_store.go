// internal/adapters/redis_adapter/cart_store.go
package redis_a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
	"github.com/redis/go-redis/v9"
)

// DefaultCartKey is the well-known key the terminal cart lives under
const DefaultCartKey = "minimarket-cart"

// CartStore persists the terminal cart as one JSON record without expiry
type CartStore struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

var _ ports.CartStore = (*CartStore)(nil)

// NewCartStore creates a cart store; an empty key selects DefaultCartKey
func NewCartStore(client *redis.Client, key string, logger *slog.Logger) *CartStore {
	if key == "" {
		key = DefaultCartKey
	}
	return &CartStore{
		client: client,
		key:    key,
		logger: logger.With(slog.String("component", "cart_store"), slog.String("key", key)),
	}
}

// Load reads the saved cart. A missing record is an empty cart, not an error.
func (s *CartStore) Load(ctx context.Context) ([]domain.CartLine, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: redis get: %w", domain.ErrPersistence, err)
	}

	var lines []domain.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", domain.ErrPersistence, err)
	}

	s.logger.DebugContext(ctx, "cart loaded", slog.Int("lines", len(lines)))
	return lines, nil
}

// Save overwrites the saved cart with lines
func (s *CartStore) Save(ctx context.Context, lines []domain.CartLine) error {
	if lines == nil {
		lines = []domain.CartLine{}
	}

	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", domain.ErrPersistence, err)
	}

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %w", domain.ErrPersistence, err)
	}
	return nil
}
