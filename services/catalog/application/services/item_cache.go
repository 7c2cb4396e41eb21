package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sourcedhq/sourced/pkg/cache"
	"github.com/sourcedhq/sourced/services/catalog/domain/models"
)

const (
	// itemCacheTTL is the time-to-live for cached items.
	itemCacheTTL = 24 * time.Hour

	itemCacheKeyPrefix = "item"
)

// ErrCacheMiss is returned by ItemCache.Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// ItemCache stores fully-hydrated items (taxonomy included) as JSON blobs in
// Redis. The enrichment worker warms it after a successful enrichment so
// reads immediately see the taxonomy without hitting Postgres.
// Key format: "item:{itemID}"
type ItemCache struct {
	client *cache.RedisClient
}

// NewItemCache creates an ItemCache backed by the given RedisClient.
func NewItemCache(r *cache.RedisClient) *ItemCache {
	return &ItemCache{client: r}
}

// Get retrieves a cached item by ID. Returns ErrCacheMiss when the key does
// not exist or has expired.
func (c *ItemCache) Get(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	raw, err := c.client.Client().Get(ctx, c.key(itemID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var item models.Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &item, nil
}

// Set writes an item with a 24-hour TTL.
func (c *ItemCache) Set(ctx context.Context, item *models.Item) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Client().Set(ctx, c.key(item.ID), raw, itemCacheTTL).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete removes a cached item.
func (c *ItemCache) Delete(ctx context.Context, itemID uuid.UUID) error {
	if err := c.client.Client().Del(ctx, c.key(itemID)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

func (c *ItemCache) key(itemID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", itemCacheKeyPrefix, itemID)
}
