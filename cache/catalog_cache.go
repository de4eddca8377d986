package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ajnadfm/model"

	"github.com/go-redis/redis/v8"
)

// Catalog listings change rarely; a short TTL keeps the resolver race
// off the hot path without making fresh uploads invisible for long.
const catalogTTL = 60 * time.Second

// GetCatalogKey builds the Redis key for a catalog listing.
func GetCatalogKey(q string, page, limit int) string {
	return fmt.Sprintf("catalog:%s:%d:%d", strings.ToLower(strings.TrimSpace(q)), page, limit)
}

// GetCatalog returns a cached listing, or nil on miss.
func GetCatalog(ctx context.Context, q string, page, limit int) ([]model.Nasheed, error) {
	if RedisClient == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	data, err := RedisClient.Get(ctx, GetCatalogKey(q, page, limit)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached catalog: %w", err)
	}

	var rows []model.Nasheed
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached catalog: %w", err)
	}
	return rows, nil
}

// SetCatalog caches a listing.
func SetCatalog(ctx context.Context, q string, page, limit int, rows []model.Nasheed) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog rows: %w", err)
	}

	if err := RedisClient.Set(ctx, GetCatalogKey(q, page, limit), data, catalogTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache catalog rows: %w", err)
	}
	return nil
}
