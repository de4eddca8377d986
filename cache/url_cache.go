package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Signed playback URLs are cached for a bit less than their actual
// lifetime so a cached entry is never handed out already expired.
const urlCacheMargin = 5 * time.Minute

// GetURLKey builds the Redis key for a resolved source URL.
func GetURLKey(locator string) string {
	return fmt.Sprintf("srcurl:%s", locator)
}

// GetSourceURL returns a cached playable URL for the locator, or "" on miss.
func GetSourceURL(ctx context.Context, locator string) (string, error) {
	if RedisClient == nil {
		return "", fmt.Errorf("Redis client not initialized")
	}

	url, err := RedisClient.Get(ctx, GetURLKey(locator)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get cached source URL: %w", err)
	}
	return url, nil
}

// SetSourceURL caches a resolved URL for the locator. The TTL is the
// signing lifetime minus a safety margin; lifetimes at or below the
// margin are not cached.
func SetSourceURL(ctx context.Context, locator, url string, lifetime time.Duration) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	ttl := lifetime - urlCacheMargin
	if ttl <= 0 {
		return nil
	}

	if err := RedisClient.Set(ctx, GetURLKey(locator), url, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache source URL: %w", err)
	}
	return nil
}
