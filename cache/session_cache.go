package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ajnadfm/model"

	"github.com/go-redis/redis/v8"
)

// SessionSnapshot is the persisted part of a playback session: the queue
// and the current position. Mode flags are deliberately not persisted;
// repeat-one always starts off on a fresh connection.
type SessionSnapshot struct {
	Queue []model.Nasheed `json:"queue"`
	Index int             `json:"index"`
}

const sessionTTL = 24 * time.Hour

// GetSessionKey builds the Redis key for a user's session snapshot.
func GetSessionKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}

// SaveSession stores the user's queue snapshot.
func SaveSession(ctx context.Context, userID int64, snap SessionSnapshot) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal session snapshot: %w", err)
	}

	if err := RedisClient.Set(ctx, GetSessionKey(userID), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to save session snapshot: %w", err)
	}
	return nil
}

// LoadSession returns the user's stored queue snapshot, or nil if none.
func LoadSession(ctx context.Context, userID int64) (*SessionSnapshot, error) {
	if RedisClient == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	data, err := RedisClient.Get(ctx, GetSessionKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session snapshot: %w", err)
	}

	var snap SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session snapshot: %w", err)
	}
	return &snap, nil
}

// ClearSession removes the user's stored snapshot.
func ClearSession(ctx context.Context, userID int64) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	return RedisClient.Del(ctx, GetSessionKey(userID)).Err()
}
