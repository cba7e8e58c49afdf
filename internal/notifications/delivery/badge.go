// internal/notifications/delivery/badge.go
package delivery

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBadgeCounter keeps the per-user unread badge counts. INCR is the
// atomic increment-or-insert the contract requires; redelivered events may
// over-count, which is accepted.
type RedisBadgeCounter struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisBadgeCounter(client *redis.Client, keyPrefix string) *RedisBadgeCounter {
	if keyPrefix == "" {
		keyPrefix = "badges"
	}
	return &RedisBadgeCounter{client: client, keyPrefix: keyPrefix}
}

func (b *RedisBadgeCounter) key(userID int64) string {
	return fmt.Sprintf("%s:%d", b.keyPrefix, userID)
}

// Increment bumps the user's badge count and returns the new value.
func (b *RedisBadgeCounter) Increment(ctx context.Context, userID int64) (int64, error) {
	return b.client.Incr(ctx, b.key(userID)).Result()
}

// Get reads the current badge count, 0 when absent.
func (b *RedisBadgeCounter) Get(ctx context.Context, userID int64) (int64, error) {
	val, err := b.client.Get(ctx, b.key(userID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

// Reset clears the badge count, e.g. when the client marks all read.
func (b *RedisBadgeCounter) Reset(ctx context.Context, userID int64) error {
	return b.client.Del(ctx, b.key(userID)).Err()
}
