// internal/notifications/delivery/badge_test.go
package delivery

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBadgeCounter(t *testing.T) *RedisBadgeCounter {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisBadgeCounter(client, "badges")
}

func TestRedisBadgeCounter_IncrementCreatesAndCounts(t *testing.T) {
	ctx := context.Background()
	badges := newBadgeCounter(t)

	count, err := badges.Increment(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = badges.Increment(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Other users are independent.
	count, err = badges.Increment(ctx, 43)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRedisBadgeCounter_GetMissingIsZero(t *testing.T) {
	ctx := context.Background()
	badges := newBadgeCounter(t)

	count, err := badges.Get(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRedisBadgeCounter_IncrementSurfacesRedisErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectIncr("badges:42").SetErr(assert.AnError)

	badges := NewRedisBadgeCounter(client, "badges")
	_, err := badges.Increment(context.Background(), 42)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBadgeCounter_Reset(t *testing.T) {
	ctx := context.Background()
	badges := newBadgeCounter(t)

	_, err := badges.Increment(ctx, 7)
	require.NoError(t, err)
	require.NoError(t, badges.Reset(ctx, 7))

	count, err := badges.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
