package repository

import (
	"context"
	"testing"
	"time"

	"lernecken/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return s, client
}

func TestRedisCoordinatorRateLimit(t *testing.T) {
	s, client := newMiniredis(t)
	repo := NewRedisCoordinator(client)
	ctx := context.Background()

	// First request
	allowed, err := repo.CheckRateLimit(ctx, "reserve:max", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Second request
	allowed, err = repo.CheckRateLimit(ctx, "reserve:max", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Third request (exceeds limit)
	allowed, err = repo.CheckRateLimit(ctx, "reserve:max", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// other keys have their own window
	allowed, err = repo.CheckRateLimit(ctx, "reserve:erika", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	// Wait for window to expire
	s.FastForward(2 * time.Minute)

	allowed, err = repo.CheckRateLimit(ctx, "reserve:max", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisCoordinatorLock(t *testing.T) {
	s, client := newMiniredis(t)
	first := NewRedisCoordinator(client)
	second := NewRedisCoordinator(client)
	ctx := context.Background()

	ok, err := first.AcquireLock(ctx, "retention", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.AcquireLock(ctx, "retention", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "lock is held by first")

	// releasing a lock we never took is a no-op
	require.NoError(t, second.ReleaseLock(ctx, "retention"))
	assert.True(t, s.Exists(lockPrefix+"retention"))

	require.NoError(t, first.ReleaseLock(ctx, "retention"))
	assert.False(t, s.Exists(lockPrefix+"retention"))

	ok, err = second.AcquireLock(ctx, "retention", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisCoordinatorLockExpiredTakeover(t *testing.T) {
	s, client := newMiniredis(t)
	first := NewRedisCoordinator(client)
	second := NewRedisCoordinator(client)
	ctx := context.Background()

	ok, err := first.AcquireLock(ctx, "retention", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	s.FastForward(2 * time.Second)

	ok, err = second.AcquireLock(ctx, "retention", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// the stale holder must not drop the new owner's lock
	require.NoError(t, first.ReleaseLock(ctx, "retention"))
	assert.True(t, s.Exists(lockPrefix+"retention"))
}

func TestRedisCoordinatorNilClient(t *testing.T) {
	repo := NewRedisCoordinator(nil)
	ctx := context.Background()

	_, err := repo.CheckRateLimit(ctx, "k", 1, time.Second)
	assert.Error(t, err)
	_, err = repo.AcquireLock(ctx, "k", time.Second)
	assert.Error(t, err)
	assert.Error(t, repo.ReleaseLock(ctx, "k"))
}

func TestPingAndClose(t *testing.T) {
	s, client := newMiniredis(t)
	ctx := context.Background()

	assert.NoError(t, Ping(ctx, client))
	s.Close()
	assert.Error(t, Ping(ctx, client))
	assert.NoError(t, Close(nil))
}
