package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCoordinatorRateLimit(t *testing.T) {
	repo := NewMemoryCoordinator()
	ctx := context.Background()
	now := time.Date(2030, 3, 1, 11, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		allowed, err := repo.CheckRateLimit(ctx, "reserve:max", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := repo.CheckRateLimit(ctx, "reserve:max", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	now = now.Add(2 * time.Minute)
	allowed, err = repo.CheckRateLimit(ctx, "reserve:max", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryCoordinatorLock(t *testing.T) {
	repo := NewMemoryCoordinator()
	ctx := context.Background()
	now := time.Date(2030, 3, 1, 11, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	ok, err := repo.AcquireLock(ctx, "retention", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.AcquireLock(ctx, "retention", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// expired locks can be taken over
	now = now.Add(2 * time.Minute)
	ok, err = repo.AcquireLock(ctx, "retention", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.ReleaseLock(ctx, "retention"))
	ok, err = repo.AcquireLock(ctx, "retention", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
