package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCoordinator struct {
	mock.Mock
}

func (m *mockCoordinator) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *mockCoordinator) AcquireLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, name, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockCoordinator) ReleaseLock(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func TestFailoverCoordinator(t *testing.T) {
	primary := new(mockCoordinator)
	fallback := new(mockCoordinator)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverCoordinator(primary, fallback, &logger)
	ctx := context.Background()

	now := time.Date(2030, 3, 1, 11, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	t.Run("PrimaryHealthy", func(t *testing.T) {
		primary.On("CheckRateLimit", ctx, "k", 5, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "k", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.False(t, repo.Degraded())
	})

	t.Run("PrimaryFailsOver", func(t *testing.T) {
		primary.On("AcquireLock", ctx, "retention", time.Minute).Return(false, errors.New("connection refused")).Once()
		fallback.On("AcquireLock", ctx, "retention", time.Minute).Return(true, nil).Once()

		ok, err := repo.AcquireLock(ctx, "retention", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, repo.Degraded())
	})

	t.Run("StaysOnFallbackUntilRecoveryInterval", func(t *testing.T) {
		fallback.On("CheckRateLimit", ctx, "k", 5, time.Minute).Return(false, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "k", 5, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
		primary.AssertNumberOfCalls(t, "CheckRateLimit", 1)
	})

	t.Run("Recovers", func(t *testing.T) {
		now = now.Add(2 * recoveryInterval)
		primary.On("CheckRateLimit", ctx, "k", 5, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "k", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.False(t, repo.Degraded())
	})

	t.Run("ReleaseBothSides", func(t *testing.T) {
		fallback.On("ReleaseLock", ctx, "retention").Return(nil).Once()
		primary.On("ReleaseLock", ctx, "retention").Return(nil).Once()

		require.NoError(t, repo.ReleaseLock(ctx, "retention"))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}
