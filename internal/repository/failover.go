package repository

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Coordinator combines rate limiting and job locking.
type Coordinator interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name string) error
}

const recoveryInterval = time.Minute

// FailoverCoordinator prefers the primary and switches to the fallback after
// an error, probing the primary again once recoveryInterval has passed.
type FailoverCoordinator struct {
	primary  Coordinator
	fallback Coordinator
	logger   *zerolog.Logger

	mu        sync.Mutex
	isDown    bool
	lastCheck time.Time
	now       func() time.Time
}

func NewFailoverCoordinator(primary, fallback Coordinator, logger *zerolog.Logger) *FailoverCoordinator {
	return &FailoverCoordinator{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// usePrimary reports whether the next call should go to the primary.
func (r *FailoverCoordinator) usePrimary() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.isDown || r.now().Sub(r.lastCheck) > recoveryInterval
}

func (r *FailoverCoordinator) report(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err == nil {
		if r.isDown {
			r.logger.Info().Msg("Primary coordinator recovered")
		}
		r.isDown = false
		return
	}
	if !r.isDown {
		r.logger.Error().Err(err).Msg("Primary coordinator failed, falling back to memory")
	}
	r.isDown = true
	r.lastCheck = r.now()
}

// Degraded reports whether calls currently go to the fallback.
func (r *FailoverCoordinator) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isDown
}

func (r *FailoverCoordinator) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		r.report(err)
		if err == nil {
			return allowed, nil
		}
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}

func (r *FailoverCoordinator) AcquireLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if r.usePrimary() {
		ok, err := r.primary.AcquireLock(ctx, name, ttl)
		r.report(err)
		if err == nil {
			return ok, nil
		}
	}
	return r.fallback.AcquireLock(ctx, name, ttl)
}

// ReleaseLock releases on both sides; the lock may have been taken on either.
func (r *FailoverCoordinator) ReleaseLock(ctx context.Context, name string) error {
	if err := r.fallback.ReleaseLock(ctx, name); err != nil {
		return err
	}
	if err := r.primary.ReleaseLock(ctx, name); err != nil {
		r.report(err)
	}
	return nil
}
