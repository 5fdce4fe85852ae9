package repository

import (
	"context"
	"sync"
	"time"
)

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryCoordinator is the single-process stand-in for RedisCoordinator.
type MemoryCoordinator struct {
	mu         sync.Mutex
	rateLimits map[string]*rateLimitEntry
	locks      map[string]time.Time
	now        func() time.Time
}

func NewMemoryCoordinator() *MemoryCoordinator {
	return &MemoryCoordinator{
		rateLimits: make(map[string]*rateLimitEntry),
		locks:      make(map[string]time.Time),
		now:        time.Now,
	}
}

func (r *MemoryCoordinator) CheckRateLimit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.rateLimits[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[key] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}

func (r *MemoryCoordinator) AcquireLock(_ context.Context, name string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if expires, held := r.locks[name]; held && now.Before(expires) {
		return false, nil
	}
	r.locks[name] = now.Add(ttl)
	return true, nil
}

func (r *MemoryCoordinator) ReleaseLock(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locks, name)
	return nil
}
