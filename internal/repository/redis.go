package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lernecken/internal/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	rateLimitPrefix = "lernecken:rate_limit:"
	lockPrefix      = "lernecken:lock:"
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisCoordinator keeps rate-limit counters and job locks in Redis so that
// several service instances share them.
type RedisCoordinator struct {
	client *redis.Client

	mu     sync.Mutex
	tokens map[string]string
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisCoordinator(client *redis.Client) *RedisCoordinator {
	return &RedisCoordinator{client: client, tokens: make(map[string]string)}
}

// CheckRateLimit counts one attempt for key in a fixed window.
func (r *RedisCoordinator) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	redisKey := rateLimitPrefix + key

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count <= int64(limit), nil
}

// AcquireLock takes the named lock for ttl. It returns false when another
// holder owns it.
func (r *RedisCoordinator) AcquireLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, lockPrefix+name, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if ok {
		r.mu.Lock()
		r.tokens[name] = token
		r.mu.Unlock()
	}
	return ok, nil
}

// ReleaseLock drops a lock taken by this coordinator. Locks that expired and
// were taken over by someone else are left alone.
func (r *RedisCoordinator) ReleaseLock(ctx context.Context, name string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	r.mu.Lock()
	token, ok := r.tokens[name]
	delete(r.tokens, name)
	r.mu.Unlock()
	if !ok {
		return nil
	}

	err := releaseScript.Run(ctx, r.client, []string{lockPrefix + name}, token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release lock %s: %w", name, err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
