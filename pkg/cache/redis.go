package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// releaseScript deletes the key only if it still holds our token, so an expired lease
// that was re-acquired by someone else is never freed by the old holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker backed by Redis SET NX with expiry.
type RedisLocker struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisLocker parses a redis:// URL, pings the server and returns a RedisLocker.
func NewRedisLocker(ctx context.Context, redisURL, prefix string, logger *zap.Logger) (*RedisLocker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("Successfully connected to Redis", zap.String("addr", opts.Addr))
	return &RedisLocker{client: rdb, prefix: prefix, logger: logger}, nil
}

// NewRedisLockerFromClient wraps an existing client.
func NewRedisLockerFromClient(client *redis.Client, prefix string, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix, logger: logger}
}

func (r *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	fullKey := r.prefix + key
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %q: %w", fullKey, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Detached from the request context: the lease must be freed even if the request was canceled.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, r.client, []string{fullKey}, token).Err(); err != nil && err != redis.Nil {
				r.logger.Warn("Failed to release lock", zap.String("key", fullKey), zap.Error(err))
			}
		})
	}, nil
}

// Close closes the underlying Redis client.
func (r *RedisLocker) Close() error {
	return r.client.Close()
}
