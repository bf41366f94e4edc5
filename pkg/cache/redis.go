package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "yomiaudio:response:"

// RedisBackend stores compressed entries in Redis, relying on native key
// expiry for the time to live.
type RedisBackend struct {
	client redis.UniversalClient
}

// NewRedisBackend connects to the Redis server at rawURL
// (redis://[:password@]host:port/db). A failed initial ping is logged, not
// returned, so the server can start before Redis does.
func NewRedisBackend(ctx context.Context, rawURL string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warnf("redis at %s not reachable yet: %v", opts.Addr, err)
	} else {
		logger.Infof("connected to redis at %s", opts.Addr)
	}

	return NewRedisBackendWithClient(client), nil
}

// NewRedisBackendWithClient wraps an existing client. Close closes it.
func NewRedisBackendWithClient(client redis.UniversalClient) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Get(ctx context.Context, key string) (*Entry, bool, error) {
	data, err := b.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	e, err := decodeEntry(data)
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, e *Entry, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := encodeEntry(e)
	if err != nil {
		return err
	}
	if err := b.client.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Len returns the size of the whole Redis database, which may hold keys
// other than cached responses.
func (b *RedisBackend) Len(ctx context.Context) int {
	n, err := b.client.DBSize(ctx).Result()
	if err != nil {
		logger.Warnf("redis dbsize: %v", err)
		return -1
	}
	return int(n)
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}
