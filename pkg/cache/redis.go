package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries in a Redis instance, with expiry handled by
// the server. It suits serve mode, where several API replicas should
// share one result cache.
type RedisCache struct {
	client *redis.Client
}

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisCache connects to Redis and verifies the connection with a
// short ping, so a misconfigured address fails at startup rather than on
// the first request.
func NewRedisCache(ctx context.Context, opts RedisOptions) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}

	return &RedisCache{client: client}, nil
}

// Get retrieves a value; a missing key is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value. A ttl of zero stores it without expiry.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes a value. Deleting a missing key is not an error.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Close closes the underlying client.
func (c *RedisCache) Close() error { return c.client.Close() }

var _ Cache = (*RedisCache)(nil)
