package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries in Redis under a key prefix, so several
// instances share one snapshot cache.
type RedisCache struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
	closed     atomic.Bool

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

// NewRedisCacheFromURL connects to redisURL and verifies the connection.
func NewRedisCacheFromURL(redisURL, prefix string, defaultTTL time.Duration) (*RedisCache, error) {
	if redisURL == "" {
		return nil, errors.New("redis URL is required")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &RedisCache{client: client, prefix: prefix, defaultTTL: defaultTTL}, nil
}

// Get implements Cacher.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}

	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	c.hits.Add(1)
	return val, nil
}

// Set implements Cacher.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return err
	}
	c.sets.Add(1)
	return nil
}

// Delete implements Cacher.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	return c.client.Del(ctx, c.prefix+key).Err()
}

// DeleteByPrefix implements Cacher using SCAN rather than KEYS.
func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	return c.scanDelete(ctx, c.prefix+prefix+"*")
}

// Clear removes every key under the cache prefix.
func (c *RedisCache) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	return c.scanDelete(ctx, c.prefix+"*")
}

func (c *RedisCache) scanDelete(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.client.Del(ctx, batch...).Err()
	}
	return nil
}

// Stats implements Cacher. Items is not tracked for Redis.
func (c *RedisCache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	return Stats{
		Backend: "redis",
		Hits:    hits,
		Misses:  misses,
		Sets:    c.sets.Load(),
		HitRate: hitRate(hits, misses),
	}
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		return c.client.Close()
	}
	return nil
}

var _ Cacher = (*RedisCache)(nil)
