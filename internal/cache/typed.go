package cache

import (
	"context"
	"encoding/json"
	"time"
)

// TypedCache provides type-safe caching over a Cacher using JSON encoding.
type TypedCache[T any] struct {
	cache      Cacher
	defaultTTL time.Duration
	inv        *Invalidator
}

// NewTypedCache creates a TypedCache wrapping cache.
func NewTypedCache[T any](cache Cacher, defaultTTL time.Duration) *TypedCache[T] {
	return &TypedCache[T]{cache: cache, defaultTTL: defaultTTL}
}

// NewGuardedTypedCache creates a TypedCache whose loads are discarded when
// inv reports a change to the key's collection while they ran. Keys must be
// built with Key.
func NewGuardedTypedCache[T any](cache Cacher, defaultTTL time.Duration, inv *Invalidator) *TypedCache[T] {
	return &TypedCache[T]{cache: cache, defaultTTL: defaultTTL, inv: inv}
}

// Get returns the cached value and true, or the zero value and false on a
// miss or an undecodable entry.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var value T
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		return value, false
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, false
	}
	return value, true
}

// Set stores value with the default TTL.
func (c *TypedCache[T]) Set(ctx context.Context, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, key, data, c.defaultTTL)
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. Load errors are returned and nothing is cached.
func (c *TypedCache[T]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	if value, ok := c.Get(ctx, key); ok {
		return value, nil
	}

	if c.inv == nil {
		value, err := load(ctx)
		if err != nil {
			return value, err
		}
		// The loaded value is still valid if caching fails.
		_ = c.Set(ctx, key, value)
		return value, nil
	}

	collection := collectionOf(key)
	gen := c.inv.Generation(collection)

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	// A load overtaken by a change is returned to this caller only.
	c.inv.storeIfCurrent(collection, gen, func() { _ = c.Set(ctx, key, value) })
	return value, nil
}
