// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryCache is an in-process cache with per-entry expiry.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	defaultTTL time.Duration
	maxSize    int // 0 = unlimited
	now        func() time.Time

	stopCh chan struct{}
	closed atomic.Bool

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCacheOptions configures the memory cache.
type MemoryCacheOptions struct {
	DefaultTTL      time.Duration
	MaxSize         int           // Maximum number of entries (0 = unlimited)
	CleanupInterval time.Duration // Interval for expired entry cleanup (0 = no cleanup)
}

// NewMemoryCache creates a memory cache with the given options.
func NewMemoryCache(opts MemoryCacheOptions) *MemoryCache {
	c := &MemoryCache{
		entries:    make(map[string]memoryEntry),
		defaultTTL: opts.DefaultTTL,
		maxSize:    opts.MaxSize,
		now:        time.Now,
		stopCh:     make(chan struct{}),
	}
	if c.defaultTTL <= 0 {
		c.defaultTTL = 5 * time.Minute
	}

	if opts.CleanupInterval > 0 {
		go c.cleanupLoop(opts.CleanupInterval)
	}

	return c
}

// Get implements Cacher.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}

	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && c.now().After(e.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}
	c.hits.Add(1)
	return append([]byte(nil), e.value...), nil
}

// Set implements Cacher. When the cache is full, expired entries are
// dropped first and then the entry closest to expiry.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.removeExpiredLocked()
		if len(c.entries) >= c.maxSize {
			c.evictOneLocked()
		}
	}

	c.entries[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: c.now().Add(ttl),
	}
	c.sets.Add(1)
	return nil
}

// Delete implements Cacher.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// DeleteByPrefix implements Cacher.
func (c *MemoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
	return nil
}

// Clear implements Cacher.
func (c *MemoryCache) Clear(_ context.Context) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
	return nil
}

// Stats implements Cacher.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	items := len(c.entries)
	c.mu.Unlock()

	hits, misses := c.hits.Load(), c.misses.Load()
	return Stats{
		Backend: "memory",
		Hits:    hits,
		Misses:  misses,
		Sets:    c.sets.Load(),
		Items:   items,
		HitRate: hitRate(hits, misses),
	}
}

// Close stops the cleanup goroutine.
func (c *MemoryCache) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		close(c.stopCh)
	}
	return nil
}

func (c *MemoryCache) removeExpiredLocked() {
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

func (c *MemoryCache) evictOneLocked() {
	var (
		victim string
		oldest time.Time
	)
	for k, e := range c.entries {
		if victim == "" || e.expiresAt.Before(oldest) {
			victim, oldest = k, e.expiresAt
		}
	}
	delete(c.entries, victim)
}

func (c *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.removeExpiredLocked()
			c.mu.Unlock()
		case <-c.stopCh:
			return
		}
	}
}

var _ Cacher = (*MemoryCache)(nil)
