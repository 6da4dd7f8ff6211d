// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache provides the snapshot cache for public read endpoints,
// backed by process memory or Redis.
package cache

import (
	"context"
	"time"
)

// Cacher is implemented by every cache backend. Values are raw bytes so the
// same callers work against memory and Redis. Implementations are safe for
// concurrent use.
type Cacher interface {
	// Get returns ErrCacheMiss when key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value for ttl, or the backend default when ttl is 0.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Clear(ctx context.Context) error
	Stats() Stats
	Close() error
}

// Error is a cache sentinel error.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrCacheMiss indicates the key was not found in cache or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed Error = "cache closed"
)

// Stats holds cache statistics.
type Stats struct {
	Backend string  `json:"backend"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Sets    int64   `json:"sets"`
	Items   int     `json:"items"`
	HitRate float64 `json:"hit_rate"`
}

func hitRate(hits, misses int64) float64 {
	if total := hits + misses; total > 0 {
		return float64(hits) / float64(total) * 100
	}
	return 0
}
