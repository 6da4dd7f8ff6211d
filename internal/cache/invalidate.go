// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/acm-mitb/acm-site/internal/live"
)

// invalidateTimeout bounds one invalidation against a remote cache.
const invalidateTimeout = 2 * time.Second

// Key builds the cache key of a snapshot variant of collection.
func Key(collection, variant string) string {
	return collection + ":" + variant
}

// collectionOf returns the collection part of a key built by Key.
func collectionOf(key string) string {
	collection, _, _ := strings.Cut(key, ":")
	return collection
}

// Invalidator drops cached snapshots of a collection when it changes and
// keeps a generation per collection. A load that started before a change
// carries an older generation and is not stored.
type Invalidator struct {
	cache Cacher

	mu   sync.Mutex
	gens map[string]uint64
}

// NewInvalidator creates an invalidator over c.
func NewInvalidator(c Cacher) *Invalidator {
	return &Invalidator{cache: c, gens: make(map[string]uint64)}
}

// Watch invalidates the given collections synchronously on every hub
// change, so a read issued after a write returns never sees the old
// snapshot.
func (v *Invalidator) Watch(hub *live.Hub, collections ...string) {
	watched := make(map[string]bool, len(collections))
	for _, c := range collections {
		watched[c] = true
	}
	hub.OnChange(func(collection string) {
		if watched[collection] {
			v.Invalidate(collection)
		}
	})
}

// Invalidate bumps the generation of collection and deletes its snapshots.
func (v *Invalidator) Invalidate(collection string) {
	ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
	defer cancel()

	v.mu.Lock()
	defer v.mu.Unlock()

	v.gens[collection]++
	if err := v.cache.DeleteByPrefix(ctx, collection+":"); err != nil {
		slog.Warn("cache invalidation failed", "collection", collection, "error", err, "category", "cache")
	}
}

// Generation returns the current generation of collection.
func (v *Invalidator) Generation(collection string) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gens[collection]
}

// storeIfCurrent runs store only while collection is still at gen. It
// reports whether store ran.
func (v *Invalidator) storeIfCurrent(collection string, gen uint64, store func()) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.gens[collection] != gen {
		return false
	}
	store()
	return true
}
