// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestMemoryCache(maxSize int) (*MemoryCache, *time.Time) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute, MaxSize: maxSize})
	c.now = func() time.Time { return now }
	return c, &now
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c, _ := newTestMemoryCache(0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	if err := c.Set(ctx, "sponsors:all", []byte(`[1]`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "sponsors:all")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[1]` {
		t.Errorf("Get = %q, want [1]", got)
	}

	// Returned slices are copies.
	got[0] = 'x'
	again, _ := c.Get(ctx, "sponsors:all")
	if string(again) != `[1]` {
		t.Errorf("cached value mutated: %q", again)
	}

	if err := c.Delete(ctx, "sponsors:all"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "sponsors:all"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get after Delete = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c, now := newTestMemoryCache(0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	_ = c.Set(ctx, "short", []byte("a"), 10*time.Second)
	_ = c.Set(ctx, "default", []byte("b"), 0)

	*now = now.Add(30 * time.Second)
	if _, err := c.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("short entry = %v, want ErrCacheMiss", err)
	}
	if _, err := c.Get(ctx, "default"); err != nil {
		t.Errorf("default entry expired early: %v", err)
	}

	*now = now.Add(time.Minute)
	if _, err := c.Get(ctx, "default"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("default entry = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCache_MaxSizeEvictsSoonestExpiry(t *testing.T) {
	c, _ := newTestMemoryCache(2)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("a"), time.Second)
	_ = c.Set(ctx, "b", []byte("b"), time.Hour)
	_ = c.Set(ctx, "c", []byte("c"), time.Hour)

	if _, err := c.Get(ctx, "a"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("a should have been evicted, got %v", err)
	}
	for _, k := range []string{"b", "c"} {
		if _, err := c.Get(ctx, k); err != nil {
			t.Errorf("Get(%s): %v", k, err)
		}
	}
	if n := c.Stats().Items; n != 2 {
		t.Errorf("Items = %d, want 2", n)
	}
}

func TestMemoryCache_DeleteByPrefix(t *testing.T) {
	c, _ := newTestMemoryCache(0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	for _, k := range []string{"stories:all", "stories:sigai", "news:all"} {
		_ = c.Set(ctx, k, []byte("x"), 0)
	}
	if err := c.DeleteByPrefix(ctx, "stories:"); err != nil {
		t.Fatalf("DeleteByPrefix: %v", err)
	}

	if _, err := c.Get(ctx, "stories:sigai"); !errors.Is(err, ErrCacheMiss) {
		t.Error("stories:sigai survived prefix delete")
	}
	if _, err := c.Get(ctx, "news:all"); err != nil {
		t.Errorf("news:all deleted: %v", err)
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	c, _ := newTestMemoryCache(0)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), 0)
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "missing")

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Sets != 1 {
		t.Errorf("Stats = %+v", s)
	}
	if s.HitRate != 50 {
		t.Errorf("HitRate = %v, want 50", s.HitRate)
	}
	if s.Backend != "memory" {
		t.Errorf("Backend = %q", s.Backend)
	}
}

func TestMemoryCache_Closed(t *testing.T) {
	c, _ := newTestMemoryCache(0)
	_ = c.Close()
	_ = c.Close()

	ctx := context.Background()
	if err := c.Set(ctx, "k", nil, 0); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Set after Close = %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Get after Close = %v", err)
	}
}
