// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSponsor struct {
	Name string `json:"name"`
	Logo string `json:"logo"`
}

func TestTypedCache_GetOrLoad(t *testing.T) {
	mem := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	defer func() { _ = mem.Close() }()

	c := NewTypedCache[[]testSponsor](mem, time.Minute)
	ctx := context.Background()

	calls := 0
	load := func(context.Context) ([]testSponsor, error) {
		calls++
		return []testSponsor{{Name: "Acme", Logo: "/assets/acme.png"}}, nil
	}

	first, err := c.GetOrLoad(ctx, Key("sponsors", "all"), load)
	require.NoError(t, err)
	second, err := c.GetOrLoad(ctx, Key("sponsors", "all"), load)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "loader should run once")
}

func TestTypedCache_LoadErrorNotCached(t *testing.T) {
	mem := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	defer func() { _ = mem.Close() }()

	c := NewTypedCache[[]testSponsor](mem, time.Minute)
	ctx := context.Background()

	boom := errors.New("boom")
	_, err := c.GetOrLoad(ctx, "k", func(context.Context) ([]testSponsor, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestTypedCache_UndecodableEntryIsMiss(t *testing.T) {
	mem := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	defer func() { _ = mem.Close() }()

	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, "k", []byte("not json"), 0))

	_, ok := NewTypedCache[testSponsor](mem, time.Minute).Get(ctx, "k")
	assert.False(t, ok)
}
