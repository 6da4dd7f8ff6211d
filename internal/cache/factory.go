// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"net/url"
	"time"
)

// Config holds configuration for cache creation.
type Config struct {
	// RedisURL selects the Redis backend when set, e.g. redis://localhost:6379/0.
	RedisURL   string
	Prefix     string
	DefaultTTL time.Duration
	// MaxSize bounds the memory backend (0 = unlimited).
	MaxSize int
}

// New creates the Redis cache when configured and reachable, and the memory
// cache otherwise.
func New(cfg Config) Cacher {
	if cfg.RedisURL != "" {
		rc, err := NewRedisCacheFromURL(cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
		if err == nil {
			slog.Info("using redis cache", "url", SanitizeRedisURL(cfg.RedisURL))
			return rc
		}
		slog.Warn("redis unavailable, falling back to memory cache",
			"url", SanitizeRedisURL(cfg.RedisURL), "error", err, "category", "cache")
	}

	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: time.Minute,
	})
}

// SanitizeRedisURL masks the password in a Redis URL for logging.
func SanitizeRedisURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid URL]"
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
