// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Storage backends for uploaded images.
const (
	StorageLocal      = "local"
	StorageCloudinary = "cloudinary"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"ACM_DB_PATH" envDefault:"./data/acm.db"`
	SessionSecret string `env:"ACM_SESSION_SECRET,required"`
	ServerHost    string `env:"ACM_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"ACM_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"ACM_ENV" envDefault:"development"`
	LogLevel      string `env:"ACM_LOG_LEVEL" envDefault:"info"`
	PublicDir     string `env:"ACM_PUBLIC_DIR" envDefault:"./public"`

	// Backend connection values. Missing values degrade the matching
	// component into an inert stub instead of failing startup.
	ProjectID      string `env:"ACM_PROJECT_ID"`
	GoogleClientID string `env:"ACM_GOOGLE_CLIENT_ID"`

	// Object storage
	StorageBackend         string `env:"ACM_STORAGE_BACKEND" envDefault:"local"`
	UploadsDir             string `env:"ACM_UPLOADS_DIR" envDefault:"./uploads"`
	UploadsURL             string `env:"ACM_UPLOADS_URL" envDefault:"/uploads"`
	CloudinaryCloudName    string `env:"ACM_CLOUDINARY_CLOUD_NAME"`
	CloudinaryUploadPreset string `env:"ACM_CLOUDINARY_UPLOAD_PRESET"`

	// Cache configuration
	RedisURL     string `env:"ACM_REDIS_URL"`                         // Optional Redis URL for caching and live fan-out
	CachePrefix  string `env:"ACM_CACHE_PREFIX" envDefault:"acm:"`    // Redis key prefix
	CacheTTL     int    `env:"ACM_CACHE_TTL" envDefault:"300"`        // Public snapshot TTL in seconds
	CacheMaxSize int    `env:"ACM_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	EventLogRetentionDays int  `env:"ACM_EVENT_LOG_RETENTION_DAYS" envDefault:"90"`
	DoSeed                bool `env:"ACM_DO_SEED" envDefault:"false"`
}

// Backend describes which backend services have enough configuration to run.
type Backend struct {
	Data    bool
	Auth    bool
	Storage bool
	Missing []string
}

// Ready reports whether every backend service is configured.
func (b Backend) Ready() bool {
	return b.Data && b.Auth && b.Storage
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedis returns true if Redis is configured.
func (c Config) UseRedis() bool {
	return c.RedisURL != ""
}

// CacheTTLDuration returns the public snapshot cache TTL.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Backend reports which backend components are configured.
// The project identifier gates the document store, the Google client ID
// gates sign-in and the storage settings gate uploads.
func (c Config) Backend() Backend {
	var b Backend

	if c.ProjectID != "" {
		b.Data = true
	} else {
		b.Missing = append(b.Missing, "ACM_PROJECT_ID")
	}

	if c.GoogleClientID != "" {
		b.Auth = true
	} else {
		b.Missing = append(b.Missing, "ACM_GOOGLE_CLIENT_ID")
	}

	switch c.StorageBackend {
	case StorageCloudinary:
		if c.CloudinaryCloudName != "" && c.CloudinaryUploadPreset != "" {
			b.Storage = true
		}
		if c.CloudinaryCloudName == "" {
			b.Missing = append(b.Missing, "ACM_CLOUDINARY_CLOUD_NAME")
		}
		if c.CloudinaryUploadPreset == "" {
			b.Missing = append(b.Missing, "ACM_CLOUDINARY_UPLOAD_PRESET")
		}
	default:
		if c.UploadsDir != "" {
			b.Storage = true
		} else {
			b.Missing = append(b.Missing, "ACM_UPLOADS_DIR")
		}
	}

	return b
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("ACM_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("ACM_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("ACM_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	switch cfg.StorageBackend {
	case StorageLocal, StorageCloudinary:
	default:
		return nil, fmt.Errorf("ACM_STORAGE_BACKEND must be %q or %q, got %q",
			StorageLocal, StorageCloudinary, cfg.StorageBackend)
	}

	if cfg.EventLogRetentionDays < 1 {
		cfg.EventLogRetentionDays = 90
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
