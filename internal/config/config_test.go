// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"slices"
	"testing"
	"time"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setEnv(t, "ACM_SESSION_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/acm.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/acm.db")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.StorageBackend != StorageLocal {
		t.Errorf("StorageBackend = %q, want %q", cfg.StorageBackend, StorageLocal)
	}
	if cfg.UploadsURL != "/uploads" {
		t.Errorf("UploadsURL = %q, want %q", cfg.UploadsURL, "/uploads")
	}
	if cfg.CacheTTLDuration() != 5*time.Minute {
		t.Errorf("CacheTTLDuration() = %v, want 5m", cfg.CacheTTLDuration())
	}
	if cfg.EventLogRetentionDays != 90 {
		t.Errorf("EventLogRetentionDays = %d, want 90", cfg.EventLogRetentionDays)
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}
	if cfg.UseRedis() {
		t.Error("UseRedis() = true without ACM_REDIS_URL")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	setEnv(t, "ACM_SESSION_SECRET", testSecret)
	setEnv(t, "ACM_SERVER_HOST", "0.0.0.0")
	setEnv(t, "ACM_SERVER_PORT", "3000")
	setEnv(t, "ACM_ENV", "production")
	setEnv(t, "ACM_PROJECT_ID", "acm-mitb")
	setEnv(t, "ACM_REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "0.0.0.0:3000")
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true in production")
	}
	if cfg.ProjectID != "acm-mitb" {
		t.Errorf("ProjectID = %q", cfg.ProjectID)
	}
	if !cfg.UseRedis() {
		t.Error("UseRedis() = false with ACM_REDIS_URL set")
	}
}

func TestLoad_RequiredSessionSecret(t *testing.T) {
	os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail when ACM_SESSION_SECRET is not set")
	}
}

func TestLoad_SessionSecretTooShort(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"short", "short"},
		{"31_bytes", "1234567890123456789012345678901"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "ACM_SESSION_SECRET", tt.secret)

			if _, err := Load(); err == nil {
				t.Fatalf("Load() should fail with %d-byte secret", len(tt.secret))
			}
		})
	}
}

func TestLoad_RejectsWeakSecrets(t *testing.T) {
	for _, weak := range knownWeakSecrets {
		os.Clearenv()
		setEnv(t, "ACM_SESSION_SECRET", weak)

		if _, err := Load(); err == nil {
			t.Errorf("Load() accepted known weak secret %q", weak)
		}
	}
}

func TestLoad_UnknownStorageBackend(t *testing.T) {
	os.Clearenv()
	setEnv(t, "ACM_SESSION_SECRET", testSecret)
	setEnv(t, "ACM_STORAGE_BACKEND", "s3")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject unknown storage backend")
	}
}

func TestBackend(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		wantData    bool
		wantAuth    bool
		wantStorage bool
		wantMissing []string
	}{
		{
			name:        "nothing configured",
			cfg:         Config{StorageBackend: StorageLocal},
			wantMissing: []string{"ACM_PROJECT_ID", "ACM_GOOGLE_CLIENT_ID", "ACM_UPLOADS_DIR"},
		},
		{
			name: "local storage ready",
			cfg: Config{
				ProjectID:      "acm-mitb",
				GoogleClientID: "client.apps.googleusercontent.com",
				StorageBackend: StorageLocal,
				UploadsDir:     "./uploads",
			},
			wantData:    true,
			wantAuth:    true,
			wantStorage: true,
		},
		{
			name: "cloudinary missing preset",
			cfg: Config{
				ProjectID:           "acm-mitb",
				StorageBackend:      StorageCloudinary,
				CloudinaryCloudName: "acm",
			},
			wantData:    true,
			wantMissing: []string{"ACM_GOOGLE_CLIENT_ID", "ACM_CLOUDINARY_UPLOAD_PRESET"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.cfg.Backend()
			if b.Data != tt.wantData || b.Auth != tt.wantAuth || b.Storage != tt.wantStorage {
				t.Errorf("Backend() = %+v", b)
			}
			if !slices.Equal(b.Missing, tt.wantMissing) {
				t.Errorf("Missing = %v, want %v", b.Missing, tt.wantMissing)
			}
			if b.Ready() != (tt.wantData && tt.wantAuth && tt.wantStorage) {
				t.Errorf("Ready() = %v", b.Ready())
			}
		})
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"abcdefghABCDEFGH1234567890abcdef", true},
		{"abcdefgh12345678!@#$%^&*abcdefgh", true},
		{"ABCDEFGHABCDEFGHABCDEFGHABCDEFGH", false},
	}

	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.secret); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.secret, got, tt.want)
		}
	}
}
