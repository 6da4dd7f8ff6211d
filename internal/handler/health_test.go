// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/acm-mitb/acm-site/internal/config"
	"github.com/acm-mitb/acm-site/internal/testutil"
)

func configuredConfig(t *testing.T) *config.Config {
	return &config.Config{
		ProjectID:      "acm-mitb",
		GoogleClientID: "client.apps.googleusercontent.com",
		StorageBackend: config.StorageLocal,
		UploadsDir:     t.TempDir(),
	}
}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding health response: %v", err)
	}
	return body
}

func TestHealth(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	tests := []struct {
		name       string
		cfg        func(*config.Config)
		wantCode   int
		wantStatus string
	}{
		{"configured", func(*config.Config) {}, http.StatusOK, statusHealthy},
		{"no auth client", func(c *config.Config) { c.GoogleClientID = "" }, http.StatusOK, statusDegraded},
		{"cloudinary without preset", func(c *config.Config) {
			c.StorageBackend = config.StorageCloudinary
			c.CloudinaryCloudName = "acm"
		}, http.StatusOK, statusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := configuredConfig(t)
			tt.cfg(cfg)
			h := NewHealthHandler(db, cfg, nil, nil, "test")

			w := httptest.NewRecorder()
			h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantCode)
			}
			body := decodeStatus(t, w)
			if body["status"] != tt.wantStatus {
				t.Errorf("status = %v, want %s", body["status"], tt.wantStatus)
			}
			if _, ok := body["checks"]; ok {
				t.Error("anonymous caller saw check details")
			}
		})
	}
}

func TestHealth_DatabaseDown(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	cleanup()

	h := NewHealthHandler(db, configuredConfig(t), nil, nil, "test")

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want 503", w.Code)
	}
	if body := decodeStatus(t, w); body["status"] != statusUnhealthy {
		t.Errorf("status = %v, want unhealthy", body["status"])
	}

	w = httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("readiness code = %d, want 503", w.Code)
	}
	body := decodeStatus(t, w)
	if body["status"] != "not_ready" {
		t.Errorf("readiness status = %v", body["status"])
	}
	if _, ok := body["message"]; ok {
		t.Error("anonymous caller saw the database error")
	}
}

func TestLivenessAndReadiness(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	h := NewHealthHandler(db, configuredConfig(t), nil, nil, "test")

	w := httptest.NewRecorder()
	h.Liveness(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "alive") {
		t.Errorf("Liveness = %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ready") {
		t.Errorf("Readiness = %d %s", w.Code, w.Body.String())
	}
}

func TestCheckDiskSpace_RemoteStorage(t *testing.T) {
	cfg := configuredConfig(t)
	cfg.StorageBackend = config.StorageCloudinary
	h := NewHealthHandler(nil, cfg, nil, nil, "test")

	if c := h.checkDiskSpace(); c.Status != statusHealthy || c.Message != "Remote storage" {
		t.Errorf("checkDiskSpace = %+v", c)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
