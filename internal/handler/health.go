// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/acm-mitb/acm-site/internal/cache"
	"github.com/acm-mitb/acm-site/internal/config"
	"github.com/acm-mitb/acm-site/internal/gate"
)

// Health check statuses.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	db         *sql.DB
	backend    config.Backend
	cache      cache.Cacher
	gate       *gate.Gate
	uploadsDir string
	version    string
	startTime  time.Time
}

// NewHealthHandler creates a new health handler. Check details are only
// shown to members the gate authorizes; g may be nil.
func NewHealthHandler(db *sql.DB, cfg *config.Config, c cache.Cacher, g *gate.Gate, version string) *HealthHandler {
	uploadsDir := ""
	if cfg.StorageBackend != config.StorageCloudinary {
		uploadsDir = cfg.UploadsDir
	}
	return &HealthHandler{
		db:         db,
		backend:    cfg.Backend(),
		cache:      c,
		gate:       g,
		uploadsDir: uploadsDir,
		version:    version,
		startTime:  time.Now(),
	}
}

// HealthStatusPublic is the minimal health response for anonymous callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus represents the overall health status (Townhall members only).
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	Cache     *cache.Stats     `json:"cache,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health. A failing database or disk answers 503;
// missing backend settings only degrade the status since the site still
// serves with inert stubs.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{
		"database": h.checkDatabase(),
		"disk":     h.checkDiskSpace(),
		"backend":  h.checkBackend(),
	}

	overall := statusHealthy
	code := http.StatusOK
	for _, c := range checks {
		switch c.Status {
		case statusUnhealthy:
			overall = statusUnhealthy
			code = http.StatusServiceUnavailable
		case statusDegraded:
			if overall == statusHealthy {
				overall = statusDegraded
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if !h.isTownhall(r) {
		_ = json.NewEncoder(w).Encode(HealthStatusPublic{Status: overall})
		return
	}

	status := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version,
		Checks:    checks,
	}
	if h.cache != nil {
		stats := h.cache.Stats()
		status.Cache = &stats
	}
	if r.URL.Query().Get("verbose") == "true" {
		status.System = getSystemInfo()
	}

	_ = json.NewEncoder(w).Encode(status)
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready - checks if the service is ready to accept traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase()

	w.Header().Set("Content-Type", "application/json")

	if dbCheck.Status == statusHealthy {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
		return
	}

	w.WriteHeader(http.StatusServiceUnavailable)
	resp := map[string]string{"status": "not_ready"}
	if h.isTownhall(r) {
		resp["message"] = dbCheck.Message
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// isTownhall reports whether the caller is an authorized Townhall member.
// Returns false without panicking when no session is loaded.
func (h *HealthHandler) isTownhall(r *http.Request) (ok bool) {
	if h.gate == nil {
		return false
	}
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
		}
	}()

	d, err := h.gate.Resolve(r.Context())
	return err == nil && d.Authorized()
}

// checkDatabase verifies database connectivity.
func (h *HealthHandler) checkDatabase() Check {
	start := time.Now()
	err := h.db.Ping()
	latency := time.Since(start)

	if err != nil {
		return Check{Status: statusUnhealthy, Message: err.Error(), Latency: latency.String()}
	}
	return Check{Status: statusHealthy, Message: "Connected", Latency: latency.String()}
}

// checkBackend reports backend settings that are missing.
func (h *HealthHandler) checkBackend() Check {
	if h.backend.Ready() {
		return Check{Status: statusHealthy, Message: "Configured"}
	}
	return Check{Status: statusDegraded, Message: "Missing: " + strings.Join(h.backend.Missing, ", ")}
}

// checkDiskSpace checks available disk space in the uploads directory.
func (h *HealthHandler) checkDiskSpace() Check {
	if h.uploadsDir == "" {
		return Check{Status: statusHealthy, Message: "Remote storage"}
	}
	if _, err := os.Stat(h.uploadsDir); os.IsNotExist(err) {
		return Check{Status: statusHealthy, Message: "Uploads directory does not exist yet"}
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(h.uploadsDir, &stat); err != nil {
		return Check{Status: statusUnhealthy, Message: "Failed to check disk space: " + err.Error()}
	}

	availableBytes := stat.Bavail * uint64(stat.Bsize)
	available := formatBytes(availableBytes)

	const minSpace = 100 * 1024 * 1024
	if availableBytes < minSpace {
		return Check{Status: statusDegraded, Message: "Low disk space: " + available + " available"}
	}
	return Check{Status: statusHealthy, Message: available + " available"}
}

func getSystemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
