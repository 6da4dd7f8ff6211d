// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler serves the prebuilt frontend and the health endpoints.
// The JSON API lives in the api subpackage.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/acm-mitb/acm-site/internal/middleware"
	"github.com/acm-mitb/acm-site/internal/util"
)

// Routes are the client-side routes answered with index.html.
var Routes = []string{
	"/",
	"/about",
	"/acm-mitb",
	"/acm-w",
	"/news",
	"/membership",
	"/sigai",
	"/sigsoft",
	"/events",
	"/townhall",
}

// apiPrefixes are answered with a JSON 404 instead of the home redirect.
var apiPrefixes = []string{"/api/", "/auth/", "/townhall/api/", "/health/"}

// FrontendHandler serves the built single-page frontend from a directory.
type FrontendHandler struct {
	dir string
}

// NewFrontendHandler creates a handler serving files under dir.
func NewFrontendHandler(dir string) *FrontendHandler {
	return &FrontendHandler{dir: dir}
}

// Mount registers the client routes and the static file fallback.
func (h *FrontendHandler) Mount(r chi.Router) {
	for _, route := range Routes {
		r.Get(route, h.Index)
	}
	r.NotFound(h.Fallback)
	r.MethodNotAllowed(h.Fallback)
}

// Index serves index.html.
func (h *FrontendHandler) Index(w http.ResponseWriter, r *http.Request) {
	index := filepath.Join(h.dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		slog.Error("frontend index missing", "path", index, "error", err)
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, index)
}

// Fallback serves a static file when one exists at the request path.
// Unknown API paths get a JSON 404; every other unknown path redirects home.
func (h *FrontendHandler) Fallback(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	for _, prefix := range apiPrefixes {
		if strings.HasPrefix(path, prefix) {
			middleware.WriteAPIError(w, http.StatusNotFound, "not_found", "Not found", nil)
			return
		}
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	if file, ok := h.staticFile(path); ok {
		if strings.HasPrefix(path, "/assets/") {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		}
		http.ServeFile(w, r, file)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// staticFile resolves path to a regular file inside the frontend directory.
func (h *FrontendHandler) staticFile(path string) (string, bool) {
	file, err := util.SafeJoin(h.dir, strings.TrimPrefix(path, "/"))
	if err != nil {
		if !errors.Is(err, util.ErrPathTraversal) {
			slog.Warn("resolving static file failed", "path", path, "error", err)
		}
		return "", false
	}

	info, err := os.Stat(file)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return file, true
}
