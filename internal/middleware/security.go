// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// SecurityHeadersConfig holds configuration for security headers.
type SecurityHeadersConfig struct {
	// IsDevelopment disables HSTS.
	IsDevelopment bool

	ContentSecurityPolicy string

	// HSTSMaxAge in seconds; 0 disables HSTS.
	HSTSMaxAge            int
	HSTSIncludeSubDomains bool

	FrameOptions      string
	ReferrerPolicy    string
	PermissionsPolicy string
}

// cspOrder fixes the directive order of the generated policy.
var cspOrder = []string{
	"default-src", "script-src", "style-src", "img-src", "font-src",
	"connect-src", "frame-src", "object-src", "base-uri", "form-action",
	"frame-ancestors",
}

// DefaultSecurityHeadersConfig returns headers for the public site and the
// Townhall console. Google sign-in needs its script, frame and API origins;
// images may come from any HTTPS host (Cloudinary or sponsor logos).
func DefaultSecurityHeadersConfig(isDev bool) SecurityHeadersConfig {
	directives := map[string]string{
		"default-src":     "'self'",
		"script-src":      "'self' https://accounts.google.com https://apis.google.com",
		"style-src":       "'self' 'unsafe-inline' https://accounts.google.com",
		"img-src":         "'self' data: blob: https:",
		"font-src":        "'self' data:",
		"connect-src":     "'self' https://accounts.google.com https://api.cloudinary.com",
		"frame-src":       "https://accounts.google.com",
		"object-src":      "'none'",
		"base-uri":        "'self'",
		"form-action":     "'self'",
		"frame-ancestors": "'self'",
	}
	if isDev {
		directives["script-src"] += " 'unsafe-eval'"
		directives["connect-src"] += " ws://localhost:5173"
	}

	return SecurityHeadersConfig{
		IsDevelopment:         isDev,
		ContentSecurityPolicy: buildCSP(directives),
		HSTSMaxAge:            31536000,
		HSTSIncludeSubDomains: !isDev,
		FrameOptions:          "SAMEORIGIN",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy: buildPermissionsPolicy(map[string]string{
			"camera":          "()",
			"geolocation":     "()",
			"microphone":      "()",
			"payment":         "()",
			"usb":             "()",
			"browsing-topics": "()",
		}),
	}
}

// buildCSP joins directives in cspOrder, then any others sorted by name.
func buildCSP(directives map[string]string) string {
	var parts []string
	for _, key := range cspOrder {
		if value, ok := directives[key]; ok {
			parts = append(parts, key+" "+value)
		}
	}

	var extra []string
	for key := range directives {
		if !slices.Contains(cspOrder, key) {
			extra = append(extra, key)
		}
	}
	slices.Sort(extra)
	for _, key := range extra {
		parts = append(parts, key+" "+directives[key])
	}

	return strings.Join(parts, "; ")
}

func buildPermissionsPolicy(policies map[string]string) string {
	keys := make([]string, 0, len(policies))
	for key := range policies {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+policies[key])
	}
	return strings.Join(parts, ", ")
}

// SecurityHeaders adds security headers to every response.
func SecurityHeaders(cfg SecurityHeadersConfig) func(http.Handler) http.Handler {
	var hsts string
	if !cfg.IsDevelopment && cfg.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubDomains {
			hsts += "; includeSubDomains"
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if cfg.ContentSecurityPolicy != "" {
				h.Set("Content-Security-Policy", cfg.ContentSecurityPolicy)
			}
			if hsts != "" {
				h.Set("Strict-Transport-Security", hsts)
			}
			if cfg.FrameOptions != "" {
				h.Set("X-Frame-Options", cfg.FrameOptions)
			}
			h.Set("X-Content-Type-Options", "nosniff")
			if cfg.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", cfg.ReferrerPolicy)
			}
			if cfg.PermissionsPolicy != "" {
				h.Set("Permissions-Policy", cfg.PermissionsPolicy)
			}

			next.ServeHTTP(w, r)
		})
	}
}
