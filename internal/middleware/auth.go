// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for access control, request
// limits and security headers.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/acm-mitb/acm-site/internal/gate"
	"github.com/acm-mitb/acm-site/internal/model"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for access data.
const (
	ContextKeyIdentity ContextKey = "identity"
	ContextKeyDecision ContextKey = "decision"
)

// MsgSignInRequired is returned to requests without a signed-in identity.
const MsgSignInRequired = "Please sign in to continue."

// RequireIdentity rejects requests without a signed-in identity and stores
// the identity in the request context.
func RequireIdentity(ids gate.Identities) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := ids.Identity(r.Context())
			if !ok {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", MsgSignInRequired, nil)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyIdentity, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTownhall resolves the access gate on every request and only lets
// authorized members through. The privilege is read from the stored profile
// each time, so revoking it takes effect on the next request.
func RequireTownhall(g *gate.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := g.Resolve(r.Context())
			if err != nil {
				slog.Error("resolving townhall access failed", "path", r.URL.Path, "error", err, "category", model.LogCategoryAuth)
				WriteAPIError(w, http.StatusBadGateway, "remote_error", model.MessageOf(err), nil)
				return
			}

			switch d.State {
			case gate.StateLoading:
				WriteAPIError(w, http.StatusServiceUnavailable, "not_configured", "Sign-in is not available right now.", nil)
				return
			case gate.StateUnauthenticated:
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", MsgSignInRequired, nil)
				return
			case gate.StateUnauthorized:
				slog.Warn("townhall access denied",
					"uid", d.Identity.UID,
					"method", r.Method,
					"path", r.URL.Path,
					"category", model.LogCategoryAuth,
				)
				WriteAPIError(w, http.StatusForbidden, "forbidden", d.Message, map[string]string{"uid": d.Identity.UID})
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyDecision, d)
			ctx = context.WithValue(ctx, ContextKeyIdentity, *d.Identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity returns the identity stored by RequireIdentity or RequireTownhall.
func GetIdentity(r *http.Request) (model.Identity, bool) {
	id, ok := r.Context().Value(ContextKeyIdentity).(model.Identity)
	return id, ok
}

// GetDecision returns the access decision stored by RequireTownhall.
func GetDecision(r *http.Request) (gate.Decision, bool) {
	d, ok := r.Context().Value(ContextKeyDecision).(gate.Decision)
	return d, ok
}

// GetUID returns the signed-in uid, or an empty string. Safe to use in
// logging where an empty value is acceptable.
func GetUID(r *http.Request) string {
	id, _ := GetIdentity(r)
	return id.UID
}
