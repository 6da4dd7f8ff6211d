// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/acm-mitb/acm-site/internal/content"
	"github.com/acm-mitb/acm-site/internal/gate"
	"github.com/acm-mitb/acm-site/internal/middleware"
	"github.com/acm-mitb/acm-site/internal/model"
)

// SignInRequest is the body of POST /auth/session.
type SignInRequest struct {
	IDToken string `json:"idToken"`
}

// MeResponse describes the signed-in user to the frontend.
type MeResponse struct {
	Identity  *model.Identity       `json:"identity"`
	State     gate.State            `json:"state"`
	Message   string                `json:"message,omitempty"`
	Profile   content.ProfileStatus `json:"profile"`
	IntroSeen bool                  `json:"introSeen"`
}

// SignIn handles POST /auth/session. The identity-provider token is
// verified and the identity is stored in a fresh session.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx := r.Context()
	ip := middleware.ClientIP(r)

	id, err := h.verifier.Verify(ctx, req.IDToken)
	if err != nil {
		if model.IsKind(err, model.KindAuthorization) {
			locked := h.signIn != nil && h.signIn.RecordFailure(ip)
			slog.Warn("sign-in rejected", "ip", ip, "locked", locked, "error", err, "category", model.LogCategoryAuth)
			WriteUnauthorized(w, model.MessageOf(err))
			return
		}
		WriteDomainError(w, r, err)
		return
	}

	if h.signIn != nil {
		h.signIn.RecordSuccess(ip)
	}
	if err := h.sessions.SignIn(ctx, id); err != nil {
		WriteDomainError(w, r, model.RemoteError("session.signin", err))
		return
	}
	slog.Info("signed in", "uid", id.UID, "ip", ip, "category", model.LogCategoryAuth)

	me, err := h.me(ctx)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	WriteSuccess(w, me, nil)
}

// SignOut handles POST /auth/logout.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	uid := ""
	if id, ok := h.sessions.Identity(r.Context()); ok {
		uid = id.UID
	}
	if err := h.sessions.SignOut(r.Context()); err != nil {
		WriteDomainError(w, r, model.RemoteError("session.signout", err))
		return
	}
	if uid != "" {
		slog.Info("signed out", "uid", uid, "category", model.LogCategoryAuth)
	}
	WriteSuccess(w, map[string]bool{"signedOut": true}, nil)
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	me, err := h.me(r.Context())
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	WriteSuccess(w, me, nil)
}

// IntroSeen handles POST /auth/intro, remembering that the intro loader
// was shown in this session.
func (h *Handler) IntroSeen(w http.ResponseWriter, r *http.Request) {
	h.sessions.MarkIntroSeen(r.Context())
	WriteSuccess(w, map[string]bool{"introSeen": true}, nil)
}

func (h *Handler) me(ctx context.Context) (MeResponse, error) {
	resp := MeResponse{IntroSeen: h.sessions.IntroSeen(ctx)}

	d, err := h.gate.Resolve(ctx)
	if err != nil {
		slog.Warn("resolving access state failed", "error", err, "category", model.LogCategoryAuth)
	}
	resp.State = d.State
	resp.Message = d.Message

	id, ok := h.sessions.Identity(ctx)
	if !ok {
		return resp, nil
	}
	resp.Identity = &id

	status, err := h.site.Profiles.Status(ctx, id.UID)
	if err != nil {
		return MeResponse{}, err
	}
	resp.Profile = status
	return resp, nil
}

// Profile handles GET /api/v1/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	status, err := h.site.Profiles.Status(r.Context(), middleware.GetUID(r))
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	WriteSuccess(w, status, nil)
}

// CompleteProfile handles POST /api/v1/profile.
func (h *Handler) CompleteProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r)
	if !ok {
		WriteUnauthorized(w, middleware.MsgSignInRequired)
		return
	}

	var form model.ProfileForm
	if !decodeJSON(w, r, &form) {
		return
	}

	p, err := h.site.Profiles.Complete(r.Context(), id, form)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	WriteCreated(w, p)
}
