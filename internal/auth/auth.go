// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth verifies sign-in tokens issued by the identity provider.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"

	"github.com/acm-mitb/acm-site/internal/model"
)

// MsgSignInFailed is shown when a token is rejected.
const MsgSignInFailed = "Sign-in failed. Please try again."

// Verifier turns an identity-provider token into an identity.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (model.Identity, error)
}

// Google verifies Google ID tokens issued for one OAuth client.
type Google struct {
	clientID string

	// Replaced in tests.
	verify func(idToken string, audience []string) error
	decode func(idToken string) (*googleAuthIDTokenVerifier.ClaimSet, error)
}

// NewGoogle creates a verifier for tokens issued to clientID.
func NewGoogle(clientID string) *Google {
	v := googleAuthIDTokenVerifier.Verifier{}
	return &Google{
		clientID: clientID,
		verify:   v.VerifyIDToken,
		decode:   googleAuthIDTokenVerifier.Decode,
	}
}

// Verify checks the token signature, audience and expiry and returns the
// identity it carries.
func (g *Google) Verify(_ context.Context, idToken string) (model.Identity, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return model.Identity{}, &model.Error{Kind: model.KindValidation, Op: "auth.verify", Message: "idToken is required."}
	}

	if err := g.verify(idToken, []string{g.clientID}); err != nil {
		return model.Identity{}, &model.Error{Kind: model.KindAuthorization, Op: "auth.verify", Message: MsgSignInFailed, Err: err}
	}

	claims, err := g.decode(idToken)
	if err != nil {
		return model.Identity{}, &model.Error{Kind: model.KindAuthorization, Op: "auth.verify", Message: MsgSignInFailed,
			Err: fmt.Errorf("decoding claims: %w", err)}
	}
	if claims.Sub == "" {
		return model.Identity{}, &model.Error{Kind: model.KindAuthorization, Op: "auth.verify", Message: MsgSignInFailed}
	}

	return model.Identity{
		UID:     claims.Sub,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

// Inert is the verifier used when no OAuth client is configured. Every
// sign-in fails with a configuration error.
type Inert struct{}

// Verify implements Verifier.
func (Inert) Verify(context.Context, string) (model.Identity, error) {
	return model.Identity{}, model.NotConfiguredError("auth.verify")
}

// New returns the Google verifier, or Inert when clientID is empty.
func New(clientID string) Verifier {
	if clientID == "" {
		slog.Error("identity provider not configured, sign-in disabled", "category", model.LogCategoryConfig)
		return Inert{}
	}
	return NewGoogle(clientID)
}
