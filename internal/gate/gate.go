// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package gate decides whether a visitor may use the Townhall console.
package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/acm-mitb/acm-site/internal/model"
	"github.com/acm-mitb/acm-site/internal/store"
)

// State is the access state of the Townhall console.
type State int

const (
	StateLoading State = iota
	StateUnauthenticated
	StateUnauthorized
	StateAuthorized
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateUnauthorized:
		return "unauthorized"
	case StateAuthorized:
		return "authorized"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{StateLoading, StateUnauthenticated, StateUnauthorized, StateAuthorized} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown access state %q", b)
}

// Identities reads the signed-in identity of a request.
type Identities interface {
	Identity(ctx context.Context) (model.Identity, bool)
}

// Profiles reads stored member profiles.
type Profiles interface {
	Get(ctx context.Context, uid string) (model.Profile, error)
}

// Decision is the resolved access state of one request.
type Decision struct {
	State    State           `json:"state"`
	Identity *model.Identity `json:"identity,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// Authorized reports whether the console may be shown.
func (d Decision) Authorized() bool { return d.State == StateAuthorized }

// GuidanceMessage tells a signed-in member without the privilege how to get it.
func GuidanceMessage(uid string) string {
	return fmt.Sprintf("Contact admin to add 'townhall: true' to your user ID: %s", uid)
}

// Gate resolves access from the session identity and the stored profile.
type Gate struct {
	identities Identities
	profiles   Profiles
	ready      func() bool
}

// New creates a gate. ready reports whether the identity provider can
// accept sign-ins; nil means always ready.
func New(identities Identities, profiles Profiles, ready func() bool) *Gate {
	if ready == nil {
		ready = func() bool { return true }
	}
	return &Gate{identities: identities, profiles: profiles, ready: ready}
}

// Resolve returns the access state for ctx. The privilege is read from the
// stored profile on every call; only a boolean true townhall field grants
// access. A profile read failure leaves the state loading.
func (g *Gate) Resolve(ctx context.Context) (Decision, error) {
	if !g.ready() {
		return Decision{State: StateLoading}, nil
	}

	id, ok := g.identities.Identity(ctx)
	if !ok {
		return Decision{State: StateUnauthenticated}, nil
	}

	p, err := g.profiles.Get(ctx, id.UID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return unauthorized(id), nil
	case err != nil:
		return Decision{State: StateLoading, Identity: &id}, err
	case !p.Privileged():
		return unauthorized(id), nil
	}
	return Decision{State: StateAuthorized, Identity: &id}, nil
}

func unauthorized(id model.Identity) Decision {
	return Decision{State: StateUnauthorized, Identity: &id, Message: GuidanceMessage(id.UID)}
}
