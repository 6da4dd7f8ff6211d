package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acm-mitb/acm-site/internal/gate"
	"github.com/acm-mitb/acm-site/internal/model"
	"github.com/acm-mitb/acm-site/internal/store"
)

type stubIdentities struct {
	id model.Identity
	ok bool
}

func (s stubIdentities) Identity(context.Context) (model.Identity, bool) { return s.id, s.ok }

type stubProfiles map[string]model.Profile

func (s stubProfiles) Get(_ context.Context, uid string) (model.Profile, error) {
	if uid == "broken" {
		return model.Profile{}, model.RemoteError("users.get", errors.New("unavailable"))
	}
	p, ok := s[uid]
	if !ok {
		return model.Profile{}, store.ErrNotFound
	}
	return p, nil
}

func TestRequireIdentity(t *testing.T) {
	var got model.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetIdentity(r)
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	RequireIdentity(stubIdentities{})(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	ids := stubIdentities{id: model.Identity{UID: "u1", Email: "a@b.c"}, ok: true}
	RequireIdentity(ids)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u1", got.UID)
}

func TestRequireTownhall(t *testing.T) {
	profiles := stubProfiles{
		"admin":  {UID: "admin", Townhall: true},
		"member": {UID: "member"},
	}

	tests := []struct {
		name     string
		ids      stubIdentities
		ready    bool
		wantCode int
		wantErr  string
	}{
		{"not ready", stubIdentities{}, false, http.StatusServiceUnavailable, "not_configured"},
		{"signed out", stubIdentities{}, true, http.StatusUnauthorized, "unauthorized"},
		{"no profile", stubIdentities{id: model.Identity{UID: "stranger"}, ok: true}, true, http.StatusForbidden, "forbidden"},
		{"not privileged", stubIdentities{id: model.Identity{UID: "member"}, ok: true}, true, http.StatusForbidden, "forbidden"},
		{"profile read fails", stubIdentities{id: model.Identity{UID: "broken"}, ok: true}, true, http.StatusBadGateway, "remote_error"},
		{"privileged", stubIdentities{id: model.Identity{UID: "admin"}, ok: true}, true, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := gate.New(tt.ids, profiles, func() bool { return tt.ready })

			var uid string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				uid = GetUID(r)
				d, ok := GetDecision(r)
				assert.True(t, ok && d.Authorized())
				w.WriteHeader(http.StatusOK)
			})

			rr := httptest.NewRecorder()
			RequireTownhall(g)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/townhall/api/state", nil))

			require.Equal(t, tt.wantCode, rr.Code)
			if tt.wantErr == "" {
				assert.Equal(t, "admin", uid)
				return
			}

			var body APIError
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.wantErr, body.Error.Code)
			if tt.wantCode == http.StatusForbidden {
				assert.Equal(t, gate.GuidanceMessage(tt.ids.id.UID), body.Error.Message)
				assert.Equal(t, tt.ids.id.UID, body.Error.Details["uid"])
			}
		})
	}
}
