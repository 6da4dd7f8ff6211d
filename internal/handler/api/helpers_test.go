// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/acm-mitb/acm-site/internal/cache"
	"github.com/acm-mitb/acm-site/internal/content"
	"github.com/acm-mitb/acm-site/internal/gate"
	"github.com/acm-mitb/acm-site/internal/live"
	"github.com/acm-mitb/acm-site/internal/media"
	"github.com/acm-mitb/acm-site/internal/middleware"
	"github.com/acm-mitb/acm-site/internal/model"
	"github.com/acm-mitb/acm-site/internal/session"
	"github.com/acm-mitb/acm-site/internal/store"
	"github.com/acm-mitb/acm-site/internal/testutil"
)

// fakeVerifier accepts the tokens it knows.
type fakeVerifier map[string]model.Identity

func (f fakeVerifier) Verify(_ context.Context, token string) (model.Identity, error) {
	id, ok := f[token]
	if !ok {
		return model.Identity{}, &model.Error{Kind: model.KindAuthorization, Op: "auth.verify",
			Message: "Sign-in failed. Please try again.", Err: errors.New("bad token")}
	}
	return id, nil
}

// fakeUploader records uploads and returns a fixed URL.
type fakeUploader struct {
	got  []media.Upload
	body []byte
	err  error
}

func (f *fakeUploader) Upload(_ context.Context, u media.Upload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, err := io.ReadAll(u.File)
	if err != nil {
		return "", err
	}
	f.body = data
	f.got = append(f.got, u)
	return "https://cdn.example.com/" + u.Folder + "/logo.png", nil
}

type testEnv struct {
	server   *httptest.Server
	client   *http.Client
	site     *content.Site
	queries  *store.Queries
	uploader *fakeUploader
	handler  *Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	q := store.New(db)
	site := content.NewSite(q, live.NewHub())

	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })

	sessions := session.New(db, true)
	uploader := &fakeUploader{}

	h := NewHandler(Deps{
		Site:     site,
		Public:   content.NewPublic(site, mem, time.Minute),
		Sessions: sessions,
		Verifier: fakeVerifier{
			"admin-token":  {UID: "admin", Email: "admin@gmail.com", Name: "Admin"},
			"member-token": {UID: "member", Email: "asha@gmail.com", Name: "Asha"},
		},
		Gate:     gate.New(sessions, site.Profiles, nil),
		Uploader: uploader,
		Events:   q,
		SignIn:   middleware.NewSignInProtection(middleware.SignInProtectionConfig{IPRateLimit: 100, IPBurst: 100}),
	})

	r := chi.NewRouter()
	r.Use(sessions.LoadAndSave)
	h.Mount(r, Middlewares{})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		server:   srv,
		client:   &http.Client{Jar: jar, Timeout: 5 * time.Second},
		site:     site,
		queries:  q,
		uploader: uploader,
		handler:  h,
	}
}

// do sends a request with an optional JSON body and returns the response
// with its body read.
func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

// signIn signs the client in with token.
func (e *testEnv) signIn(t *testing.T, token string) {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/auth/session", SignInRequest{IDToken: token})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}

// grantTownhall stores a profile for uid with townhall set to true.
func (e *testEnv) grantTownhall(t *testing.T, uid string) {
	t.Helper()
	_, err := e.queries.Insert(context.Background(), model.CollectionUsers, uid, map[string]any{
		"uid":      uid,
		"regNo":    "240000099",
		"phone":    "9000000099",
		"townhall": true,
	})
	require.NoError(t, err)
}

// decodeData decodes the data field of a success response into v.
func decodeData(t *testing.T, body []byte, v any) {
	t.Helper()
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &resp), string(body))
	require.NoError(t, json.Unmarshal(resp.Data, v), string(resp.Data))
}

// decodeErr decodes an error response.
func decodeErr(t *testing.T, body []byte) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp), string(body))
	return resp.Error
}
