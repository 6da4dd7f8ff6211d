// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bufio"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acm-mitb/acm-site/internal/content"
	"github.com/acm-mitb/acm-site/internal/model"
)

func TestPublic_SponsorsFallback(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/api/v1/sponsors", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var docs []model.Doc[model.Sponsor]
	decodeData(t, body, &docs)
	require.Len(t, docs, len(model.FallbackSponsors))
	assert.Equal(t, "GitHub", docs[0].Data.Name)
}

func TestPublic_QueryParams(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/events", http.StatusOK},
		{"/api/v1/events?status=upcoming", http.StatusOK},
		{"/api/v1/events?status=cancelled", http.StatusBadRequest},
		{"/api/v1/stories?chapter=sigai", http.StatusOK},
		{"/api/v1/stories?chapter=ieee", http.StatusBadRequest},
		{"/api/v1/carousel", http.StatusOK},
		{"/api/v1/news", http.StatusOK},
		{"/api/v1/events-page/events", http.StatusOK},
	}
	for _, tt := range tests {
		resp, _ := env.do(t, http.MethodGet, tt.path, nil)
		assert.Equal(t, tt.want, resp.StatusCode, tt.path)
	}
}

func TestPublic_PopupAndCountdown(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/api/v1/events/popup", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data":null}`, string(body))

	resp, body = env.do(t, http.MethodGet, "/api/v1/events-page/countdown", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view content.CountdownView
	decodeData(t, body, &view)
	assert.Equal(t, model.DefaultCountdownTitle, view.Title)
	assert.Equal(t, model.DefaultCountdownTargetDate, view.TargetDate)
}

func TestPublic_CalendarAndQR(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	withLink, err := env.site.PageEvents.Create(ctx, model.PageEvent{
		Title: "TURINGER Finals", Date: "2026-01-30", Time: "18:30", Location: "AB5",
		Link: "https://acm.example.com/turinger",
	})
	require.NoError(t, err)
	noLink, err := env.site.PageEvents.Create(ctx, model.PageEvent{Title: "Orientation", Date: "2026-02-02"})
	require.NoError(t, err)

	resp, body := env.do(t, http.MethodGet, "/api/v1/events-page/events.ics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/calendar"))
	assert.Contains(t, string(body), "BEGIN:VCALENDAR")
	assert.Contains(t, string(body), "SUMMARY:TURINGER Finals")

	resp, body = env.do(t, http.MethodGet, "/api/v1/events-page/events/"+withLink.ID+"/qr.png", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(string(body), "\x89PNG"))

	resp, _ = env.do(t, http.MethodGet, "/api/v1/events-page/events/"+noLink.ID+"/qr.png", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/events-page/events/missing/qr.png", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLive_SponsorsStream(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.server.URL+"/api/v1/live/sponsors", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		for lines.Scan() {
			if data, ok := strings.CutPrefix(lines.Text(), "data: "); ok {
				return data
			}
		}
		t.Fatalf("stream ended: %v", lines.Err())
		return ""
	}

	assert.Contains(t, next(), `"GitHub"`)

	_, err = env.site.Sponsors.Create(context.Background(), model.Sponsor{Name: "Acme", Logo: "https://cdn.example.com/acme.png"})
	require.NoError(t, err)

	data := next()
	assert.Contains(t, data, `"Acme"`)
	assert.NotContains(t, data, `"GitHub"`)
}

func TestLive_UnknownCollection(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/v1/live/users", "/api/v1/live/nope"} {
		resp, _ := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
	resp, _ := env.do(t, http.MethodGet, "/api/v1/live/stories?chapter=ieee", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
