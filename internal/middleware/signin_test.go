// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestProtection(t *testing.T) (*SignInProtection, *time.Time) {
	t.Helper()
	now := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	p := NewSignInProtection(SignInProtectionConfig{
		IPRateLimit:     100,
		IPBurst:         100,
		MaxFailures:     3,
		LockoutDuration: time.Minute,
		Window:          10 * time.Minute,
	})
	p.now = func() time.Time { return now }
	return p, &now
}

func TestSignInProtection_LockoutAfterFailures(t *testing.T) {
	p, now := newTestProtection(t)
	const ip = "10.0.0.1"

	for i := range 2 {
		if p.RecordFailure(ip) {
			t.Fatalf("locked after %d failures", i+1)
		}
	}
	if !p.RecordFailure(ip) {
		t.Fatal("not locked after 3 failures")
	}

	locked, remaining := p.Locked(ip)
	if !locked || remaining != time.Minute {
		t.Errorf("Locked = %v, %v, want true, 1m", locked, remaining)
	}

	*now = now.Add(61 * time.Second)
	if locked, _ := p.Locked(ip); locked {
		t.Error("still locked after lockout expired")
	}

	// The second lockout doubles.
	for range 3 {
		p.RecordFailure(ip)
	}
	if _, remaining := p.Locked(ip); remaining != 2*time.Minute {
		t.Errorf("second lockout = %v, want 2m", remaining)
	}
}

func TestSignInProtection_WindowAndSuccess(t *testing.T) {
	p, now := newTestProtection(t)
	const ip = "10.0.0.2"

	p.RecordFailure(ip)
	p.RecordFailure(ip)
	*now = now.Add(11 * time.Minute)
	if p.RecordFailure(ip) {
		t.Error("failures outside the window counted")
	}

	p.RecordFailure(ip)
	p.RecordSuccess(ip)
	if p.RecordFailure(ip) {
		t.Error("failures survived a successful sign-in")
	}
}

func TestSignInProtection_Middleware(t *testing.T) {
	p, _ := newTestProtection(t)
	handler := p.Middleware()(okHandler())

	do := func(method string) int {
		req := httptest.NewRequest(method, "/auth/session", nil)
		req.RemoteAddr = "10.0.0.3:4000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := do(http.MethodPost); code != http.StatusOK {
		t.Fatalf("first POST = %d", code)
	}
	for range 3 {
		p.RecordFailure("10.0.0.3")
	}
	if code := do(http.MethodPost); code != http.StatusTooManyRequests {
		t.Errorf("POST while locked = %d, want 429", code)
	}
	if code := do(http.MethodGet); code != http.StatusOK {
		t.Errorf("GET while locked = %d, want 200", code)
	}
}
