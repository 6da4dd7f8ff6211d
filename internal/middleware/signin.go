// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/acm-mitb/acm-site/internal/model"
)

// SignInProtection combines a per-IP rate limit with a temporary lockout
// after repeated failed sign-ins from the same IP.
type SignInProtection struct {
	limiter *RateLimiter

	mu       sync.Mutex
	failures map[string]*signInFailures
	now      func() time.Time

	maxFailures     int
	lockoutDuration time.Duration
	window          time.Duration
}

type signInFailures struct {
	count       int
	first       time.Time
	lockedUntil time.Time
	lockouts    int
}

// SignInProtectionConfig holds the sign-in protection limits.
type SignInProtectionConfig struct {
	// IPRateLimit is requests per second per IP.
	IPRateLimit float64
	IPBurst     int
	// MaxFailures before the IP is locked out.
	MaxFailures int
	// LockoutDuration doubles with each further lockout, up to 24 hours.
	LockoutDuration time.Duration
	// Window in which failures are counted.
	Window time.Duration
}

// DefaultSignInProtectionConfig returns the production limits.
func DefaultSignInProtectionConfig() SignInProtectionConfig {
	return SignInProtectionConfig{
		IPRateLimit:     0.5,
		IPBurst:         5,
		MaxFailures:     10,
		LockoutDuration: 5 * time.Minute,
		Window:          15 * time.Minute,
	}
}

// NewSignInProtection creates the protection with cfg.
func NewSignInProtection(cfg SignInProtectionConfig) *SignInProtection {
	def := DefaultSignInProtectionConfig()
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = def.IPRateLimit
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = def.IPBurst
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = def.LockoutDuration
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}

	return &SignInProtection{
		limiter:         NewRateLimiter(cfg.IPRateLimit, cfg.IPBurst),
		failures:        make(map[string]*signInFailures),
		now:             time.Now,
		maxFailures:     cfg.MaxFailures,
		lockoutDuration: cfg.LockoutDuration,
		window:          cfg.Window,
	}
}

// Locked reports whether ip is locked out and for how long.
func (p *SignInProtection) Locked(ip string) (bool, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, ok := p.failures[ip]
	if !ok {
		return false, 0
	}
	if now := p.now(); now.Before(f.lockedUntil) {
		return true, f.lockedUntil.Sub(now)
	}
	return false, 0
}

// RecordFailure counts a failed sign-in from ip and reports whether it is
// now locked out.
func (p *SignInProtection) RecordFailure(ip string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	p.prune(now)

	f, ok := p.failures[ip]
	if !ok || now.Sub(f.first) > p.window {
		if !ok {
			f = &signInFailures{}
			p.failures[ip] = f
		}
		f.count, f.first = 0, now
	}

	f.count++
	if f.count < p.maxFailures {
		return false
	}

	lock := p.lockoutDuration
	for i := 0; i < f.lockouts && lock < 24*time.Hour; i++ {
		lock *= 2
	}
	lock = min(lock, 24*time.Hour)

	f.lockedUntil = now.Add(lock)
	f.lockouts++
	f.count = 0

	slog.Warn("sign-in locked out after failed attempts", "ip", ip, "lockouts", f.lockouts, "duration", lock, "category", model.LogCategoryAuth)
	return true
}

// RecordSuccess clears the failures of ip.
func (p *SignInProtection) RecordSuccess(ip string) {
	p.mu.Lock()
	delete(p.failures, ip)
	p.mu.Unlock()
}

// prune drops entries whose lockout and window have both passed.
func (p *SignInProtection) prune(now time.Time) {
	if len(p.failures) < maxLimiters {
		return
	}
	for ip, f := range p.failures {
		if now.After(f.lockedUntil) && now.Sub(f.first) > p.window {
			delete(p.failures, ip)
		}
	}
}

// Middleware rejects POST requests from rate-limited or locked-out IPs.
func (p *SignInProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r)
			if locked, _ := p.Locked(ip); locked {
				WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many failed sign-in attempts. Please try again later.", nil)
				return
			}
			if !p.limiter.Allow(ip) {
				slog.Warn("sign-in rate limit exceeded", "ip", ip)
				WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please wait a moment and try again.", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
