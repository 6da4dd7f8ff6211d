package middleware

import (
	"log/slog"
	"net/http"

	"filippo.io/csrf/gorilla"

	"github.com/acm-mitb/acm-site/internal/model"
)

// CSRFConfig holds configuration for CSRF protection.
// filippo.io/csrf/gorilla checks Fetch metadata and Origin headers, so no
// token cookie is involved.
type CSRFConfig struct {
	// AuthKey is a 32-byte key; the session secret is used.
	AuthKey []byte

	// TrustedOrigins are host[:port] values allowed to send cross-origin
	// state-changing requests.
	TrustedOrigins []string
}

// DefaultCSRFConfig trusts the local frontend dev servers in development.
func DefaultCSRFConfig(authKey []byte, isDev bool) CSRFConfig {
	cfg := CSRFConfig{AuthKey: authKey}
	if isDev {
		cfg.TrustedOrigins = []string{
			"localhost:8080",
			"127.0.0.1:8080",
			"localhost:5173",
		}
	}
	return cfg
}

// CSRF rejects cross-origin state-changing requests with a JSON 403.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	opts := []csrf.Option{csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler))}
	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}
	return csrf.Protect(cfg.AuthKey, opts...)
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Warn("CSRF validation failed",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
		"category", model.LogCategoryAuth,
	)
	WriteAPIError(w, http.StatusForbidden, "forbidden", "Request blocked. Please reload the page and try again.", nil)
}
