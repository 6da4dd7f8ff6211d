// Package session keeps the signed-in identity and per-visitor flags in a
// server-side session.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/acm-mitb/acm-site/internal/model"
)

const (
	keyUID       = "uid"
	keyEmail     = "email"
	keyName      = "name"
	keyPicture   = "picture"
	keyIntroSeen = "intro_seen"
)

// Context is the session context shared by handlers and middleware. It is
// created once at startup; each visitor's state lives in its own session.
type Context struct {
	sm *scs.SessionManager
}

// New creates the session context backed by the sessions table in db.
func New(db *sql.DB, isDev bool) *Context {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	sm.Lifetime = 24 * time.Hour
	sm.IdleTimeout = 12 * time.Hour
	sm.Cookie.Name = "acm_session"
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev
	if !isDev {
		sm.Cookie.Name = "__Host-acm_session"
	}

	return &Context{sm: sm}
}

// Manager returns the underlying session manager.
func (c *Context) Manager() *scs.SessionManager { return c.sm }

// LoadAndSave loads the visitor session for every request.
func (c *Context) LoadAndSave(next http.Handler) http.Handler {
	return c.sm.LoadAndSave(next)
}

// SignIn stores id in the session under a fresh token.
func (c *Context) SignIn(ctx context.Context, id model.Identity) error {
	if err := c.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	c.sm.Put(ctx, keyUID, id.UID)
	c.sm.Put(ctx, keyEmail, id.Email)
	c.sm.Put(ctx, keyName, id.Name)
	c.sm.Put(ctx, keyPicture, id.Picture)
	return nil
}

// SignOut destroys the session, dropping the identity and every flag.
func (c *Context) SignOut(ctx context.Context) error {
	if err := c.sm.Destroy(ctx); err != nil {
		return fmt.Errorf("destroying session: %w", err)
	}
	return nil
}

// Identity returns the signed-in identity, if any.
func (c *Context) Identity(ctx context.Context) (model.Identity, bool) {
	uid := c.sm.GetString(ctx, keyUID)
	if uid == "" {
		return model.Identity{}, false
	}
	return model.Identity{
		UID:     uid,
		Email:   c.sm.GetString(ctx, keyEmail),
		Name:    c.sm.GetString(ctx, keyName),
		Picture: c.sm.GetString(ctx, keyPicture),
	}, true
}

// MarkIntroSeen records that the visitor has seen the intro loader.
func (c *Context) MarkIntroSeen(ctx context.Context) {
	c.sm.Put(ctx, keyIntroSeen, true)
}

// IntroSeen reports whether the intro loader was already shown.
func (c *Context) IntroSeen(ctx context.Context) bool {
	return c.sm.GetBool(ctx, keyIntroSeen)
}
