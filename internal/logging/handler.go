// Package logging provides a slog handler that also records warnings and
// errors in the event log table, where the Townhall console can list them.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/acm-mitb/acm-site/internal/model"
	"github.com/acm-mitb/acm-site/internal/store"
)

// EventWriter appends rows to the event log.
type EventWriter interface {
	CreateEvent(ctx context.Context, arg store.CreateEventParams) (int64, error)
}

// EventLogHandler wraps another handler and writes records at or above its
// level to the event log.
type EventLogHandler struct {
	inner  slog.Handler
	events EventWriter
	level  slog.Level
	attrs  []slog.Attr
	group  string
}

// NewEventLogHandler forwards WARN and above from inner to the event log in db.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithWriter(inner, store.New(db), slog.LevelWarn)
}

// NewEventLogHandlerWithWriter forwards records at level and above to w.
func NewEventLogHandlerWithWriter(inner slog.Handler, w EventWriter, level slog.Level) *EventLogHandler {
	return &EventLogHandler{inner: inner, events: w, level: level}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.write(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.inner = h.inner.WithAttrs(attrs)
	c.attrs = append(append([]slog.Attr(nil), h.attrs...), h.qualify(attrs)...)
	return &c
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.inner = h.inner.WithGroup(name)
	if name != "" {
		c.group = h.qualifyKey(name)
	}
	return &c
}

func (h *EventLogHandler) qualifyKey(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *EventLogHandler) qualify(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.qualifyKey(a.Key), Value: a.Value}
	}
	return out
}

// write stores r. The write uses a fresh context so entries logged while
// a request is being cancelled are kept.
func (h *EventLogHandler) write(r slog.Record) {
	attrs := append([]slog.Attr(nil), h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, slog.Attr{Key: h.qualifyKey(a.Key), Value: a.Value})
		return true
	})

	var category, uid string
	metadata := make(map[string]string, len(attrs))
	for _, a := range attrs {
		switch a.Key {
		case "category":
			category = a.Value.String()
		case "uid":
			uid = a.Value.String()
			metadata[a.Key] = uid
		default:
			metadata[a.Key] = a.Value.Resolve().String()
		}
	}
	if category == "" {
		category = inferCategory(r.Message)
	}

	meta, err := json.Marshal(metadata)
	if err != nil {
		meta = []byte("{}")
	}

	_, _ = h.events.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Category:  category,
		Message:   r.Message,
		UserID:    sql.NullString{String: uid, Valid: uid != ""},
		Metadata:  string(meta),
		CreatedAt: r.Time,
	})
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.LogLevelError
	case level >= slog.LevelWarn:
		return model.LogLevelWarning
	default:
		return model.LogLevelInfo
	}
}

// inferCategory guesses a category from the message when the record has no
// category attribute.
func inferCategory(msg string) string {
	msg = strings.ToLower(msg)
	switch {
	case containsAny(msg, "auth", "sign-in", "sign in", "login", "logout", "session", "csrf"):
		return model.LogCategoryAuth
	case containsAny(msg, "profile", "member"):
		return model.LogCategoryProfile
	case containsAny(msg, "upload", "image", "cloudinary"):
		return model.LogCategoryMedia
	case strings.Contains(msg, "cache"):
		return model.LogCategoryCache
	case containsAny(msg, "config", "not configured"):
		return model.LogCategoryConfig
	case containsAny(msg, "sponsor", "event", "carousel", "countdown", "story", "stories", "news", "snapshot"):
		return model.LogCategoryContent
	default:
		return model.LogCategorySystem
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
