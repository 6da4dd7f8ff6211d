package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/acm-mitb/acm-site/internal/content"
	"github.com/acm-mitb/acm-site/internal/model"
)

// keepAliveInterval is how often an idle stream sends a comment line so
// proxies keep the connection open.
var keepAliveInterval = 25 * time.Second

// eventStream writes server-sent events.
type eventStream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// openStream writes the event-stream headers and lifts the server write
// deadline for the rest of the request.
func openStream(w http.ResponseWriter) (*eventStream, error) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	w.WriteHeader(http.StatusOK)
	s := &eventStream{w: w, rc: rc}
	return s, rc.Flush()
}

func (s *eventStream) send(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return s.rc.Flush()
}

func (s *eventStream) ping() error {
	if _, err := fmt.Fprint(s.w, ": ping\n\n"); err != nil {
		return err
	}
	return s.rc.Flush()
}

// streamWatch sends every snapshot of watch as a "snapshot" event, shaped by
// view, until the client goes away or the watch ends. The watch is closed
// on return.
func streamWatch[T, V any](w http.ResponseWriter, r *http.Request, watch *content.Watch[T], view func([]model.Doc[T]) V) {
	defer watch.Close()

	s, err := openStream(w)
	if err != nil {
		slog.Warn("opening event stream failed", "path", r.URL.Path, "error", err)
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-watch.C():
			if !ok {
				return
			}
			if err := s.send("snapshot", view(orEmpty(snap.Docs))); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.ping(); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func orEmpty[T any](docs []T) []T {
	if docs == nil {
		return []T{}
	}
	return docs
}

func identity[T any](docs []model.Doc[T]) []model.Doc[T] { return docs }
