package content

import (
	"context"
	"log/slog"

	"github.com/acm-mitb/acm-site/internal/live"
	"github.com/acm-mitb/acm-site/internal/model"
)

// Snapshot is the full result set of a watched query at one point in time.
// Err is set when the read failed; Docs is then empty.
type Snapshot[T any] struct {
	Collection string
	Docs       []model.Doc[T]
	Err        error
}

// Watch delivers snapshots of a query until it is closed.
type Watch[T any] struct {
	sub  *live.Subscription
	ch   chan Snapshot[T]
	load func(context.Context) ([]model.Doc[T], error)
	name string
}

func newWatch[T any](ctx context.Context, hub *live.Hub, collection string, load func(context.Context) ([]model.Doc[T], error)) *Watch[T] {
	w := &Watch[T]{
		sub:  hub.Subscribe(ctx, collection),
		ch:   make(chan Snapshot[T]),
		load: load,
		name: collection,
	}
	go w.run(context.WithoutCancel(ctx))
	return w
}

func (w *Watch[T]) run(ctx context.Context) {
	defer close(w.ch)

	for {
		docs, err := w.load(ctx)
		if err != nil {
			slog.Warn("snapshot read failed", "collection", w.name, "error", err, "category", model.LogCategoryContent)
			docs = nil
		}

		select {
		case w.ch <- Snapshot[T]{Collection: w.name, Docs: docs, Err: err}:
		case <-w.sub.Done():
			return
		}

		select {
		case <-w.sub.C():
			w.sub.Changed()
		case <-w.sub.Done():
			return
		}
	}
}

// C receives the initial snapshot and one snapshot after every change.
// It is closed after Close or when the watch context ends.
func (w *Watch[T]) C() <-chan Snapshot[T] { return w.ch }

// Close releases the watch. It is safe to call more than once.
func (w *Watch[T]) Close() { w.sub.Close() }
