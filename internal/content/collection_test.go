// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/acm-mitb/acm-site/internal/live"
	"github.com/acm-mitb/acm-site/internal/model"
	"github.com/acm-mitb/acm-site/internal/store"
	"github.com/acm-mitb/acm-site/internal/testutil"
)

func newTestSite(t *testing.T) (*Site, *store.Queries) {
	t.Helper()
	q := testutil.TestStore(t)
	return NewSite(q, live.NewHub()), q
}

func nextSnapshot[T any](t *testing.T, w *Watch[T]) Snapshot[T] {
	t.Helper()
	select {
	case snap, ok := <-w.C():
		if !ok {
			t.Fatal("watch closed")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return Snapshot[T]{}
}

func TestSponsorCreate_WithoutLogoWritesNothing(t *testing.T) {
	site, q := newTestSite(t)
	ctx := context.Background()

	_, err := site.Sponsors.Create(ctx, model.Sponsor{Name: "Acme"})
	if !model.IsKind(err, model.KindValidation) {
		t.Fatalf("Create without logo = %v, want validation error", err)
	}
	if got := model.MessageOf(err); got != "Please upload a logo." {
		t.Errorf("message = %q", got)
	}

	docs, err := q.List(ctx, model.CollectionSponsors, store.Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("sponsors has %d docs after rejected create, want 0", len(docs))
	}
}

func TestSponsorCreate_SeenByWatch(t *testing.T) {
	site, _ := newTestSite(t)
	ctx := context.Background()

	w := site.Sponsors.Watch(ctx, store.Query{})
	defer w.Close()

	initial := nextSnapshot(t, w)
	if initial.Err != nil || len(initial.Docs) != 0 {
		t.Fatalf("initial snapshot = %+v", initial)
	}

	created, err := site.Sponsors.Create(ctx, model.Sponsor{Name: " <b>Acme</b> ", Logo: "https://cdn.example.com/acme.png"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Data.Name != "Acme" {
		t.Errorf("stored name = %q, want markup stripped", created.Data.Name)
	}

	snap := nextSnapshot(t, w)
	if len(snap.Docs) != 1 {
		t.Fatalf("snapshot after create has %d docs, want 1", len(snap.Docs))
	}
	if snap.Docs[0].ID != created.ID {
		t.Errorf("snapshot id = %s, want %s", snap.Docs[0].ID, created.ID)
	}
}

func TestWatch_CloseEndsChannel(t *testing.T) {
	site, _ := newTestSite(t)
	ctx := context.Background()

	w := site.News.Watch(ctx, store.Query{})
	nextSnapshot(t, w)

	w.Close()
	w.Close()

	select {
	case _, ok := <-w.C():
		if ok {
			// A snapshot may already be in flight; the channel closes next.
			if _, ok := <-w.C(); ok {
				t.Fatal("channel still open after Close")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after Close")
	}
	if n := site.Hub.Subscribers(model.CollectionNews); n != 0 {
		t.Errorf("Subscribers = %d after Close, want 0", n)
	}
}

func TestWatch_ContextCancel(t *testing.T) {
	site, _ := newTestSite(t)
	ctx, cancel := context.WithCancel(context.Background())

	w := site.Stories.Watch(ctx, StoriesQuery(model.ChapterSIGAI))
	nextSnapshot(t, w)
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-w.C():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("watch not closed after cancel")
		}
	}
}

func TestCollection_UpdateAndDelete(t *testing.T) {
	site, _ := newTestSite(t)
	ctx := context.Background()

	ev, err := site.Events.Create(ctx, model.Event{
		Title: "Hack Night", Date: "Oct 2025", Description: "Build things",
		Image: "https://cdn.example.com/h.png",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ev.Data.Status != model.EventStatusUpcoming {
		t.Errorf("default status = %q", ev.Data.Status)
	}

	ev.Data.Status = model.EventStatusCompleted
	updated, err := site.Events.Update(ctx, ev.ID, ev.Data)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Data.Status != model.EventStatusCompleted {
		t.Errorf("status after update = %q", updated.Data.Status)
	}

	if err := site.Events.Delete(ctx, ev.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = site.Events.Get(ctx, ev.ID)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := site.Events.Delete(ctx, ev.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
	if _, err := site.Events.Update(ctx, "missing", ev.Data); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Update missing = %v, want ErrNotFound", err)
	}
}

func TestCollection_Validation(t *testing.T) {
	site, _ := newTestSite(t)
	ctx := context.Background()

	tests := []struct {
		name string
		fn   func() error
	}{
		{"event bad status", func() error {
			_, err := site.Events.Create(ctx, model.Event{Title: "a", Date: "b", Description: "c",
				Image: "https://x.example/i.png", Status: "cancelled"})
			return err
		}},
		{"story without chapters", func() error {
			_, err := site.Stories.Create(ctx, model.Story{Title: "a", Description: "b"})
			return err
		}},
		{"story unknown chapter", func() error {
			_, err := site.Stories.Create(ctx, model.Story{Title: "a", Description: "b", Chapters: []string{"ieee"}})
			return err
		}},
		{"page event bad date", func() error {
			_, err := site.PageEvents.Create(ctx, model.PageEvent{Title: "a", Date: "30/01/2026"})
			return err
		}},
		{"news missing category", func() error {
			_, err := site.News.Create(ctx, model.NewsItem{Title: "a", Excerpt: "b", Date: "c"})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !model.IsKind(err, model.KindValidation) {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}
}

func TestEventCreate_ImageOptional(t *testing.T) {
	site, q := newTestSite(t)
	ctx := context.Background()

	ev, err := site.Events.Create(ctx, model.Event{Title: "Hack", Date: "Oct 2025", Description: "d"})
	if err != nil {
		t.Fatalf("Create without image: %v", err)
	}
	if ev.Data.Image != "" {
		t.Errorf("Image = %q, want empty", ev.Data.Image)
	}

	// Stored events without an image stay visible in listings.
	if _, err := q.Create(ctx, model.CollectionEvents, map[string]any{
		"title": "Raw", "date": "Nov 2025", "description": "d", "status": model.EventStatusUpcoming,
	}); err != nil {
		t.Fatalf("raw Create: %v", err)
	}
	docs, err := site.Events.List(ctx, store.Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("List = %d events, want 2", len(docs))
	}

	_, err = site.Events.Create(ctx, model.Event{Title: "Hack", Date: "Oct 2025", Description: "d", Image: "not a url"})
	if !model.IsKind(err, model.KindValidation) {
		t.Errorf("Create with bad image = %v, want validation error", err)
	}
}

func TestCollection_ListSkipsMalformed(t *testing.T) {
	site, q := newTestSite(t)
	ctx := context.Background()

	if _, err := q.Create(ctx, model.CollectionSponsors, map[string]any{"name": "No logo"}); err != nil {
		t.Fatalf("raw Create: %v", err)
	}
	if _, err := site.Sponsors.Create(ctx, model.Sponsor{Name: "Good", Logo: "/assets/good.png"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	docs, err := site.Sponsors.List(ctx, store.Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 1 || docs[0].Data.Name != "Good" {
		t.Errorf("List = %+v, want only the valid sponsor", docs)
	}
}

func TestCollection_InertStore(t *testing.T) {
	site := NewSite(store.Inert{}, live.NewHub())
	ctx := context.Background()

	_, err := site.News.Create(ctx, model.NewsItem{Title: "a", Excerpt: "b", Date: "c", Category: "d"})
	if !model.IsKind(err, model.KindConfiguration) {
		t.Errorf("Create on inert store = %v, want configuration error", err)
	}
	docs, err := site.News.List(ctx, store.Query{})
	if err != nil || len(docs) != 0 {
		t.Errorf("List on inert store = %v, %v", docs, err)
	}
}
