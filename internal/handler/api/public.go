// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/acm-mitb/acm-site/internal/calendar"
	"github.com/acm-mitb/acm-site/internal/content"
	"github.com/acm-mitb/acm-site/internal/model"
	"github.com/acm-mitb/acm-site/internal/store"
)

// calendarFilename is the download name of the events feed.
const calendarFilename = "acm-mitb-events.ics"

// Sponsors handles GET /api/v1/sponsors.
func (h *Handler) Sponsors(w http.ResponseWriter, r *http.Request) {
	docs := h.public.Sponsors(r.Context())
	WriteSuccess(w, docs, &Meta{Total: len(docs)})
}

// Events handles GET /api/v1/events?status=.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	status, ok := eventStatusParam(w, r)
	if !ok {
		return
	}
	docs := h.public.Events(r.Context(), status)
	WriteSuccess(w, docs, &Meta{Total: len(docs)})
}

// Popup handles GET /api/v1/events/popup. Data is null when no event is
// upcoming.
func (h *Handler) Popup(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.public.Popup(r.Context())
	if !ok {
		WriteSuccess(w, nil, nil)
		return
	}
	WriteSuccess(w, doc, nil)
}

// Carousel handles GET /api/v1/carousel.
func (h *Handler) Carousel(w http.ResponseWriter, r *http.Request) {
	docs := h.public.Carousel(r.Context())
	WriteSuccess(w, docs, &Meta{Total: len(docs)})
}

// PageEvents handles GET /api/v1/events-page/events.
func (h *Handler) PageEvents(w http.ResponseWriter, r *http.Request) {
	docs := h.public.PageEvents(r.Context())
	WriteSuccess(w, docs, &Meta{Total: len(docs)})
}

// Calendar handles GET /api/v1/events-page/events.ics.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	feed := calendar.Feed(h.public.PageEvents(r.Context()), h.loc, h.now())

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="`+calendarFilename+`"`)
	_, _ = w.Write([]byte(feed))
}

// EventQR handles GET /api/v1/events-page/events/{id}/qr.png.
func (h *Handler) EventQR(w http.ResponseWriter, r *http.Request) {
	doc, err := h.public.PageEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	if doc.Data.Link == "" {
		WriteNotFound(w, "This event has no link.")
		return
	}

	png, err := calendar.QRCode(doc.Data.Link)
	if err != nil {
		WriteDomainError(w, r, model.RemoteError("events.qr", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(png)
}

// Countdown handles GET /api/v1/events-page/countdown.
func (h *Handler) Countdown(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, h.public.Countdown(r.Context()), nil)
}

// Stories handles GET /api/v1/stories?chapter=.
func (h *Handler) Stories(w http.ResponseWriter, r *http.Request) {
	chapter, ok := chapterParam(w, r)
	if !ok {
		return
	}
	docs := h.public.Stories(r.Context(), chapter)
	WriteSuccess(w, docs, &Meta{Total: len(docs)})
}

// News handles GET /api/v1/news.
func (h *Handler) News(w http.ResponseWriter, r *http.Request) {
	entries := h.public.News(r.Context())
	WriteSuccess(w, entries, &Meta{Total: len(entries)})
}

// Live handles GET /api/v1/live/{collection}, streaming a snapshot of the
// public view of a collection now and after every change.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch chi.URLParam(r, "collection") {
	case model.CollectionSponsors:
		streamWatch(w, r, h.site.Sponsors.Watch(ctx, content.SponsorsQuery()), content.WithFallbackSponsors)
	case model.CollectionEvents:
		status, ok := eventStatusParam(w, r)
		if !ok {
			return
		}
		streamWatch(w, r, h.site.Events.Watch(ctx, content.EventsQuery(status)), identity[model.Event])
	case model.CollectionNextEvents:
		streamWatch(w, r, h.site.Carousel.Watch(ctx, content.OrderedQuery()), visibleCarousel)
	case model.CollectionEventsPageEvents:
		streamWatch(w, r, h.site.PageEvents.Watch(ctx, content.PageEventsQuery()), identity[model.PageEvent])
	case model.CollectionEventsPage:
		streamWatch(w, r, h.site.Countdown.Watch(ctx), h.countdownView)
	case model.CollectionStories:
		chapter, ok := chapterParam(w, r)
		if !ok {
			return
		}
		streamWatch(w, r, h.site.Stories.Watch(ctx, content.StoriesQuery(chapter)), sortedStories)
	case model.CollectionNews:
		streamWatch(w, r, h.site.News.Watch(ctx, store.Query{}), content.RenderNews)
	default:
		WriteNotFound(w, "Unknown collection")
	}
}

func (h *Handler) countdownView(docs []model.Doc[model.Countdown]) content.CountdownView {
	cd := model.DefaultCountdown()
	if len(docs) > 0 {
		cd = docs[0].Data
	}
	return content.NewCountdownView(cd, h.now())
}

func visibleCarousel(docs []model.Doc[model.CarouselEvent]) []model.Doc[model.CarouselEvent] {
	out := make([]model.Doc[model.CarouselEvent], 0, len(docs))
	for _, d := range docs {
		if d.Data.Visible() {
			out = append(out, d)
		}
	}
	return out
}

func sortedStories(docs []model.Doc[model.Story]) []model.Doc[model.Story] {
	content.SortStoriesNewestFirst(docs)
	return docs
}

func eventStatusParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", model.EventStatusUpcoming, model.EventStatusCompleted:
		return status, true
	}
	WriteBadRequest(w, "status must be upcoming or completed")
	return "", false
}

func chapterParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	chapter := r.URL.Query().Get("chapter")
	if chapter == "" || slices.Contains(model.Chapters, chapter) {
		return chapter, true
	}
	WriteBadRequest(w, "Unknown chapter")
	return "", false
}
