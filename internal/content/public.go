// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"html/template"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/acm-mitb/acm-site/internal/cache"
	"github.com/acm-mitb/acm-site/internal/markup"
	"github.com/acm-mitb/acm-site/internal/model"
	"github.com/acm-mitb/acm-site/internal/store"
)

// NewsEntry is a news item with its excerpt rendered to HTML.
type NewsEntry struct {
	model.Doc[model.NewsItem]
	ExcerptHTML string `json:"excerptHtml"`
}

// CountdownView is the countdown together with the time left.
type CountdownView struct {
	model.Countdown
	Remaining model.Remaining `json:"remaining"`
}

// Public serves the read side of the public pages from cached snapshots.
// Read failures are logged and produce empty results.
type Public struct {
	site *Site

	sponsors   *cache.TypedCache[[]model.Doc[model.Sponsor]]
	events     *cache.TypedCache[[]model.Doc[model.Event]]
	carousel   *cache.TypedCache[[]model.Doc[model.CarouselEvent]]
	pageEvents *cache.TypedCache[[]model.Doc[model.PageEvent]]
	stories    *cache.TypedCache[[]model.Doc[model.Story]]
	news       *cache.TypedCache[[]NewsEntry]
	countdown  *cache.TypedCache[model.Countdown]

	now func() time.Time
}

// NewPublic creates the public reader over site, caching snapshots in c.
// Snapshots of a collection are dropped as soon as the site's hub reports
// a change to it.
func NewPublic(site *Site, c cache.Cacher, ttl time.Duration) *Public {
	inv := cache.NewInvalidator(c)
	inv.Watch(site.Hub, CachedCollections...)

	return &Public{
		site:       site,
		sponsors:   cache.NewGuardedTypedCache[[]model.Doc[model.Sponsor]](c, ttl, inv),
		events:     cache.NewGuardedTypedCache[[]model.Doc[model.Event]](c, ttl, inv),
		carousel:   cache.NewGuardedTypedCache[[]model.Doc[model.CarouselEvent]](c, ttl, inv),
		pageEvents: cache.NewGuardedTypedCache[[]model.Doc[model.PageEvent]](c, ttl, inv),
		stories:    cache.NewGuardedTypedCache[[]model.Doc[model.Story]](c, ttl, inv),
		news:       cache.NewGuardedTypedCache[[]NewsEntry](c, ttl, inv),
		countdown:  cache.NewGuardedTypedCache[model.Countdown](c, ttl, inv),
		now:        time.Now,
	}
}

// CachedCollections lists the collections whose snapshots Public caches.
var CachedCollections = []string{
	model.CollectionSponsors,
	model.CollectionEvents,
	model.CollectionNextEvents,
	model.CollectionEventsPageEvents,
	model.CollectionEventsPage,
	model.CollectionStories,
	model.CollectionNews,
}

func logReadFailure(collection string, err error) {
	slog.Warn("public read failed", "collection", collection, "error", err, "category", model.LogCategoryContent)
}

// Sponsors returns the sponsor strip, or the fallback list when no sponsor
// is stored.
func (p *Public) Sponsors(ctx context.Context) []model.Doc[model.Sponsor] {
	docs, err := p.sponsors.GetOrLoad(ctx, cache.Key(model.CollectionSponsors, "all"),
		func(ctx context.Context) ([]model.Doc[model.Sponsor], error) {
			return p.site.Sponsors.List(ctx, SponsorsQuery())
		})
	if err != nil {
		logReadFailure(model.CollectionSponsors, err)
	}
	return WithFallbackSponsors(docs)
}

// SponsorsQuery lists sponsors in the order they were added.
func SponsorsQuery() store.Query { return store.Query{} }

// WithFallbackSponsors returns docs, or the fallback sponsors when empty.
func WithFallbackSponsors(docs []model.Doc[model.Sponsor]) []model.Doc[model.Sponsor] {
	if len(docs) > 0 {
		return docs
	}
	out := make([]model.Doc[model.Sponsor], 0, len(model.FallbackSponsors))
	for _, s := range model.FallbackSponsors {
		out = append(out, model.Doc[model.Sponsor]{ID: "fallback-" + strings.ToLower(s.Name), Data: s})
	}
	return out
}

// Events returns the events, optionally only those with status.
func (p *Public) Events(ctx context.Context, status string) []model.Doc[model.Event] {
	docs, err := p.events.GetOrLoad(ctx, cache.Key(model.CollectionEvents, "status="+status),
		func(ctx context.Context) ([]model.Doc[model.Event], error) {
			return p.site.Events.List(ctx, EventsQuery(status))
		})
	if err != nil {
		logReadFailure(model.CollectionEvents, err)
		return []model.Doc[model.Event]{}
	}
	return docs
}

// Popup returns the event advertised by the popup banner, if any.
func (p *Public) Popup(ctx context.Context) (model.Doc[model.Event], bool) {
	docs, err := p.events.GetOrLoad(ctx, cache.Key(model.CollectionEvents, "popup"),
		func(ctx context.Context) ([]model.Doc[model.Event], error) {
			return p.site.Events.List(ctx, PopupQuery())
		})
	if err != nil {
		logReadFailure(model.CollectionEvents, err)
	}
	if len(docs) == 0 {
		return model.Doc[model.Event]{}, false
	}
	return docs[0], true
}

// Carousel returns the visible carousel events in display order.
func (p *Public) Carousel(ctx context.Context) []model.Doc[model.CarouselEvent] {
	docs, err := p.carousel.GetOrLoad(ctx, cache.Key(model.CollectionNextEvents, "visible"),
		p.site.Carousel.Visible)
	if err != nil {
		logReadFailure(model.CollectionNextEvents, err)
		return []model.Doc[model.CarouselEvent]{}
	}
	return docs
}

// PageEvents returns the events-page events by date.
func (p *Public) PageEvents(ctx context.Context) []model.Doc[model.PageEvent] {
	docs, err := p.pageEvents.GetOrLoad(ctx, cache.Key(model.CollectionEventsPageEvents, "all"),
		func(ctx context.Context) ([]model.Doc[model.PageEvent], error) {
			return p.site.PageEvents.List(ctx, PageEventsQuery())
		})
	if err != nil {
		logReadFailure(model.CollectionEventsPageEvents, err)
		return []model.Doc[model.PageEvent]{}
	}
	return docs
}

// PageEvent returns one events-page event.
func (p *Public) PageEvent(ctx context.Context, id string) (model.Doc[model.PageEvent], error) {
	return p.site.PageEvents.Get(ctx, id)
}

// Countdown returns the countdown and the time left at now.
func (p *Public) Countdown(ctx context.Context) CountdownView {
	cd, err := p.countdown.GetOrLoad(ctx, cache.Key(model.CollectionEventsPage, model.CountdownID), p.site.Countdown.Get)
	if err != nil {
		logReadFailure(model.CollectionEventsPage, err)
		cd = model.DefaultCountdown()
	}
	return NewCountdownView(cd, p.now())
}

// NewCountdownView pairs cd with the time left at now.
func NewCountdownView(cd model.Countdown, now time.Time) CountdownView {
	return CountdownView{Countdown: cd, Remaining: cd.Remaining(now)}
}

// Stories returns the stories, optionally only those tagged with chapter,
// newest first.
func (p *Public) Stories(ctx context.Context, chapter string) []model.Doc[model.Story] {
	docs, err := p.stories.GetOrLoad(ctx, cache.Key(model.CollectionStories, "chapter="+chapter),
		func(ctx context.Context) ([]model.Doc[model.Story], error) {
			docs, err := p.site.Stories.List(ctx, StoriesQuery(chapter))
			if err != nil {
				return nil, err
			}
			SortStoriesNewestFirst(docs)
			return docs, nil
		})
	if err != nil {
		logReadFailure(model.CollectionStories, err)
		return []model.Doc[model.Story]{}
	}
	return docs
}

// SortStoriesNewestFirst orders stories by their free-text date, newest
// first. Stories whose date does not parse keep their relative order at the end.
func SortStoriesNewestFirst(docs []model.Doc[model.Story]) {
	slices.SortStableFunc(docs, func(a, b model.Doc[model.Story]) int {
		ta, okA := model.ParseLooseDate(a.Data.Date)
		tb, okB := model.ParseLooseDate(b.Data.Date)
		switch {
		case okA && okB:
			return tb.Compare(ta)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return 0
		}
	})
}

// News returns the news items with rendered excerpts.
func (p *Public) News(ctx context.Context) []NewsEntry {
	entries, err := p.news.GetOrLoad(ctx, cache.Key(model.CollectionNews, "all"),
		func(ctx context.Context) ([]NewsEntry, error) {
			docs, err := p.site.News.List(ctx, store.Query{})
			if err != nil {
				return nil, err
			}
			return RenderNews(docs), nil
		})
	if err != nil {
		logReadFailure(model.CollectionNews, err)
		return []NewsEntry{}
	}
	return entries
}

// RenderNews renders the excerpt of every item. An excerpt that fails to
// render is shown as escaped plain text.
func RenderNews(docs []model.Doc[model.NewsItem]) []NewsEntry {
	out := make([]NewsEntry, 0, len(docs))
	for _, d := range docs {
		html, err := markup.Markdown(d.Data.Excerpt)
		if err != nil {
			html = template.HTMLEscapeString(d.Data.Excerpt)
		}
		out = append(out, NewsEntry{Doc: d, ExcerptHTML: html})
	}
	return out
}
