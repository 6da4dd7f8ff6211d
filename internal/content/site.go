package content

import (
	"github.com/acm-mitb/acm-site/internal/live"
	"github.com/acm-mitb/acm-site/internal/model"
	"github.com/acm-mitb/acm-site/internal/store"
)

// Site groups the managers of every collection.
type Site struct {
	Sponsors   *Collection[model.Sponsor]
	Events     *Collection[model.Event]
	Carousel   *Carousel
	PageEvents *Collection[model.PageEvent]
	Countdown  *Countdown
	Stories    *Collection[model.Story]
	News       *Collection[model.NewsItem]
	Profiles   *ProfileService

	Hub *live.Hub
}

// NewSite creates the managers over docs, publishing changes to hub.
func NewSite(docs store.Documents, hub *live.Hub) *Site {
	return &Site{
		Sponsors:   NewCollection(model.CollectionSponsors, docs, hub, prepareSponsor),
		Events:     NewCollection(model.CollectionEvents, docs, hub, prepareEvent),
		Carousel:   NewCarousel(docs, hub),
		PageEvents: NewCollection(model.CollectionEventsPageEvents, docs, hub, preparePageEvent),
		Countdown:  NewCountdown(docs, hub),
		Stories:    NewCollection(model.CollectionStories, docs, hub, prepareStory),
		News:       NewCollection(model.CollectionNews, docs, hub, prepareNews),
		Profiles:   NewProfileService(docs, hub),
		Hub:        hub,
	}
}

// Queries used by the public pages and the admin console.

// PageEventsQuery lists events-page events by date.
func PageEventsQuery() store.Query {
	return store.Query{}.Order("date", false)
}

// EventsQuery lists events, optionally with one status.
func EventsQuery(status string) store.Query {
	if status == "" {
		return store.Query{}
	}
	return store.Query{}.Where("status", store.OpEqual, status)
}

// PopupQuery selects the event advertised by the popup banner.
func PopupQuery() store.Query {
	return EventsQuery(model.EventStatusUpcoming).Take(1)
}

// StoriesQuery lists stories, optionally tagged with chapter.
func StoriesQuery(chapter string) store.Query {
	if chapter == "" {
		return store.Query{}
	}
	return store.Query{}.Where("chapters", store.OpArrayContains, chapter)
}
