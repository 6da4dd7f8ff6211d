package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/acm-mitb/acm-site/internal/content"
	"github.com/acm-mitb/acm-site/internal/middleware"
	"github.com/acm-mitb/acm-site/internal/model"
	"github.com/acm-mitb/acm-site/internal/store"
)

// Middlewares are applied by Mount. Nil entries are skipped.
type Middlewares struct {
	// RateLimit guards every /api/v1 route.
	RateLimit func(http.Handler) http.Handler
	// ProfileLimit guards profile submissions.
	ProfileLimit func(http.Handler) http.Handler
	CSRF         func(http.Handler) http.Handler
	// Timeout wraps every route except event streams.
	Timeout func(http.Handler) http.Handler
}

func optional(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}

// Mount registers the public API under /api/v1, sign-in under /auth and
// the console API under /townhall/api. Session loading is left to the
// caller.
func (h *Handler) Mount(r chi.Router, mw Middlewares) {
	timeout := optional(mw.Timeout)
	csrf := optional(mw.CSRF)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(optional(mw.RateLimit))

		r.Get("/live/{collection}", h.Live)

		r.Group(func(r chi.Router) {
			r.Use(timeout)

			r.Get("/sponsors", h.Sponsors)
			r.Get("/events", h.Events)
			r.Get("/events/popup", h.Popup)
			r.Get("/carousel", h.Carousel)
			r.Get("/events-page/events", h.PageEvents)
			r.Get("/events-page/events.ics", h.Calendar)
			r.Get("/events-page/events/{id}/qr.png", h.EventQR)
			r.Get("/events-page/countdown", h.Countdown)
			r.Get("/stories", h.Stories)
			r.Get("/news", h.News)

			r.Route("/profile", func(r chi.Router) {
				r.Use(csrf, middleware.RequireIdentity(h.sessions))
				r.Get("/", h.Profile)
				r.With(optional(mw.ProfileLimit)).Post("/", h.CompleteProfile)
			})
		})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(csrf, timeout)

		signIn := optional(nil)
		if h.signIn != nil {
			signIn = h.signIn.Middleware()
		}
		r.With(signIn).Post("/session", h.SignIn)
		r.Post("/logout", h.SignOut)
		r.Get("/me", h.Me)
		r.Post("/intro", h.IntroSeen)
	})

	r.Route("/townhall/api", func(r chi.Router) {
		r.Use(csrf, middleware.RequireTownhall(h.gate))

		r.Get("/stream", h.Stream)

		r.Group(func(r chi.Router) {
			r.Use(timeout)

			r.Get("/state", h.State)

			r.Route("/sponsors", newCRUD(model.CollectionSponsors, h.site.Sponsors, store.Query{}).mount)
			r.Route("/events", newCRUD(model.CollectionEvents, h.site.Events, store.Query{}).mount)
			r.Route("/carousel", func(r chi.Router) {
				newCRUD(model.CollectionNextEvents, h.site.Carousel, content.OrderedQuery()).mount(r)
				r.Post("/{id}/up", h.MoveCarousel(true))
				r.Post("/{id}/down", h.MoveCarousel(false))
			})
			r.Get("/events-page/countdown", h.GetCountdown)
			r.Put("/events-page/countdown", h.SetCountdown)
			r.Route("/events-page/events", newCRUD(model.CollectionEventsPageEvents, h.site.PageEvents, content.PageEventsQuery()).mount)
			r.Route("/stories", newCRUD(model.CollectionStories, h.site.Stories, store.Query{}).mount)
			r.Route("/news", newCRUD(model.CollectionNews, h.site.News, store.Query{}).mount)

			r.Post("/uploads", h.Upload)
			r.Get("/members.xlsx", h.Members)
			r.Get("/event-log", h.EventLog)
		})
	})
}
