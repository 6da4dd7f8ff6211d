// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/acm-mitb/acm-site/internal/gate"
	"github.com/acm-mitb/acm-site/internal/media"
	"github.com/acm-mitb/acm-site/internal/middleware"
	"github.com/acm-mitb/acm-site/internal/model"
	"github.com/acm-mitb/acm-site/internal/roster"
	"github.com/acm-mitb/acm-site/internal/store"
)

// Delete confirmation.
const (
	ConfirmDeleteHeader = "X-Confirm-Delete"
	MsgConfirmDelete    = "Are you sure you want to delete this? Confirm to continue."
	MsgChooseImage      = "Please choose an image to upload."
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// manager is the CRUD surface of one console collection.
type manager[T model.Record] interface {
	List(ctx context.Context, q store.Query) ([]model.Doc[T], error)
	Get(ctx context.Context, id string) (model.Doc[T], error)
	Create(ctx context.Context, rec T) (model.Doc[T], error)
	Update(ctx context.Context, id string, rec T) (model.Doc[T], error)
	Delete(ctx context.Context, id string) error
}

// crud serves list/get/create/update/delete for one collection.
type crud[T model.Record] struct {
	collection string
	m          manager[T]
	listQuery  store.Query
}

func newCRUD[T model.Record](collection string, m manager[T], listQuery store.Query) crud[T] {
	return crud[T]{collection: collection, m: m, listQuery: listQuery}
}

func (c crud[T]) mount(r chi.Router) {
	r.Get("/", c.list)
	r.Post("/", c.create)
	r.Get("/{id}", c.get)
	r.Put("/{id}", c.update)
	r.Delete("/{id}", c.delete)
}

func (c crud[T]) list(w http.ResponseWriter, r *http.Request) {
	docs, err := c.m.List(r.Context(), c.listQuery)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	docs = orEmpty(docs)
	WriteSuccess(w, docs, &Meta{Total: len(docs)})
}

func (c crud[T]) get(w http.ResponseWriter, r *http.Request) {
	doc, err := c.m.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	WriteSuccess(w, doc, nil)
}

func (c crud[T]) create(w http.ResponseWriter, r *http.Request) {
	var rec T
	if !decodeJSON(w, r, &rec) {
		return
	}

	doc, err := c.m.Create(r.Context(), rec)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	slog.Info("record created", "collection", c.collection, "id", doc.ID,
		"uid", middleware.GetUID(r), "category", model.LogCategoryContent)
	WriteCreated(w, doc)
}

func (c crud[T]) update(w http.ResponseWriter, r *http.Request) {
	var rec T
	if !decodeJSON(w, r, &rec) {
		return
	}

	doc, err := c.m.Update(r.Context(), chi.URLParam(r, "id"), rec)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	slog.Info("record updated", "collection", c.collection, "id", doc.ID,
		"uid", middleware.GetUID(r), "category", model.LogCategoryContent)
	WriteSuccess(w, doc, nil)
}

func (c crud[T]) delete(w http.ResponseWriter, r *http.Request) {
	if !deleteConfirmed(r) {
		WriteError(w, http.StatusPreconditionRequired, "confirmation_required", MsgConfirmDelete, nil)
		return
	}

	id := chi.URLParam(r, "id")
	if err := c.m.Delete(r.Context(), id); err != nil {
		WriteDomainError(w, r, err)
		return
	}

	slog.Info("record deleted", "collection", c.collection, "id", id,
		"uid", middleware.GetUID(r), "category", model.LogCategoryContent)
	w.WriteHeader(http.StatusNoContent)
}

// deleteConfirmed reports whether the client confirmed a delete, either
// with ?confirm=true or the X-Confirm-Delete header.
func deleteConfirmed(r *http.Request) bool {
	if ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm")); ok {
		return true
	}
	ok, _ := strconv.ParseBool(r.Header.Get(ConfirmDeleteHeader))
	return ok
}

// StateResponse describes the console session.
type StateResponse struct {
	State    gate.State     `json:"state"`
	Identity model.Identity `json:"identity"`
	Managers []string       `json:"managers"`
}

// State handles GET /townhall/api/state.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	d, _ := middleware.GetDecision(r)
	resp := StateResponse{State: d.State, Managers: gate.Managers}
	if d.Identity != nil {
		resp.Identity = *d.Identity
	}
	WriteSuccess(w, resp, nil)
}

// MoveCarousel returns the handler of POST /townhall/api/carousel/{id}/up
// or /down. Moving past either end is a no-op.
func (h *Handler) MoveCarousel(up bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		move := h.site.Carousel.MoveDown
		if up {
			move = h.site.Carousel.MoveUp
		}

		moved, err := move(r.Context(), id)
		if err != nil {
			WriteDomainError(w, r, err)
			return
		}
		if moved {
			slog.Info("carousel event moved", "id", id, "up", up,
				"uid", middleware.GetUID(r), "category", model.LogCategoryContent)
		}
		WriteSuccess(w, map[string]bool{"moved": moved}, nil)
	}
}

// GetCountdown handles GET /townhall/api/events-page/countdown.
func (h *Handler) GetCountdown(w http.ResponseWriter, r *http.Request) {
	cd, err := h.site.Countdown.Get(r.Context())
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	WriteSuccess(w, cd, nil)
}

// SetCountdown handles PUT /townhall/api/events-page/countdown.
func (h *Handler) SetCountdown(w http.ResponseWriter, r *http.Request) {
	var cd model.Countdown
	if !decodeJSON(w, r, &cd) {
		return
	}

	saved, err := h.site.Countdown.Set(r.Context(), cd)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	slog.Info("countdown updated", "targetDate", saved.TargetDate,
		"uid", middleware.GetUID(r), "category", model.LogCategoryContent)
	WriteSuccess(w, saved, nil)
}

// UploadResponse is returned for a stored image.
type UploadResponse struct {
	URL string `json:"url"`
}

// Upload handles POST /townhall/api/uploads. The multipart form carries
// file, folder and an optional name.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, media.MaxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(media.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteValidationError(w, media.MsgImageTooLarge, nil)
			return
		}
		WriteBadRequest(w, "Invalid upload form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteValidationError(w, MsgChooseImage, map[string]string{"file": MsgChooseImage})
		return
	}
	defer func() { _ = file.Close() }()

	url, err := h.uploader.Upload(r.Context(), media.Upload{
		File:     file,
		Filename: header.Filename,
		Folder:   r.FormValue("folder"),
		Name:     r.FormValue("name"),
	})
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	slog.Info("image uploaded", "url", url, "uid", middleware.GetUID(r), "category", model.LogCategoryMedia)
	WriteCreated(w, UploadResponse{URL: url})
}

// Stream handles GET /townhall/api/stream, sending an "update" event for
// every snapshot of every console manager until the client disconnects.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	d, _ := middleware.GetDecision(r)
	console, err := gate.OpenConsole(r.Context(), d, h.site)
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}
	defer console.Close()

	s, err := openStream(w)
	if err != nil {
		slog.Warn("opening console stream failed", "error", err)
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case u, ok := <-console.C():
			if !ok {
				return
			}
			if err := s.send("update", u); err != nil {
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

// Members handles GET /townhall/api/members.xlsx.
func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.site.Profiles.List(r.Context())
	if err != nil {
		WriteDomainError(w, r, err)
		return
	}

	buf, err := roster.Export(profiles)
	if err != nil {
		WriteDomainError(w, r, model.RemoteError("members.export", err))
		return
	}

	slog.Info("member roster exported", "members", len(profiles),
		"uid", middleware.GetUID(r), "category", model.LogCategoryProfile)

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+roster.Filename(h.now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

// EventLog handles GET /townhall/api/event-log?level=&limit=&offset=.
func (h *Handler) EventLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	level := q.Get("level")
	switch level {
	case "", model.LogLevelInfo, model.LogLevelWarning, model.LogLevelError:
	default:
		WriteBadRequest(w, "level must be info, warning or error")
		return
	}

	limit, ok := intParam(w, q.Get("limit"), 50, 1, 200)
	if !ok {
		return
	}
	offset, ok := intParam(w, q.Get("offset"), 0, 0, 1<<20)
	if !ok {
		return
	}

	entries, err := h.events.ListEvents(r.Context(), store.ListEventsParams{Level: level, Limit: limit, Offset: offset})
	if err != nil {
		WriteDomainError(w, r, model.RemoteError("eventlog.list", err))
		return
	}
	entries = orEmpty(entries)
	WriteSuccess(w, entries, &Meta{Total: len(entries), Limit: limit, Offset: offset})
}

// intParam parses an optional integer query value within [lo, hi].
func intParam(w http.ResponseWriter, raw string, def, lo, hi int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		WriteBadRequest(w, "Invalid pagination parameter")
		return 0, false
	}
	return n, true
}
