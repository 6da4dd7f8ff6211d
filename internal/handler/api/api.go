// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON and event-stream handlers of the site:
// public reads, sign-in, profile completion and the Townhall console.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/acm-mitb/acm-site/internal/auth"
	"github.com/acm-mitb/acm-site/internal/content"
	"github.com/acm-mitb/acm-site/internal/gate"
	"github.com/acm-mitb/acm-site/internal/media"
	"github.com/acm-mitb/acm-site/internal/middleware"
	"github.com/acm-mitb/acm-site/internal/model"
	"github.com/acm-mitb/acm-site/internal/session"
	"github.com/acm-mitb/acm-site/internal/store"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// EventLog lists rows of the persistent event log.
type EventLog interface {
	ListEvents(ctx context.Context, arg store.ListEventsParams) ([]model.LogEntry, error)
}

// Deps are the services the handlers use.
type Deps struct {
	Site     *content.Site
	Public   *content.Public
	Sessions *session.Context
	Verifier auth.Verifier
	Gate     *gate.Gate
	Uploader media.Uploader
	Events   EventLog
	SignIn   *middleware.SignInProtection

	// Location is the time zone of events-page dates. Defaults to Asia/Kolkata.
	Location *time.Location
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	site     *content.Site
	public   *content.Public
	sessions *session.Context
	verifier auth.Verifier
	gate     *gate.Gate
	uploader media.Uploader
	events   EventLog
	signIn   *middleware.SignInProtection
	loc      *time.Location
	now      func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	loc := d.Location
	if loc == nil {
		var err error
		if loc, err = time.LoadLocation("Asia/Kolkata"); err != nil {
			loc = time.FixedZone("IST", 5*3600+1800)
		}
	}
	return &Handler{
		site:     d.Site,
		public:   d.Public,
		sessions: d.Sessions,
		verifier: d.Verifier,
		gate:     d.Gate,
		uploader: d.Uploader,
		events:   d.Events,
		signIn:   d.SignIn,
		loc:      loc,
		now:      time.Now,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains listing metadata.
type Meta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: ErrorDetail{Code: code, Message: message, Details: details}})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, nil)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, message string, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", message, fieldErrors)
}

// WriteDomainError maps err to a status by its kind and writes its
// user-facing message. Remote and configuration failures are logged.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := StatusOf(err)

	var details map[string]string
	var e *model.Error
	if errors.As(err, &e) {
		details = e.Fields
	}

	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"uid", middleware.GetUID(r),
			"error", err,
		)
	}

	WriteError(w, status, code, model.MessageOf(err), details)
}

// StatusOf returns the HTTP status and error code for err.
func StatusOf(err error) (int, string) {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound, "not_found"
	}
	switch model.KindOf(err) {
	case model.KindValidation:
		return http.StatusUnprocessableEntity, "validation_error"
	case model.KindUniquenessConflict:
		return http.StatusConflict, "conflict"
	case model.KindAuthorization:
		return http.StatusForbidden, "forbidden"
	case model.KindConfiguration:
		return http.StatusServiceUnavailable, "not_configured"
	default:
		return http.StatusBadGateway, "remote_error"
	}
}

// decodeJSON reads a JSON request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return false
	}
	return true
}
