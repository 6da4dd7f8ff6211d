// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Event statuses.
const (
	EventStatusUpcoming  = "upcoming"
	EventStatusCompleted = "completed"
)

// Event is a document in the events collection.
type Event struct {
	Title       string `json:"title" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Description string `json:"description" validate:"required"`
	Image       string `json:"image,omitempty" validate:"omitempty,weburl"`
	Link        string `json:"link,omitempty" validate:"omitempty,weburl"`
	Status      string `json:"status" validate:"required,oneof=upcoming completed"`
}

// Validate implements Record.
func (e Event) Validate() error {
	return validateRecord("events.validate", e)
}

// WithDefaults fills the status of a new event.
func (e Event) WithDefaults() Event {
	if e.Status == "" {
		e.Status = EventStatusUpcoming
	}
	return e
}

// Carousel statuses.
const (
	CarouselStatusActive = "active"
	CarouselStatusLive   = "live"
	CarouselStatusHidden = "hidden"
)

// MaxLiveCarouselEvents is the number of live carousel slots the admin
// console allows. The store itself does not enforce it.
const MaxLiveCarouselEvents = 6

// CarouselEvent is a document in the nextEvents collection shown by the
// homepage carousel.
type CarouselEvent struct {
	Title       string `json:"title" validate:"required"`
	Subtitle    string `json:"subtitle"`
	Date        string `json:"date" validate:"required"`
	Description string `json:"description"`
	Image       string `json:"image" validate:"required,weburl"`
	Link        string `json:"link,omitempty" validate:"omitempty,weburl"`
	Status      string `json:"status" validate:"required,oneof=active live hidden"`
	Order       int    `json:"order" validate:"gte=0"`
}

// Validate implements Record.
func (e CarouselEvent) Validate() error {
	return validateRecord("nextEvents.validate", e)
}

// WithDefaults fills the status of a new carousel event.
func (e CarouselEvent) WithDefaults() CarouselEvent {
	if e.Status == "" {
		e.Status = CarouselStatusActive
	}
	return e
}

// Visible reports whether the carousel shows the record.
func (e CarouselEvent) Visible() bool {
	return e.Status != CarouselStatusHidden
}
