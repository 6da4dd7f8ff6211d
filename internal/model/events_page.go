// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// PageEvent is a document in the eventsPageEvents collection.
type PageEvent struct {
	Title       string `json:"title" validate:"required"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Chapter     string `json:"chapter"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty" validate:"omitempty,weburl"`
	Link        string `json:"link,omitempty" validate:"omitempty,weburl"`
}

// Validate implements Record.
func (e PageEvent) Validate() error {
	return validateRecord("eventsPageEvents.validate", e)
}

// Start returns the event start in loc. A time like "18:30" is applied when
// it parses; otherwise the start is midnight.
func (e PageEvent) Start(loc *time.Location) (time.Time, bool) {
	day, err := time.ParseInLocation("2006-01-02", e.Date, loc)
	if err != nil {
		return time.Time{}, false
	}
	for _, layout := range []string{"15:04", "3:04 PM", "3:04PM", "3 PM", "3PM"} {
		if t, err := time.Parse(layout, e.Time); err == nil {
			return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), true
		}
	}
	return day, true
}

// Countdown defaults used until an admin saves the singleton.
const (
	DefaultCountdownTitle      = "TURINGER"
	DefaultCountdownSubtitle   = "The Ultimate Coding Showdown"
	DefaultCountdownTargetDate = "2026-01-30T00:00:00"
)

// Countdown is the eventsPage/countdown singleton. TargetDate is kept as the
// string the admin entered so it reads back unchanged.
type Countdown struct {
	Title      string `json:"title" validate:"required"`
	Subtitle   string `json:"subtitle"`
	TargetDate string `json:"targetDate" validate:"required,isodatetime"`
}

// DefaultCountdown returns the countdown shown before one is configured.
func DefaultCountdown() Countdown {
	return Countdown{
		Title:      DefaultCountdownTitle,
		Subtitle:   DefaultCountdownSubtitle,
		TargetDate: DefaultCountdownTargetDate,
	}
}

// Validate implements Record.
func (c Countdown) Validate() error {
	return validateRecord("eventsPage.validate", c)
}

// Remaining is the time left until a countdown target.
type Remaining struct {
	Days    int  `json:"days"`
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
	Seconds int  `json:"seconds"`
	Expired bool `json:"expired"`
}

// Remaining computes the time left at now. A target without a zone is
// read in now's location. Past targets clamp to zero.
func (c Countdown) Remaining(now time.Time) Remaining {
	target, ok := parseTargetDateIn(c.TargetDate, now.Location())
	if !ok {
		return Remaining{Expired: true}
	}
	d := target.Sub(now)
	if d <= 0 {
		return Remaining{Expired: true}
	}
	secs := int(d / time.Second)
	return Remaining{
		Days:    secs / 86400,
		Hours:   secs % 86400 / 3600,
		Minutes: secs % 3600 / 60,
		Seconds: secs % 60,
	}
}

var targetDateLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}

// ParseTargetDate parses a countdown target in UTC.
func ParseTargetDate(s string) (time.Time, bool) {
	return parseTargetDateIn(s, time.UTC)
}

func parseTargetDateIn(s string, loc *time.Location) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	for _, layout := range targetDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
