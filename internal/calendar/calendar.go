// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package calendar exports events-page events for calendars and phones:
// an iCalendar feed and QR codes pointing at event links.
package calendar

import (
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/acm-mitb/acm-site/internal/model"
)

const (
	productID = "-//ACM MIT Bengaluru//Events//EN"
	feedName  = "ACM MIT Bengaluru Events"
	uidDomain = "acm-mitb"

	// DefaultDuration is the length given to events with a start time.
	DefaultDuration = 2 * time.Hour
)

// Feed renders docs as an iCalendar feed. Dates are read in loc. Events
// without a parseable date are left out; events without a time of day
// become all-day events.
func Feed(docs []model.Doc[model.PageEvent], loc *time.Location, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(feedName)
	cal.SetXWRTimezone(loc.String())

	for _, d := range docs {
		start, ok := d.Data.Start(loc)
		if !ok {
			continue
		}

		ev := cal.AddEvent(d.ID + "@" + uidDomain)
		ev.SetDtStampTime(now)
		ev.SetSummary(d.Data.Title)

		if allDay(start) {
			ev.SetAllDayStartAt(start)
			ev.SetAllDayEndAt(start.AddDate(0, 0, 1))
		} else {
			ev.SetStartAt(start)
			ev.SetEndAt(start.Add(DefaultDuration))
		}

		if d.Data.Location != "" {
			ev.SetLocation(d.Data.Location)
		}
		if desc := description(d.Data); desc != "" {
			ev.SetDescription(desc)
		}
		if d.Data.Link != "" {
			ev.SetURL(d.Data.Link)
		}
	}

	return cal.Serialize()
}

func allDay(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0
}

func description(e model.PageEvent) string {
	parts := make([]string, 0, 2)
	if e.Chapter != "" {
		parts = append(parts, e.Chapter)
	}
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	return strings.Join(parts, "\n\n")
}
