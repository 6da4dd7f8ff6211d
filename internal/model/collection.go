// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the content collections of the chapter site, their
// validation rules and the domain error kinds.
package model

import (
	"bytes"
	"slices"
	"time"
)

// Collection names are the wire contract with the document store.
const (
	CollectionUsers            = "users"
	CollectionSponsors         = "sponsors"
	CollectionEvents           = "events"
	CollectionNextEvents       = "nextEvents"
	CollectionEventsPageEvents = "eventsPageEvents"
	CollectionEventsPage       = "eventsPage"
	CollectionStories          = "stories"
	CollectionNews             = "news"
)

// CountdownID is the fixed key of the countdown document in the eventsPage collection.
const CountdownID = "countdown"

// Collections lists every collection the site reads or writes.
var Collections = []string{
	CollectionUsers,
	CollectionSponsors,
	CollectionEvents,
	CollectionNextEvents,
	CollectionEventsPageEvents,
	CollectionEventsPage,
	CollectionStories,
	CollectionNews,
}

// IsCollection reports whether name is a known collection.
func IsCollection(name string) bool {
	return slices.Contains(Collections, name)
}

// Chapter tags.
const (
	ChapterACM     = "acm-mitb"
	ChapterSIGAI   = "sigai"
	ChapterSIGSOFT = "sigsoft"
	ChapterACMW    = "acm-w"
)

// Chapters lists the chapters in display order.
var Chapters = []string{ChapterACM, ChapterSIGAI, ChapterSIGSOFT, ChapterACMW}

// IsChapter reports whether tag names a chapter.
func IsChapter(tag string) bool {
	return slices.Contains(Chapters, tag)
}

// Record is implemented by every collection record type.
type Record interface {
	Validate() error
}

// Doc is a stored record together with its document metadata.
type Doc[T any] struct {
	ID         string    `json:"id"`
	Data       T         `json:"data"`
	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`
}

// Flag is a privilege flag that is true only when the stored JSON value is
// the boolean literal true. Strings, numbers and null decode as false.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(b []byte) error {
	*f = Flag(bytes.Equal(bytes.TrimSpace(b), []byte("true")))
	return nil
}

// looseDateLayouts are the free-text date formats admins type into date fields.
var looseDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2006",
	"Jan 2006",
}

// ParseLooseDate parses a free-text date. The second result is false when
// none of the known layouts match.
func ParseLooseDate(s string) (time.Time, bool) {
	for _, layout := range looseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
