// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util holds small helpers shared by the upload backends.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength bounds the length of a generated slug.
const MaxSlugLength = 80

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	stripMarks   = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slugify turns s into a lowercase ASCII slug of words joined by hyphens.
// Non-Latin scripts are transliterated. The result may be empty.
func Slugify(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	ascii := strings.ToLower(unidecode.Unidecode(folded))
	slug := strings.Trim(nonSlugChars.ReplaceAllString(ascii, "-"), "-")

	if len(slug) > MaxSlugLength {
		slug = strings.TrimRight(slug[:MaxSlugLength], "-")
	}
	return slug
}

// IsValidSlug reports whether s is a non-empty slug as produced by Slugify.
func IsValidSlug(s string) bool {
	if s == "" || len(s) > MaxSlugLength {
		return false
	}
	return Slugify(s) == s
}
