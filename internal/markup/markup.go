// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package markup cleans admin text input and renders news markdown.
package markup

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// textPolicy strips every tag; htmlSanitizer keeps the safe subset produced
// by markdown rendering.
var (
	textPolicy    = bluemonday.StrictPolicy()
	htmlSanitizer = bluemonday.UGCPolicy()
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
	goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
)

// Text returns s trimmed and stripped of markup, with entities decoded so
// the stored value is plain text.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

// Texts applies Text to every element and drops empty results.
func Texts(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = Text(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Markdown renders src to sanitised HTML.
func Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return htmlSanitizer.Sanitize(buf.String()), nil
}
