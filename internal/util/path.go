// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned when a joined path escapes its base directory.
var ErrPathTraversal = errors.New("path escapes base directory")

// SanitizeFilename keeps only the last element of filename.
func SanitizeFilename(filename string) (string, error) {
	safe := filepath.Base(filename)
	if safe == "." || safe == ".." || safe == "" || safe == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename: %q", filename)
	}
	return safe, nil
}

// SafeJoin joins elems onto base and fails when the result is not inside
// base. The base itself is accepted.
func SafeJoin(base string, elems ...string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolving base %q: %w", base, err)
	}

	target := filepath.Join(append([]string{absBase}, elems...)...)
	rel, err := filepath.Rel(absBase, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", ErrPathTraversal
	}
	return target, nil
}
