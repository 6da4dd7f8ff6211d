// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the site backend.
package testutil

import (
	"database/sql"
	"log/slog"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/acm-mitb/acm-site/internal/store"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestDB creates a temporary document database with migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "acm-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() { _ = db.Close() }
}

// TestStore returns store queries over a fresh test database.
func TestStore(t *testing.T) *store.Queries {
	t.Helper()

	db, cleanup := TestDB(t)
	t.Cleanup(cleanup)
	return store.New(db)
}

// TestMemoryDB opens an in-memory SQLite database holding only the
// sessions table, for tests that need session storage without documents.
func TestMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX sessions_expiry_idx ON sessions(expiry);
	`)
	if err != nil {
		t.Fatalf("failed to create sessions table: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}
