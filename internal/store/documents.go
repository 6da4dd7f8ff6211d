// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a write violates a unique key.
	ErrConflict = errors.New("document conflicts with an existing document")
	// ErrNotConfigured is returned by the inert store for every write.
	ErrNotConfigured = errors.New("document store not configured")
)

// Document is a stored JSON object.
type Document struct {
	Collection string
	ID         string
	Data       json.RawMessage
	CreateTime time.Time
	UpdateTime time.Time
}

// Documents is the document store contract used by the content layer.
type Documents interface {
	// Create inserts data under a generated id.
	Create(ctx context.Context, collection string, data any) (Document, error)
	// Insert inserts data under id and fails with ErrConflict if it exists.
	Insert(ctx context.Context, collection, id string, data any) (Document, error)
	// Set creates or replaces the document with id.
	Set(ctx context.Context, collection, id string, data any) (Document, error)
	// Replace overwrites an existing document and fails with ErrNotFound otherwise.
	Replace(ctx context.Context, collection, id string, data any) (Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	List(ctx context.Context, collection string, q Query) ([]Document, error)
	Delete(ctx context.Context, collection, id string) error
	// SwapAdjacent exchanges the integer field of id with the document whose
	// field equals its value plus delta. It reports false when no such
	// neighbour exists.
	SwapAdjacent(ctx context.Context, collection, id, field string, delta int) (bool, error)
}

// DBTX is the subset of *sql.DB and *sql.Tx used by Queries.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries implements Documents on SQLite.
type Queries struct {
	db  DBTX
	raw *sql.DB // for transactions
	now func() time.Time
}

// New creates Queries over db.
func New(db *sql.DB) *Queries {
	return &Queries{db: db, raw: db, now: time.Now}
}

// WithClock returns Queries stamping documents with now. Used by tests.
func (q *Queries) WithClock(now func() time.Time) *Queries {
	return &Queries{db: q.db, raw: q.raw, now: now}
}

func encode(data any) ([]byte, error) {
	if raw, ok := data.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	if len(b) == 0 || b[0] != '{' {
		return nil, errors.New("encoding document: not a JSON object")
	}
	return b, nil
}

// isUniqueViolation matches SQLite's unique and primary key failures.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Create implements Documents.
func (q *Queries) Create(ctx context.Context, collection string, data any) (Document, error) {
	return q.Insert(ctx, collection, uuid.NewString(), data)
}

// Insert implements Documents.
func (q *Queries) Insert(ctx context.Context, collection, id string, data any) (Document, error) {
	b, err := encode(data)
	if err != nil {
		return Document{}, err
	}
	now := q.now().UTC()

	_, err = q.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, create_time, update_time) VALUES (?, ?, ?, ?, ?)`,
		collection, id, string(b), now, now)
	if isUniqueViolation(err) {
		return Document{}, fmt.Errorf("inserting %s/%s: %w", collection, id, ErrConflict)
	}
	if err != nil {
		return Document{}, fmt.Errorf("inserting %s/%s: %w", collection, id, err)
	}

	return Document{Collection: collection, ID: id, Data: b, CreateTime: now, UpdateTime: now}, nil
}

// Set implements Documents.
func (q *Queries) Set(ctx context.Context, collection, id string, data any) (Document, error) {
	b, err := encode(data)
	if err != nil {
		return Document{}, err
	}
	now := q.now().UTC()

	_, err = q.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, create_time, update_time) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, update_time = excluded.update_time`,
		collection, id, string(b), now, now)
	if isUniqueViolation(err) {
		return Document{}, fmt.Errorf("setting %s/%s: %w", collection, id, ErrConflict)
	}
	if err != nil {
		return Document{}, fmt.Errorf("setting %s/%s: %w", collection, id, err)
	}

	return q.Get(ctx, collection, id)
}

// Replace implements Documents.
func (q *Queries) Replace(ctx context.Context, collection, id string, data any) (Document, error) {
	b, err := encode(data)
	if err != nil {
		return Document{}, err
	}
	now := q.now().UTC()

	res, err := q.db.ExecContext(ctx,
		`UPDATE documents SET data = ?, update_time = ? WHERE collection = ? AND id = ?`,
		string(b), now, collection, id)
	if isUniqueViolation(err) {
		return Document{}, fmt.Errorf("replacing %s/%s: %w", collection, id, ErrConflict)
	}
	if err != nil {
		return Document{}, fmt.Errorf("replacing %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Document{}, fmt.Errorf("replacing %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return Document{}, fmt.Errorf("replacing %s/%s: %w", collection, id, ErrNotFound)
	}

	return q.Get(ctx, collection, id)
}

// Get implements Documents.
func (q *Queries) Get(ctx context.Context, collection, id string) (Document, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, data, create_time, update_time FROM documents WHERE collection = ? AND id = ?`,
		collection, id)

	doc, err := scanDocument(row, collection)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("getting %s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

// List implements Documents.
func (q *Queries) List(ctx context.Context, collection string, query Query) ([]Document, error) {
	stmt, args, err := query.build(collection)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", collection, err)
	}

	rows, err := q.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", collection, err)
	}
	defer func() { _ = rows.Close() }()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows, collection)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Delete implements Documents.
func (q *Queries) Delete(ctx context.Context, collection, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	if n == 0 {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, ErrNotFound)
	}
	return nil
}

// SwapAdjacent implements Documents. Both writes commit in one transaction.
func (q *Queries) SwapAdjacent(ctx context.Context, collection, id, field string, delta int) (bool, error) {
	if err := validField(field); err != nil {
		return false, err
	}
	if q.raw == nil {
		return false, errors.New("swap requires a database handle")
	}

	tx, err := q.raw.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	path := "'$." + field + "'"

	var current sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT json_extract(data, `+path+`) FROM documents WHERE collection = ? AND id = ?`,
		collection, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("swapping %s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("swapping %s/%s: %w", collection, id, err)
	}
	if !current.Valid {
		return false, fmt.Errorf("swapping %s/%s: field %s is not set", collection, id, field)
	}

	target := current.Int64 + int64(delta)
	var neighbour string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM documents WHERE collection = ? AND id != ? AND json_extract(data, `+path+`) = ?
		 ORDER BY create_time ASC, id ASC LIMIT 1`,
		collection, id, target).Scan(&neighbour)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("finding neighbour of %s/%s: %w", collection, id, err)
	}

	now := q.now().UTC()
	update := `UPDATE documents SET data = json_set(data, ` + path + `, ?), update_time = ? WHERE collection = ? AND id = ?`
	if _, err := tx.ExecContext(ctx, update, target, now, collection, id); err != nil {
		return false, fmt.Errorf("updating %s/%s: %w", collection, id, err)
	}
	if _, err := tx.ExecContext(ctx, update, current.Int64, now, collection, neighbour); err != nil {
		return false, fmt.Errorf("updating %s/%s: %w", collection, neighbour, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing swap: %w", err)
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner, collection string) (Document, error) {
	var (
		doc  Document
		data string
	)
	if err := row.Scan(&doc.ID, &data, &doc.CreateTime, &doc.UpdateTime); err != nil {
		return Document{}, err
	}
	doc.Collection = collection
	doc.Data = json.RawMessage(data)
	return doc, nil
}

var _ Documents = (*Queries)(nil)
