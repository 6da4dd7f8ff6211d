// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content manages the site collections: typed CRUD over the
// document store, live snapshots, carousel ordering, the countdown
// singleton and member profiles.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/acm-mitb/acm-site/internal/live"
	"github.com/acm-mitb/acm-site/internal/model"
	"github.com/acm-mitb/acm-site/internal/store"
)

// Collection is the manager of one collection of T records.
type Collection[T model.Record] struct {
	name    string
	docs    store.Documents
	hub     *live.Hub
	prepare func(T) T
}

// NewCollection creates a manager for collection. prepare normalises a
// record before validation and may be nil.
func NewCollection[T model.Record](name string, docs store.Documents, hub *live.Hub, prepare func(T) T) *Collection[T] {
	if prepare == nil {
		prepare = func(rec T) T { return rec }
	}
	return &Collection[T]{name: name, docs: docs, hub: hub, prepare: prepare}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// Create validates rec and stores it under a new id. Nothing is written
// when validation fails.
func (c *Collection[T]) Create(ctx context.Context, rec T) (model.Doc[T], error) {
	op := c.name + ".create"

	rec = c.prepare(rec)
	if err := rec.Validate(); err != nil {
		return model.Doc[T]{}, err
	}

	d, err := c.docs.Create(ctx, c.name, rec)
	if err != nil {
		return model.Doc[T]{}, storeError(op, err)
	}

	c.hub.Publish(c.name)
	slog.Info("document created", "collection", c.name, "id", d.ID)
	return decode[T](d)
}

// Update replaces every field of the record with id.
func (c *Collection[T]) Update(ctx context.Context, id string, rec T) (model.Doc[T], error) {
	op := c.name + ".update"

	rec = c.prepare(rec)
	if err := rec.Validate(); err != nil {
		return model.Doc[T]{}, err
	}

	d, err := c.docs.Replace(ctx, c.name, id, rec)
	if err != nil {
		return model.Doc[T]{}, storeError(op, err)
	}

	c.hub.Publish(c.name)
	slog.Info("document updated", "collection", c.name, "id", id)
	return decode[T](d)
}

// Delete removes the record with id. Confirmation is the caller's concern.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := c.docs.Delete(ctx, c.name, id); err != nil {
		return storeError(c.name+".delete", err)
	}

	c.hub.Publish(c.name)
	slog.Info("document deleted", "collection", c.name, "id", id)
	return nil
}

// Get returns the record with id.
func (c *Collection[T]) Get(ctx context.Context, id string) (model.Doc[T], error) {
	d, err := c.docs.Get(ctx, c.name, id)
	if err != nil {
		return model.Doc[T]{}, storeError(c.name+".get", err)
	}
	return decode[T](d)
}

// List returns every record matching q. Stored documents that do not
// decode into valid records are logged and skipped.
func (c *Collection[T]) List(ctx context.Context, q store.Query) ([]model.Doc[T], error) {
	docs, err := c.docs.List(ctx, c.name, q)
	if err != nil {
		return nil, storeError(c.name+".list", err)
	}

	out := make([]model.Doc[T], 0, len(docs))
	for _, d := range docs {
		rec, err := decode[T](d)
		if err != nil {
			slog.Warn("skipping malformed document",
				"collection", c.name, "id", d.ID, "error", err, "category", model.LogCategoryContent)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Watch returns a handle delivering the records matching q now and after
// every change to the collection.
func (c *Collection[T]) Watch(ctx context.Context, q store.Query) *Watch[T] {
	return newWatch(ctx, c.hub, c.name, func(ctx context.Context) ([]model.Doc[T], error) {
		return c.List(ctx, q)
	})
}

func decode[T model.Record](d store.Document) (model.Doc[T], error) {
	var rec T
	if err := json.Unmarshal(d.Data, &rec); err != nil {
		return model.Doc[T]{}, fmt.Errorf("decoding %s/%s: %w", d.Collection, d.ID, err)
	}
	if err := rec.Validate(); err != nil {
		return model.Doc[T]{}, fmt.Errorf("decoding %s/%s: %w", d.Collection, d.ID, err)
	}
	return model.Doc[T]{ID: d.ID, Data: rec, CreateTime: d.CreateTime, UpdateTime: d.UpdateTime}, nil
}

// storeError converts a store failure into a domain error.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotConfigured):
		e := model.NotConfiguredError(op)
		e.Err = err
		return e
	case errors.Is(err, store.ErrConflict):
		return &model.Error{Kind: model.KindUniquenessConflict, Op: op, Message: "A record with this key already exists.", Err: err}
	case errors.Is(err, store.ErrNotFound):
		return &model.Error{Kind: model.KindRemoteOperation, Op: op, Message: "Record not found.", Err: err}
	default:
		return model.RemoteError(op, err)
	}
}
