package store

import (
	"context"
	"fmt"
)

// Inert is the document store used when the backend is not configured.
// Reads succeed with nothing in them and writes fail with ErrNotConfigured,
// so the site renders while every data feature stays off.
type Inert struct{}

// Create implements Documents.
func (Inert) Create(context.Context, string, any) (Document, error) {
	return Document{}, ErrNotConfigured
}

// Insert implements Documents.
func (Inert) Insert(context.Context, string, string, any) (Document, error) {
	return Document{}, ErrNotConfigured
}

// Set implements Documents.
func (Inert) Set(context.Context, string, string, any) (Document, error) {
	return Document{}, ErrNotConfigured
}

// Replace implements Documents.
func (Inert) Replace(context.Context, string, string, any) (Document, error) {
	return Document{}, ErrNotConfigured
}

// Get implements Documents.
func (Inert) Get(_ context.Context, collection, id string) (Document, error) {
	return Document{}, fmt.Errorf("getting %s/%s: %w", collection, id, ErrNotFound)
}

// List implements Documents.
func (Inert) List(context.Context, string, Query) ([]Document, error) {
	return nil, nil
}

// Delete implements Documents.
func (Inert) Delete(context.Context, string, string) error {
	return ErrNotConfigured
}

// SwapAdjacent implements Documents.
func (Inert) SwapAdjacent(context.Context, string, string, string, int) (bool, error) {
	return false, ErrNotConfigured
}

var _ Documents = Inert{}
