package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/acm-mitb/acm-site/internal/model"
)

// Seed creates initial documents when doSeed is true. Existing documents are
// left untouched.
func Seed(ctx context.Context, docs Documents, doSeed bool) error {
	if !doSeed {
		return nil
	}

	_, err := docs.Insert(ctx, model.CollectionEventsPage, model.CountdownID, model.DefaultCountdown())
	switch {
	case errors.Is(err, ErrConflict):
		slog.Info("countdown already exists, skipping seed")
	case err != nil:
		return fmt.Errorf("seeding countdown: %w", err)
	default:
		slog.Info("seeded default countdown", "title", model.DefaultCountdownTitle)
	}

	return nil
}
