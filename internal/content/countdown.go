package content

import (
	"context"
	"errors"

	"github.com/acm-mitb/acm-site/internal/live"
	"github.com/acm-mitb/acm-site/internal/model"
	"github.com/acm-mitb/acm-site/internal/store"
)

// Countdown manages the eventsPage/countdown singleton.
type Countdown struct {
	docs store.Documents
	hub  *live.Hub
}

// NewCountdown creates the countdown manager.
func NewCountdown(docs store.Documents, hub *live.Hub) *Countdown {
	return &Countdown{docs: docs, hub: hub}
}

// Get returns the stored countdown, or the default one when none was saved.
func (c *Countdown) Get(ctx context.Context) (model.Countdown, error) {
	d, err := c.docs.Get(ctx, model.CollectionEventsPage, model.CountdownID)
	if errors.Is(err, store.ErrNotFound) {
		return model.DefaultCountdown(), nil
	}
	if err != nil {
		return model.DefaultCountdown(), storeError("countdown.get", err)
	}

	doc, err := decode[model.Countdown](d)
	if err != nil {
		return model.DefaultCountdown(), model.RemoteError("countdown.get", err)
	}
	return doc.Data, nil
}

// Set validates cd and overwrites the singleton. TargetDate is stored as given.
func (c *Countdown) Set(ctx context.Context, cd model.Countdown) (model.Countdown, error) {
	cd = prepareCountdown(cd)
	if err := cd.Validate(); err != nil {
		return model.Countdown{}, err
	}

	if _, err := c.docs.Set(ctx, model.CollectionEventsPage, model.CountdownID, cd); err != nil {
		return model.Countdown{}, storeError("countdown.set", err)
	}

	c.hub.Publish(model.CollectionEventsPage)
	return cd, nil
}

// Watch delivers the countdown now and after every change. The snapshot
// holds exactly one document.
func (c *Countdown) Watch(ctx context.Context) *Watch[model.Countdown] {
	return newWatch(ctx, c.hub, model.CollectionEventsPage, func(ctx context.Context) ([]model.Doc[model.Countdown], error) {
		cd, err := c.Get(ctx)
		return []model.Doc[model.Countdown]{{ID: model.CountdownID, Data: cd}}, err
	})
}
