// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/acm-mitb/acm-site/internal/live"
	"github.com/acm-mitb/acm-site/internal/model"
	"github.com/acm-mitb/acm-site/internal/store"
)

const orderField = "order"

// MsgTooManyLive is returned when a seventh carousel event is set live.
var MsgTooManyLive = fmt.Sprintf("Only %d events can be live at a time.", model.MaxLiveCarouselEvents)

// Carousel manages the nextEvents collection and its display order.
type Carousel struct {
	*Collection[model.CarouselEvent]

	// mu serialises writes that read the collection first: order
	// assignment, the live cap and compaction after delete.
	mu sync.Mutex
}

// NewCarousel creates the carousel manager.
func NewCarousel(docs store.Documents, hub *live.Hub) *Carousel {
	return &Carousel{
		Collection: NewCollection(model.CollectionNextEvents, docs, hub, prepareCarouselEvent),
	}
}

// OrderedQuery lists carousel events by display order.
func OrderedQuery() store.Query {
	return store.Query{}.Order(orderField, false)
}

// Create stores e, appending it after the last event when it has no order.
func (c *Carousel) Create(ctx context.Context, e model.CarouselEvent) (model.Doc[model.CarouselEvent], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e = prepareCarouselEvent(e)
	if err := e.Validate(); err != nil {
		return model.Doc[model.CarouselEvent]{}, err
	}

	existing, err := c.List(ctx, OrderedQuery())
	if err != nil {
		return model.Doc[model.CarouselEvent]{}, err
	}
	if err := checkLiveCap(existing, "", e); err != nil {
		return model.Doc[model.CarouselEvent]{}, err
	}
	if e.Order == 0 {
		e.Order = nextOrder(existing)
	}

	return c.Collection.Create(ctx, e)
}

// Update replaces the event with id, keeping the live cap.
func (c *Carousel) Update(ctx context.Context, id string, e model.CarouselEvent) (model.Doc[model.CarouselEvent], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e = prepareCarouselEvent(e)
	if err := e.Validate(); err != nil {
		return model.Doc[model.CarouselEvent]{}, err
	}

	existing, err := c.List(ctx, OrderedQuery())
	if err != nil {
		return model.Doc[model.CarouselEvent]{}, err
	}
	if err := checkLiveCap(existing, id, e); err != nil {
		return model.Doc[model.CarouselEvent]{}, err
	}
	if e.Order == 0 {
		for _, d := range existing {
			if d.ID == id {
				e.Order = d.Data.Order
			}
		}
	}

	return c.Collection.Update(ctx, id, e)
}

// Delete removes the event with id and closes the gap it leaves in the order.
func (c *Carousel) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed, err := c.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := c.Collection.Delete(ctx, id); err != nil {
		return err
	}

	rest, err := c.List(ctx, OrderedQuery())
	if err != nil {
		return err
	}
	for _, d := range rest {
		if d.Data.Order <= removed.Data.Order {
			continue
		}
		d.Data.Order--
		if _, err := c.docs.Replace(ctx, c.name, d.ID, d.Data); err != nil {
			return storeError(c.name+".reorder", err)
		}
	}
	c.hub.Publish(c.name)
	return nil
}

// MoveUp swaps the event with the one displayed before it. It reports false
// when the event is already first.
func (c *Carousel) MoveUp(ctx context.Context, id string) (bool, error) {
	return c.move(ctx, id, -1)
}

// MoveDown swaps the event with the one displayed after it. It reports
// false when the event is already last.
func (c *Carousel) MoveDown(ctx context.Context, id string) (bool, error) {
	return c.move(ctx, id, 1)
}

func (c *Carousel) move(ctx context.Context, id string, delta int) (bool, error) {
	swapped, err := c.docs.SwapAdjacent(ctx, c.name, id, orderField, delta)
	if err != nil {
		return false, storeError(c.name+".move", err)
	}
	if swapped {
		c.hub.Publish(c.name)
		slog.Info("carousel event moved", "id", id, "delta", delta)
	}
	return swapped, nil
}

// Visible returns the events the homepage shows, in display order.
func (c *Carousel) Visible(ctx context.Context) ([]model.Doc[model.CarouselEvent], error) {
	all, err := c.List(ctx, OrderedQuery())
	if err != nil {
		return nil, err
	}
	return visibleEvents(all), nil
}

// Audit reports the problems in the stored order: duplicates and gaps in
// the 1..N sequence. An empty result means the order is dense.
func (c *Carousel) Audit(ctx context.Context) ([]string, error) {
	all, err := c.List(ctx, OrderedQuery())
	if err != nil {
		return nil, err
	}
	return auditOrder(all), nil
}

func visibleEvents(all []model.Doc[model.CarouselEvent]) []model.Doc[model.CarouselEvent] {
	out := make([]model.Doc[model.CarouselEvent], 0, len(all))
	for _, d := range all {
		if d.Data.Visible() {
			out = append(out, d)
		}
	}
	return out
}

func auditOrder(all []model.Doc[model.CarouselEvent]) []string {
	var problems []string
	seen := make(map[int]string, len(all))
	for _, d := range all {
		if other, dup := seen[d.Data.Order]; dup {
			problems = append(problems, fmt.Sprintf("order %d shared by %s and %s", d.Data.Order, other, d.ID))
			continue
		}
		seen[d.Data.Order] = d.ID
	}
	for i := 1; i <= len(all); i++ {
		if _, ok := seen[i]; !ok {
			problems = append(problems, fmt.Sprintf("order %d missing", i))
		}
	}
	return problems
}

func nextOrder(existing []model.Doc[model.CarouselEvent]) int {
	highest := len(existing)
	for _, d := range existing {
		highest = max(highest, d.Data.Order)
	}
	return highest + 1
}

func checkLiveCap(existing []model.Doc[model.CarouselEvent], id string, e model.CarouselEvent) error {
	if e.Status != model.CarouselStatusLive {
		return nil
	}
	live := 0
	for _, d := range existing {
		if d.ID != id && d.Data.Status == model.CarouselStatusLive {
			live++
		}
	}
	if live >= model.MaxLiveCarouselEvents {
		return &model.Error{
			Kind:    model.KindValidation,
			Op:      model.CollectionNextEvents + ".validate",
			Message: MsgTooManyLive,
			Fields:  map[string]string{"status": MsgTooManyLive},
		}
	}
	return nil
}
