package gate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/acm-mitb/acm-site/internal/content"
	"github.com/acm-mitb/acm-site/internal/model"
	"github.com/acm-mitb/acm-site/internal/store"
)

// Console manager names.
const (
	ManagerSponsors   = "sponsors"
	ManagerEvents     = "events"
	ManagerCarousel   = "carousel"
	ManagerEventsPage = "eventsPage"
	ManagerStories    = "stories"
	ManagerNews       = "news"
)

// Managers lists the console managers in display order.
var Managers = []string{
	ManagerSponsors,
	ManagerEvents,
	ManagerCarousel,
	ManagerEventsPage,
	ManagerStories,
	ManagerNews,
}

// Update is one snapshot delivered to the console.
type Update struct {
	Manager    string `json:"manager"`
	Collection string `json:"collection"`
	Docs       any    `json:"docs"`
	Err        error  `json:"-"`
	Error      string `json:"error,omitempty"`
}

// Console holds the live subscriptions of an authorized Townhall session.
// Every subscription is released by Close or when the context ends.
type Console struct {
	ch     chan Update
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}
	once   sync.Once
}

// OpenConsole mounts the console subscriptions for d. Nothing is
// subscribed unless d is authorized.
func OpenConsole(ctx context.Context, d Decision, site *content.Site) (*Console, error) {
	if !d.Authorized() {
		msg := "Sign in to use Townhall."
		if d.Message != "" {
			msg = d.Message
		}
		return nil, model.AuthorizationError(msg)
	}

	ctx, cancel := context.WithCancel(ctx)
	c := &Console{
		ch:     make(chan Update),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	c.wg.Add(7)
	go forward(ctx, c, ManagerSponsors, site.Sponsors.Watch(ctx, content.SponsorsQuery()))
	go forward(ctx, c, ManagerEvents, site.Events.Watch(ctx, store.Query{}))
	go forward(ctx, c, ManagerCarousel, site.Carousel.Watch(ctx, content.OrderedQuery()))
	go forward(ctx, c, ManagerEventsPage, site.PageEvents.Watch(ctx, content.PageEventsQuery()))
	go forward(ctx, c, ManagerEventsPage, site.Countdown.Watch(ctx))
	go forward(ctx, c, ManagerStories, site.Stories.Watch(ctx, store.Query{}))
	go forward(ctx, c, ManagerNews, site.News.Watch(ctx, store.Query{}))

	go func() {
		c.wg.Wait()
		close(c.ch)
		close(c.done)
	}()

	if d.Identity != nil {
		slog.Debug("townhall console opened", "uid", d.Identity.UID)
	}
	return c, nil
}

func forward[T any](ctx context.Context, c *Console, manager string, w *content.Watch[T]) {
	defer c.wg.Done()
	defer w.Close()

	for {
		select {
		case snap, ok := <-w.C():
			if !ok {
				return
			}
			docs := snap.Docs
			if docs == nil {
				docs = []model.Doc[T]{}
			}
			u := Update{Manager: manager, Collection: snap.Collection, Docs: docs, Err: snap.Err}
			if snap.Err != nil {
				u.Error = model.MessageOf(snap.Err)
			}
			select {
			case c.ch <- u:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// C receives snapshots from every manager. It is closed once the console
// is released.
func (c *Console) C() <-chan Update { return c.ch }

// Close releases every subscription and waits for them to end. It is safe
// to call more than once.
func (c *Console) Close() {
	c.once.Do(c.cancel)
	<-c.done
}
