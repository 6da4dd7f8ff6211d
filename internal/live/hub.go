// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package live fans out collection change notifications to subscribers.
//
// A Hub is notified after every successful write to a collection. Each
// Subscription owns a one-slot channel: notifications coalesce while the
// consumer is busy, so writers never block and a consumer that wakes up
// reads the latest state once.
package live

import (
	"context"
	"slices"
	"sync"
)

// Hub routes change notifications to subscriptions by collection.
type Hub struct {
	mu    sync.Mutex
	subs        map[string]map[*Subscription]struct{}
	hooks       []func(collection string)
	changeHooks []func(collection string)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// OnPublish registers fn to run after every local Publish. Hooks run
// synchronously in registration order and must not block.
func (h *Hub) OnPublish(fn func(collection string)) {
	h.mu.Lock()
	h.hooks = append(h.hooks, fn)
	h.mu.Unlock()
}

// OnChange registers fn to run on every change, local or relayed, before
// subscribers are woken. Hooks run synchronously and must not block.
func (h *Hub) OnChange(fn func(collection string)) {
	h.mu.Lock()
	h.changeHooks = append(h.changeHooks, fn)
	h.mu.Unlock()
}

// Publish reports a change to collection made by this process. Subscribers
// are notified and publish hooks run.
func (h *Hub) Publish(collection string) {
	h.Notify(collection)

	h.mu.Lock()
	hooks := slices.Clone(h.hooks)
	h.mu.Unlock()

	for _, fn := range hooks {
		fn(collection)
	}
}

// Notify runs change hooks and wakes subscribers of collection without
// running publish hooks.
// It is used for changes relayed from other instances.
func (h *Hub) Notify(collection string) {
	h.mu.Lock()
	hooks := slices.Clone(h.changeHooks)
	h.mu.Unlock()

	for _, fn := range hooks {
		fn(collection)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs[collection] {
		s.signal(collection)
	}
}

// Subscribe returns a subscription to changes of the given collections.
// The subscription ends when Close is called or ctx is done.
func (h *Hub) Subscribe(ctx context.Context, collections ...string) *Subscription {
	s := &Subscription{
		hub:         h,
		collections: slices.Compact(slices.Sorted(slices.Values(collections))),
		ch:          make(chan struct{}, 1),
		done:        make(chan struct{}),
		pending:     make(map[string]struct{}),
	}

	h.mu.Lock()
	for _, c := range s.collections {
		if h.subs[c] == nil {
			h.subs[c] = make(map[*Subscription]struct{})
		}
		h.subs[c][s] = struct{}{}
	}
	h.mu.Unlock()

	s.stop = context.AfterFunc(ctx, s.Close)
	return s
}

// Subscribers returns the number of open subscriptions to collection.
func (h *Hub) Subscribers(collection string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[collection])
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range s.collections {
		delete(h.subs[c], s)
		if len(h.subs[c]) == 0 {
			delete(h.subs, c)
		}
	}
}

// Subscription is a scoped handle on a set of collections.
type Subscription struct {
	hub         *Hub
	collections []string
	ch          chan struct{}
	done        chan struct{}
	stop        func() bool
	once        sync.Once

	mu      sync.Mutex
	pending map[string]struct{}
}

func (s *Subscription) signal(collection string) {
	s.mu.Lock()
	s.pending[collection] = struct{}{}
	s.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// C returns the channel that receives a value when any subscribed
// collection changed since the last Changed call.
func (s *Subscription) C() <-chan struct{} { return s.ch }

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Collections returns the subscribed collections.
func (s *Subscription) Collections() []string { return slices.Clone(s.collections) }

// Changed returns and clears the set of collections changed since the last call.
func (s *Subscription) Changed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := make([]string, 0, len(s.pending))
	for c := range s.pending {
		changed = append(changed, c)
	}
	clear(s.pending)
	slices.Sort(changed)
	return changed
}

// Close ends the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
		s.hub.remove(s)
		close(s.done)
	})
}
