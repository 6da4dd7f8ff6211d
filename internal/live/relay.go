// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Relay forwards hub changes between instances over Redis pub/sub.
type Relay struct {
	client  *redis.Client
	channel string
	origin  string
	hub     *Hub
}

type relayMessage struct {
	Origin     string `json:"origin"`
	Collection string `json:"collection"`
}

// NewRelay creates a relay on the channel "<prefix>changes" and registers it
// as a publish hook on hub.
func NewRelay(client *redis.Client, prefix string, hub *Hub) *Relay {
	r := &Relay{
		client:  client,
		channel: prefix + "changes",
		origin:  uuid.NewString(),
		hub:     hub,
	}
	hub.OnPublish(r.publish)
	return r
}

// NewRelayFromURL parses a Redis URL and creates a relay.
func NewRelayFromURL(redisURL, prefix string, hub *Hub) (*Relay, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRelay(client, prefix, hub), nil
}

func (r *Relay) publish(collection string) {
	payload, err := json.Marshal(relayMessage{Origin: r.origin, Collection: collection})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		slog.Warn("relaying change failed", "collection", collection, "error", err, "category", "cache")
	}
}

// Run receives changes from other instances until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer func() { _ = pubsub.Close() }()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", r.channel, err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(msg.Payload)
		}
	}
}

func (r *Relay) handle(payload string) {
	var m relayMessage
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		slog.Warn("ignoring malformed relay message", "error", err, "category", "cache")
		return
	}
	if m.Origin == r.origin || m.Collection == "" {
		return
	}
	r.hub.Notify(m.Collection)
}

// Close releases the Redis client.
func (r *Relay) Close() error {
	return r.client.Close()
}
