package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ChannelPrefix is followed by the project ID
const ChannelPrefix = "notes:project:"

// envelope tags relayed events with the publishing instance so it can skip its own
type envelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// ConnectRedis parses redisURL and verifies the server answers
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

// RedisBroker relays hub events through Redis pub/sub so every instance's
// local clients see publishes made on any instance.
type RedisBroker struct {
	client *redis.Client
	hub    *Hub
	origin string
	logger *slog.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
	done   chan struct{}
}

// NewRedisBroker creates a broker delivering relayed events into hub
func NewRedisBroker(client *redis.Client, hub *Hub, logger *slog.Logger) *RedisBroker {
	return &RedisBroker{
		client: client,
		hub:    hub,
		origin: uuid.NewString(),
		logger: logger,
	}
}

// Publish sends event to the project's channel
func (b *RedisBroker) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(envelope{Origin: b.origin, Event: event})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.client.Publish(ctx, ChannelPrefix+event.ProjectID, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Start subscribes to every project channel and relays messages from other
// instances until Close. It returns once the subscription is confirmed.
func (b *RedisBroker) Start(ctx context.Context) error {
	pubsub := b.client.PSubscribe(ctx, ChannelPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	b.mu.Lock()
	b.pubsub = pubsub
	b.done = make(chan struct{})
	b.mu.Unlock()

	go b.relay(pubsub.Channel(), b.done)

	b.logger.Info("redis relay subscribed", "pattern", ChannelPrefix+"*", "origin", b.origin)
	return nil
}

func (b *RedisBroker) relay(messages <-chan *redis.Message, done chan struct{}) {
	defer close(done)

	for msg := range messages {
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			b.logger.Warn("dropping malformed relay message", "channel", msg.Channel, "error", err)
			continue
		}
		if env.Origin == b.origin {
			continue
		}

		projectID := strings.TrimPrefix(msg.Channel, ChannelPrefix)
		if env.Event.ProjectID != projectID {
			b.logger.Warn("relay message project mismatch",
				"channel", msg.Channel,
				"project_id", env.Event.ProjectID,
			)
			continue
		}
		b.hub.DeliverLocal(env.Event)
	}
}

// Close stops relaying and waits for the relay goroutine to exit
func (b *RedisBroker) Close() error {
	b.mu.Lock()
	pubsub, done := b.pubsub, b.done
	b.pubsub = nil
	b.mu.Unlock()

	if pubsub == nil {
		return nil
	}
	err := pubsub.Close()
	<-done
	return err
}
