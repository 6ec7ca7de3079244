package realtime

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Broadcaster is the live-update channel. It is injected everywhere it
// is needed; nothing in the core holds a shared global instance. Emits
// are best-effort and must never block or fail the calling operation.
type Broadcaster interface {
	Emit(ctx context.Context, topic string, payload interface{}) error
}

// NewRedisClient initializes and returns a Redis client.
func NewRedisClient(redisURL string) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Invalid Redis URL: %v", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	return client
}

// RedisBroadcaster publishes events on a Redis pub/sub channel consumed
// by the websocket fan-out service.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
}

func NewRedisBroadcaster(client *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, channel: channel}
}

type envelope struct {
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
}

func (b *RedisBroadcaster) Emit(ctx context.Context, topic string, payload interface{}) error {
	data, err := json.Marshal(envelope{Topic: topic, Payload: payload})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, data).Err()
}
