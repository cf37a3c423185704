package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-rfq-backend/internal/observability"
)

// publisher is the slice of *redis.Client the dispatcher uses.
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisDispatcher publishes JSON envelopes on a Redis Pub/Sub channel.
type RedisDispatcher struct {
	client  publisher
	channel string
	now     func() time.Time
}

// NewRedisDispatcher creates a dispatcher on an existing client. The caller
// retains ownership of the client.
func NewRedisDispatcher(client *redis.Client, channel string) *RedisDispatcher {
	return &RedisDispatcher{client: client, channel: channel, now: time.Now}
}

// SendEvent implements Sender. Failures are logged and counted, never
// returned.
func (d *RedisDispatcher) SendEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(newEnvelope(eventType, payload, d.now()))
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("notify: marshal envelope")
		observability.NotificationDropped("encode")
		return
	}
	if err := d.client.Publish(ctx, d.channel, data).Err(); err != nil {
		log.Warn().Err(err).Str("event", eventType).Str("channel", d.channel).Msg("notify: publish failed")
		observability.NotificationDropped("publish")
	}
}
