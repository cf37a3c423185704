// Package notify publishes negotiation events to interested parties once the
// state change that produced them has committed.
//
// Delivery is best effort. A Sender never returns an error to the caller and
// never blocks a request on the network: the Async wrapper queues events and
// hands them to a worker pool, dropping (and counting) what it cannot queue.
package notify

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-rfq-backend/internal/config"
)

// Sender delivers one event. It has the same method set as
// services.Notifier, so every dispatcher here can be handed to the services.
type Sender interface {
	SendEvent(ctx context.Context, eventType string, payload any)
}

// Envelope is the wire form of a published event.
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func newEnvelope(eventType string, payload any, now time.Time) Envelope {
	return Envelope{ID: uuid.NewString(), Type: eventType, OccurredAt: now.UTC(), Payload: payload}
}

// Nop discards every event.
type Nop struct{}

// SendEvent implements Sender.
func (Nop) SendEvent(context.Context, string, any) {}

// LogDispatcher writes events to a zerolog logger. It is the default driver
// in development.
type LogDispatcher struct {
	Logger zerolog.Logger
}

// NewLogDispatcher returns a LogDispatcher on the global logger.
func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{Logger: log.Logger.With().Str("component", "notify").Logger()}
}

// SendEvent implements Sender.
func (d *LogDispatcher) SendEvent(_ context.Context, eventType string, payload any) {
	d.Logger.Info().
		Str("event", eventType).
		Interface("payload", payload).
		Msg("notification")
}

// FromConfig builds the configured Sender wrapped in an Async queue. The
// returned closer drains the queue and releases the Redis client, if any.
func FromConfig(ctx context.Context, cfg config.NotifyConfig) (Sender, io.Closer, error) {
	var (
		next   Sender
		client *redis.Client
	)
	switch cfg.Driver {
	case "none":
		return Nop{}, closerFunc(func() error { return nil }), nil
	case "log", "":
		next = NewLogDispatcher()
	case "redis":
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("notify: connect redis %s: %w", cfg.RedisAddr, err)
		}
		next = NewRedisDispatcher(client, cfg.Channel)
	default:
		return nil, nil, fmt.Errorf("notify: unknown driver %q", cfg.Driver)
	}

	a := NewAsync(next, cfg.QueueSize, cfg.Workers)
	return a, closerFunc(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := a.Close(ctx)
		if client != nil {
			if cerr := client.Close(); err == nil {
				err = cerr
			}
		}
		return err
	}), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
