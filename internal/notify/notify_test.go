package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-rfq-backend/internal/config"
	"github.com/tbourn/go-rfq-backend/internal/domain"
)

type published struct {
	channel string
	message []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.msgs = append(f.msgs, published{channel: channel, message: message.([]byte)})
	cmd.SetVal(1)
	return cmd
}

type collector struct {
	mu     sync.Mutex
	events []string
}

func (c *collector) SendEvent(_ context.Context, typ string, _ any) {
	c.mu.Lock()
	c.events = append(c.events, typ)
	c.mu.Unlock()
}

func (c *collector) got() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}

func TestRedisDispatcher_PublishesEnvelope(t *testing.T) {
	pub := &fakePublisher{}
	fixed := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	d := &RedisDispatcher{client: pub, channel: "rfq.events", now: func() time.Time { return fixed }}

	d.SendEvent(context.Background(), domain.EventQuotationAccepted, domain.QuotationEvent{
		QuotationID: "q1", RFQID: "r1", BuyerID: "b1", VendorID: "v1", Status: domain.QuotationAccepted,
	})

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "rfq.events", pub.msgs[0].channel)

	var env struct {
		ID         string                `json:"id"`
		Type       string                `json:"type"`
		OccurredAt time.Time             `json:"occurred_at"`
		Payload    domain.QuotationEvent `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(pub.msgs[0].message, &env))
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, domain.EventQuotationAccepted, env.Type)
	assert.True(t, env.OccurredAt.Equal(fixed))
	assert.Equal(t, "v1", env.Payload.VendorID)
	assert.Equal(t, domain.QuotationAccepted, env.Payload.Status)
}

func TestRedisDispatcher_FailuresAreSwallowed(t *testing.T) {
	d := &RedisDispatcher{client: &fakePublisher{err: errors.New("down")}, channel: "c", now: time.Now}
	assert.NotPanics(t, func() {
		d.SendEvent(context.Background(), "rfq.created", map[string]string{"rfq_id": "r1"})
	})

	// Unencodable payloads are dropped before reaching Redis.
	pub := &fakePublisher{}
	d = &RedisDispatcher{client: pub, channel: "c", now: time.Now}
	d.SendEvent(context.Background(), "rfq.created", func() {})
	assert.Empty(t, pub.msgs)
}

func TestLogDispatcher_WritesEvent(t *testing.T) {
	var buf bytes.Buffer
	d := &LogDispatcher{Logger: zerolog.New(&buf)}
	d.SendEvent(context.Background(), domain.EventRFQClosed, domain.RFQEvent{RFQID: "r1", Status: domain.RFQClosed})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "rfq.closed", line["event"])
	assert.Equal(t, "notification", line["message"])
	payload, ok := line["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "r1", payload["rfq_id"])
}

func TestAsync_DeliversInOrderAndDrainsOnClose(t *testing.T) {
	c := &collector{}
	a := NewAsync(c, 16, 1)
	for _, typ := range []string{"a", "b", "c"} {
		a.SendEvent(context.Background(), typ, nil)
	}
	require.NoError(t, a.Close(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, c.got())

	// Sends after Close are dropped rather than panicking on a closed channel.
	assert.NotPanics(t, func() { a.SendEvent(context.Background(), "late", nil) })
	assert.Len(t, c.got(), 3)
	require.NoError(t, a.Close(context.Background()))
}

type gatedSender struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	collector
}

func (g *gatedSender) SendEvent(ctx context.Context, typ string, p any) {
	g.once.Do(func() {
		close(g.started)
		<-g.release
	})
	g.collector.SendEvent(ctx, typ, p)
}

func TestAsync_DropsWhenQueueFull(t *testing.T) {
	g := &gatedSender{started: make(chan struct{}), release: make(chan struct{})}
	a := NewAsync(g, 1, 1)

	a.SendEvent(context.Background(), "first", nil)
	<-g.started // worker is busy with "first"
	a.SendEvent(context.Background(), "queued", nil)
	a.SendEvent(context.Background(), "dropped", nil)

	close(g.release)
	require.NoError(t, a.Close(context.Background()))
	assert.Equal(t, []string{"first", "queued"}, g.got())
}

type panicky struct{ collector }

func (p *panicky) SendEvent(ctx context.Context, typ string, payload any) {
	if typ == "boom" {
		panic("boom")
	}
	p.collector.SendEvent(ctx, typ, payload)
}

func TestAsync_RecoversFromSenderPanic(t *testing.T) {
	p := &panicky{}
	a := NewAsync(p, 4, 1)
	a.SendEvent(context.Background(), "boom", nil)
	a.SendEvent(context.Background(), "after", nil)
	require.NoError(t, a.Close(context.Background()))
	assert.Equal(t, []string{"after"}, p.got())
}

func TestAsync_SurvivesCancelledRequestContext(t *testing.T) {
	c := &collector{}
	a := NewAsync(c, 4, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a.SendEvent(ctx, "x", nil)
	require.NoError(t, a.Close(context.Background()))
	assert.Equal(t, []string{"x"}, c.got())
}

func TestAsync_CloseHonoursDeadline(t *testing.T) {
	g := &gatedSender{started: make(chan struct{}), release: make(chan struct{})}
	a := NewAsync(g, 1, 1)
	a.SendEvent(context.Background(), "stuck", nil)
	<-g.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, a.Close(ctx), context.DeadlineExceeded)
	close(g.release)
}

func TestFromConfig(t *testing.T) {
	s, closer, err := FromConfig(context.Background(), config.NotifyConfig{Driver: "none"})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, s)
	require.NoError(t, closer.Close())

	s, closer, err = FromConfig(context.Background(), config.NotifyConfig{Driver: "log", QueueSize: 4, Workers: 1})
	require.NoError(t, err)
	assert.IsType(t, &Async{}, s)
	require.NoError(t, closer.Close())

	_, _, err = FromConfig(context.Background(), config.NotifyConfig{Driver: "sns"})
	assert.Error(t, err)

	_, _, err = FromConfig(context.Background(), config.NotifyConfig{Driver: "redis", RedisAddr: "127.0.0.1:1", QueueSize: 1, Workers: 1})
	assert.Error(t, err)
}
