package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-rfq-backend/internal/observability"
)

type job struct {
	ctx       context.Context
	eventType string
	payload   any
}

// Async decouples callers from a slow Sender with a bounded queue drained by
// a fixed set of workers. When the queue is full the event is dropped.
type Async struct {
	next Sender
	ch   chan job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewAsync starts workers goroutines delivering to next.
func NewAsync(next Sender, size, workers int) *Async {
	if size < 1 {
		size = 1
	}
	if workers < 1 {
		workers = 1
	}
	a := &Async{next: next, ch: make(chan job, size)}
	a.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go a.run()
	}
	return a
}

// SendEvent implements Sender. The request context's values are kept but its
// cancellation is not, so a finished request does not abort delivery.
func (a *Async) SendEvent(ctx context.Context, eventType string, payload any) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		observability.NotificationDropped("closed")
		return
	}
	select {
	case a.ch <- job{ctx: context.WithoutCancel(ctx), eventType: eventType, payload: payload}:
	default:
		log.Warn().Str("event", eventType).Msg("notify: queue full, dropping event")
		observability.NotificationDropped("queue_full")
	}
}

// Close stops accepting events and waits for queued ones to be delivered or
// for ctx to end.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.ch)
	}
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Async) run() {
	defer a.wg.Done()
	for j := range a.ch {
		a.deliver(j)
	}
}

func (a *Async) deliver(j job) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("event", j.eventType).Msg("notify: sender panicked")
			observability.NotificationDropped("panic")
		}
	}()
	a.next.SendEvent(j.ctx, j.eventType, j.payload)
}
