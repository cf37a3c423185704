// Package scheduler runs background maintenance on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-rfq-backend/internal/services"
)

// ErrAlreadyRunning is returned by RunOnce while another sweep is in flight.
var ErrAlreadyRunning = errors.New("expiry sweep already running")

// Sweeper is the sweep operation driven by ExpirySweeper.
type Sweeper interface {
	ExpirySweep(ctx context.Context, now time.Time) (services.SweepResult, error)
}

// clocked is implemented by sweepers that keep their own clock.
type clocked interface {
	CurrentTime() time.Time
}

// ExpirySweeper triggers the expiry sweep on a schedule. At most one sweep
// runs at a time; ticks that arrive while a sweep is running are skipped.
type ExpirySweeper struct {
	svc     Sweeper
	timeout time.Duration
	now     func() time.Time

	cron    *cron.Cron
	running atomic.Bool
}

// NewExpirySweeper schedules svc according to schedule, which is a standard
// five-field cron spec or a descriptor such as "@every 1m". An empty schedule
// yields a sweeper that only runs through RunOnce. Each run is bound by
// timeout when it is positive. When svc has a CurrentTime method, sweeps read
// the time from it.
func NewExpirySweeper(svc Sweeper, schedule string, timeout time.Duration) (*ExpirySweeper, error) {
	s := &ExpirySweeper{
		svc:     svc,
		timeout: timeout,
		now:     time.Now,
	}
	if c, ok := svc.(clocked); ok {
		s.now = c.CurrentTime
	}
	s.cron = cron.New(
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.Recover(cronLogger{})),
	)
	if schedule == "" {
		return s, nil
	}
	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins scheduling in the background.
func (s *ExpirySweeper) Start() {
	s.cron.Start()
	log.Info().Msg("expiry sweeper started")
}

// Stop stops scheduling and waits for a running sweep to finish or ctx to end.
func (s *ExpirySweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce sweeps immediately with the current time. It fails with
// ErrAlreadyRunning while a scheduled or manual sweep is in flight.
func (s *ExpirySweeper) RunOnce(ctx context.Context) (services.SweepResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return services.SweepResult{}, ErrAlreadyRunning
	}
	defer s.running.Store(false)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.svc.ExpirySweep(ctx, s.now().UTC())
}

func (s *ExpirySweeper) tick() {
	start := time.Now()
	res, err := s.RunOnce(context.Background())
	switch {
	case errors.Is(err, ErrAlreadyRunning):
		log.Warn().Msg("previous expiry sweep still running; skipping")
	case err != nil:
		log.Error().Err(err).Dur("took", time.Since(start)).Msg("expiry sweep failed")
	default:
		log.Debug().
			Int("rfqs_expired", res.RFQsExpired).
			Int("quotations_expired", res.QuotationsExpired).
			Int("failed", res.Failed).
			Int64("idempotency_purged", res.IdempotencyPurged).
			Dur("took", time.Since(start)).
			Msg("expiry sweep tick")
	}
}

// cronLogger routes cron's own logging into zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
