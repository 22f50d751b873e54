package sweep

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const runTimeout = 2 * time.Minute

// Clock is the time source of the worker
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Locker keeps replicas from sweeping the same day twice
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Worker runs the sweeper once a day at a fixed UTC time
type Worker struct {
	sweeper *Sweeper
	hour    int
	minute  int
	clock   Clock
	locker  Locker
	lockTTL time.Duration

	stopCh chan struct{}
	done   chan struct{}
	once   sync.Once
}

// WorkerOption configures Worker
type WorkerOption func(*Worker)

// WithClock replaces the system clock
func WithClock(c Clock) WorkerOption {
	return func(w *Worker) { w.clock = c }
}

// WithLocker guards each daily run with a distributed lock
func WithLocker(l Locker, ttl time.Duration) WorkerOption {
	return func(w *Worker) {
		w.locker = l
		w.lockTTL = ttl
	}
}

// NewWorker creates a worker firing daily at at, formatted "HH:MM" in UTC
func NewWorker(sweeper *Sweeper, at string, opts ...WorkerOption) (*Worker, error) {
	hour, minute, err := ParseTimeOfDay(at)
	if err != nil {
		return nil, err
	}
	w := &Worker{
		sweeper: sweeper,
		hour:    hour,
		minute:  minute,
		clock:   systemClock{},
		lockTTL: 10 * time.Minute,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins the background worker
func (w *Worker) Start() {
	log.Info().Msgf("Starting visibility sweeper (daily at %02d:%02d UTC)...", w.hour, w.minute)
	go w.loop()
}

// Stop gracefully stops the background worker and waits for it
func (w *Worker) Stop() {
	w.once.Do(func() {
		log.Info().Msg("Stopping visibility sweeper...")
		close(w.stopCh)
	})
	<-w.done
}

func (w *Worker) loop() {
	defer close(w.done)

	for {
		now := w.clock.Now().UTC()
		next := NextRun(now, w.hour, w.minute)

		select {
		case <-w.clock.After(next.Sub(now)):
			w.runOnce(next)
		case <-w.stopCh:
			return
		}
	}
}

// runOnce sweeps for the day of scheduled; returns false if skipped
func (w *Worker) runOnce(scheduled time.Time) bool {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if w.locker != nil {
		key := "sweep:visibility:" + scheduled.Format("2006-01-02")
		ok, err := w.locker.Acquire(ctx, key, w.lockTTL)
		if err != nil {
			log.Error().Err(err).Str("lock", key).Msg("Failed to acquire sweep lock")
			return false
		}
		if !ok {
			log.Debug().Str("lock", key).Msg("Sweep already running elsewhere")
			return false
		}
	}

	if _, err := w.sweeper.Run(ctx, w.clock.Now()); err != nil {
		log.Error().Err(err).Msg("Visibility sweep failed")
		return false
	}
	return true
}

// NextRun returns the first hour:minute UTC strictly after now
func NextRun(now time.Time, hour, minute int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// ParseTimeOfDay parses "HH:MM"
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}
