package store

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxAttempts = 5
	baseBackoff        = 10 * time.Millisecond
	maxBackoff         = 200 * time.Millisecond
)

// Retry runs attempt until it succeeds, fails with something other than
// ErrConflict, or maxAttempts is reached.
func Retry(ctx context.Context, maxAttempts int, attempt func() error) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var err error
	for i := 1; i <= maxAttempts; i++ {
		err = attempt()
		if err == nil || !errors.Is(err, ErrConflict) {
			return err
		}
		if i == maxAttempts {
			break
		}

		log.Debug().Int("attempt", i).Msg("Transaction conflict, retrying")

		backoff := maxBackoff
		if i < 6 {
			backoff = baseBackoff << (i - 1)
		}
		backoff += time.Duration(rand.Int63n(int64(backoff)))
		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	log.Warn().Int("attempts", maxAttempts).Msg("Transaction conflict retries exhausted")
	return err
}
