// Package retry implements the hook/body retry policy: a bounded number of
// attempts with an explicit retryability predicate. The default policy
// retries every error except fatal configuration errors, which must surface
// immediately.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// FatalError marks an error that must never be retried and aborts the whole
// run, such as a registration or configuration error.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return "fatal: " + e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal wraps an error as fatal. A nil error stays nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal reports whether the error chain contains a fatal error.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// Policy bounds retries for one operation.
type Policy struct {
	// MaxAttempts is the total attempt budget, including the first try.
	MaxAttempts int

	// IsRetryable decides whether a failed attempt consumes budget or
	// aborts immediately.
	IsRetryable func(error) bool

	// Delay is the pause between attempts. Zero retries immediately.
	Delay time.Duration
}

// NewPolicy returns the default policy for the given extra retry count: a
// budget of retries+1 attempts retrying everything except fatal errors.
func NewPolicy(retries int) Policy {
	if retries < 0 {
		retries = 0
	}
	return Policy{
		MaxAttempts: retries + 1,
		IsRetryable: func(err error) bool { return !IsFatal(err) },
	}
}

// Do runs fn until it succeeds, the attempt budget is exhausted, a
// non-retryable error occurs, or the context is cancelled. It returns the
// last error. Each failed attempt is logged under the given operation name.
func (p Policy) Do(ctx context.Context, log zerolog.Logger, op string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = fn(); err == nil {
			return nil
		}

		log.Warn().
			Str("op", op).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Err(err).
			Msg("attempt failed")

		if p.IsRetryable != nil && !p.IsRetryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		if p.Delay > 0 {
			select {
			case <-time.After(p.Delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}
