package retry

import (
	"context"
	"errors"
	"time"
)

// Default policy values.
const (
	DefaultAttempts     = 5
	DefaultInitialDelay = 50 * time.Millisecond
	DefaultMaxDelay     = 2 * time.Second
)

// Policy bounds a retry loop.
type Policy struct {
	// Attempts is the total number of calls, including the first.
	// Values below 1 are treated as 1.
	Attempts int
	// InitialDelay is the wait after the first failure. It doubles after
	// each further failure.
	InitialDelay time.Duration
	// MaxDelay caps the wait between attempts. Zero means no cap.
	MaxDelay time.Duration
}

// DefaultPolicy returns a policy of [DefaultAttempts] starting at
// [DefaultInitialDelay], capped at [DefaultMaxDelay].
func DefaultPolicy() Policy {
	return Policy{Attempts: DefaultAttempts, InitialDelay: DefaultInitialDelay, MaxDelay: DefaultMaxDelay}
}

// next returns the wait that follows d.
func (p Policy) next(d time.Duration) time.Duration {
	d *= 2
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// RetryableError marks an error as transient.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err so that [Do] attempts the operation again.
// It returns nil for a nil error.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err is marked as transient.
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// Do calls fn until it succeeds, returns a non-retryable error, or the
// policy's attempts are used up. It returns the last error (still wrapped
// as retryable) or ctx.Err() if the context ends while waiting.
func Do(ctx context.Context, p Policy, fn func(attempt int) error) error {
	attempts := max(p.Attempts, 1)
	delay := p.InitialDelay
	if p.MaxDelay > 0 {
		delay = min(delay, p.MaxDelay)
	}
	var lastErr error

	for i := range attempts {
		if err := fn(i + 1); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
				delay = p.next(delay)
			}
		}
	}
	return lastErr
}
