package snapshot

import (
	"context"
	"errors"
	"time"
)

// transientError marks a failure worth another attempt, such as a dropped
// connection or a timeout talking to the remote.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// retry runs fn up to attempts times, doubling delay after each transient
// failure. Other errors are returned immediately, as is ctx.Err() when the
// context ends while waiting.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !isTransient(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

func isTransient(err error) bool {
	return errors.As(err, new(*transientError))
}
