// Package timeout provides a bounded timeout wrapper for asynchronous
// operations. When the wrapped operation does not complete before the
// deadline, the wrapper returns a TimeoutError and the in-flight result is
// discarded.
package timeout

import (
	"context"
	"time"

	"github.com/c360/comptree/errors"
)

// Do runs fn in its own goroutine and waits at most after for it to finish.
// On expiry it returns a TimeoutError with Timeout set; the operation keeps
// running but its eventual result is discarded. Context cancellation wins
// over the deadline.
func Do(ctx context.Context, op string, after time.Duration, fn func(ctx context.Context) error) error {
	_, err := DoWithResult(ctx, op, after, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoWithResult is Do for operations that produce a value.
func DoWithResult[T any](ctx context.Context, op string, after time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	type outcome struct {
		value T
		err   error
	}
	// Buffered so the goroutine never leaks when the deadline fires first.
	done := make(chan outcome, 1)

	inner, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		v, err := fn(inner)
		done <- outcome{value: v, err: err}
	}()

	timer := time.NewTimer(after)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-timer.C:
		return zero, &errors.TimeoutError{Op: op, After: after, Timeout: true}
	}
}
