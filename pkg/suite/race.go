package suite

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"
)

// invoke calls fn and turns a panic into a PanicError.
func invoke(ctx context.Context, fn Body) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	return fn(ctx)
}

// settled is what a body produced and whether it returned at or after its
// deadline. The clock is read in the body's goroutine so a runner that is
// starved of CPU still sees when the body really finished.
type settled struct {
	err     error
	overran bool
}

// race runs the test body against its timeout. When the deadline wins, the
// body's context is cancelled and the race returns immediately; a body that
// ignores its context keeps running in the background.
func (e *Engine) race(ctx context.Context, tc *TestCase) error {
	deadline := time.Now().Add(tc.Timeout)

	raceCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	done := make(chan settled, 1)

	go func() {
		err := invoke(raceCtx, tc.Body)
		done <- settled{err: err, overran: !time.Now().Before(deadline)}
	}()

	select {
	case out := <-done:
		return settle(ctx, tc, out)
	case <-raceCtx.Done():
		// Both may be ready; the body's own finish time decides.
		select {
		case out := <-done:
			return settle(ctx, tc, out)
		default:
		}

		if ctx.Err() == nil {
			return &TimeoutError{Test: tc.Name, Timeout: tc.Timeout}
		}

		return fmt.Errorf("test %q interrupted: %w", tc.Name, context.Cause(ctx))
	}
}

// settle turns a finished body into its test error. A body that returned
// past its deadline timed out, even when it returned nil.
func settle(parent context.Context, tc *TestCase, out settled) error {
	if out.overran && parent.Err() == nil {
		return &TimeoutError{Test: tc.Name, Timeout: tc.Timeout}
	}

	return out.err
}
