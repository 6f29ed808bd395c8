// Package settle waits for the window manager to apply asynchronous
// requests before the next query reads its state.
package settle

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrTimeout is returned by Until when the condition never held.
var ErrTimeout = errors.New("window manager did not settle")

const (
	defaultPollInterval = 50 * time.Millisecond
	maxIntervalFactor   = 8
)

// Condition reports whether the observed state has converged. An error
// stops polling immediately.
type Condition func() (bool, error)

// Waiter holds the timing of settle points.
type Waiter struct {
	// Delay is the fixed pause used where there is no state to poll.
	Delay time.Duration
	// PollInterval is the first interval between checks; later intervals
	// grow exponentially.
	PollInterval time.Duration
	// Timeout bounds a single Until call. Zero checks once.
	Timeout time.Duration
}

// Pause sleeps for Delay or until ctx is done.
func (w Waiter) Pause(ctx context.Context) error {
	if w.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(w.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var errPending = errors.New("pending")

// Until polls cond until it holds, Timeout elapses, or ctx is done.
func (w Waiter) Until(ctx context.Context, cond Condition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.Timeout <= 0 {
		ok, err := cond()
		if err != nil {
			return err
		}
		if !ok {
			return ErrTimeout
		}
		return nil
	}

	interval := w.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(interval),
		backoff.WithMaxInterval(interval*maxIntervalFactor),
		backoff.WithMaxElapsedTime(w.Timeout),
		backoff.WithRandomizationFactor(0),
	)

	err := backoff.Retry(func() error {
		ok, err := cond()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errPending
		}
		return nil
	}, backoff.WithContext(b, ctx))

	if errors.Is(err, errPending) {
		return ErrTimeout
	}
	return err
}
