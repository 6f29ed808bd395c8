package settle

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUntil_ConvergesAfterPolling(t *testing.T) {
	w := Waiter{PollInterval: time.Millisecond, Timeout: time.Second}
	calls := 0
	err := w.Until(context.Background(), func() (bool, error) {
		calls++
		return calls >= 3, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 checks, got %d", calls)
	}
}

func TestUntil_Timeout(t *testing.T) {
	w := Waiter{PollInterval: time.Millisecond, Timeout: 20 * time.Millisecond}
	start := time.Now()
	err := w.Until(context.Background(), func() (bool, error) { return false, nil })
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("timeout took too long: %v", elapsed)
	}
}

func TestUntil_ZeroTimeoutChecksOnce(t *testing.T) {
	w := Waiter{PollInterval: time.Millisecond}
	calls := 0
	err := w.Until(context.Background(), func() (bool, error) {
		calls++
		return false, nil
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single check, got %d", calls)
	}
}

func TestUntil_ConditionErrorStops(t *testing.T) {
	boom := errors.New("boom")
	w := Waiter{PollInterval: time.Millisecond, Timeout: time.Second}
	calls := 0
	err := w.Until(context.Background(), func() (bool, error) {
		calls++
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected polling to stop after error, got %d checks", calls)
	}
}

func TestUntil_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := Waiter{PollInterval: time.Millisecond, Timeout: time.Second}
	err := w.Until(ctx, func() (bool, error) {
		t.Fatalf("condition should not run after cancel")
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPause(t *testing.T) {
	w := Waiter{Delay: 5 * time.Millisecond}
	start := time.Now()
	if err := w.Pause(context.Background()); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Fatalf("pause returned early")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Delay = time.Hour
	if err := w.Pause(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
