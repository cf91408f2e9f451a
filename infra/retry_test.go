package infra

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithRetryFirstTrySucceeds(t *testing.T) {
	calls := 0
	var slept []time.Duration
	err := withRetry(context.Background(), 3, time.Second, func(d time.Duration) { slept = append(slept, d) }, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if calls != 1 {
		t.Fatalf("op called %d times, want 1", calls)
	}
	if len(slept) != 0 {
		t.Fatalf("slept %v, want no sleeps before the first attempt", slept)
	}
}

func TestWithRetryExhaustsBudget(t *testing.T) {
	calls := 0
	var slept []time.Duration
	opErr := errors.New("still broken")
	err := withRetry(context.Background(), 3, 2*time.Second, func(d time.Duration) { slept = append(slept, d) }, func() error {
		calls++
		return opErr
	})
	if !errors.Is(err, opErr) {
		t.Fatalf("err = %v, want the op's last error", err)
	}
	if calls != 3 {
		t.Fatalf("op called %d times, want exactly 3", calls)
	}
	if len(slept) != 2 || slept[0] != 2*time.Second || slept[1] != 2*time.Second {
		t.Fatalf("slept %v, want two 2s delays between attempts", slept)
	}
}

func TestWithRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 5, 0, func(time.Duration) {}, func() error {
		calls++
		if calls < 2 {
			return errors.New("flaky")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if calls != 2 {
		t.Fatalf("op called %d times, want 2", calls)
	}
}

func TestWithRetryHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := withRetry(ctx, 3, 0, func(time.Duration) { cancel() }, func() error {
		calls++
		return errors.New("nope")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("op called %d times after cancel, want 1", calls)
	}
}
