package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryEventuallySucceeds(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expect success on third call, got %v after %d", err, calls)
	}
}

func TestRetryReturnsLastError(t *testing.T) {
	want := errors.New("down")
	calls := 0
	err := Retry(context.Background(), 0, time.Hour, func() error {
		calls++
		return want
	})
	if !errors.Is(err, want) || calls != 1 {
		t.Fatalf("expect single attempt with last error, got %v after %d", err, calls)
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, time.Millisecond, func() error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expect context canceled, got %v", err)
	}
}
