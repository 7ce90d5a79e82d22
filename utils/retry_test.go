package utils

import (
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsWithinBudget(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: NewLogger()}

	calls := 0
	err := r.Do("connect", func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("got %d attempts; want 3", calls)
	}
}

func TestRetryStopsAtConfiguredAttempts(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, Logger: NewLogger()}

	calls := 0
	err := r.Do("connect", func() error {
		calls++
		return errors.New("connection refused")
	})
	if err == nil {
		t.Fatal("Do must return the final error")
	}
	if calls != 2 {
		t.Errorf("got %d attempts; want 2", calls)
	}
}

func TestRetryClampsToSingleAttempt(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 0, BaseDelay: time.Millisecond, Logger: NewLogger()}

	calls := 0
	if err := r.Do("connect", func() error { calls++; return errors.New("nope") }); err == nil {
		t.Fatal("Do must fail when every attempt fails")
	}
	if calls != 1 {
		t.Errorf("got %d attempts; want 1", calls)
	}
}
