package ai

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetryConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
		Jitter:         false,
	}
}

func TestDoRetriesUntilExhausted(t *testing.T) {
	policy := NewPolicy(fastRetryConfig(3))

	calls := 0
	_, attempts, err := policy.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", NewProviderError(ErrKindServer, "test", "boom")
	})

	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 4 {
		t.Errorf("expected 4 calls (1 + 3 retries), got %d", calls)
	}
	if attempts != 4 {
		t.Errorf("expected 4 attempts reported, got %d", attempts)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	policy := NewPolicy(fastRetryConfig(3))

	calls := 0
	_, attempts, err := policy.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", NewProviderError(ErrKindAuth, "test", "bad key")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("auth failure should not be retried, got %d calls", calls)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt reported, got %d", attempts)
	}
}

func TestDoSucceedsMidway(t *testing.T) {
	policy := NewPolicy(fastRetryConfig(3))

	calls := 0
	raw, attempts, err := policy.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewProviderError(ErrKindTimeout, "test", "slow")
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw != "ok" {
		t.Errorf("unexpected result %q", raw)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoZeroRetriesSingleAttempt(t *testing.T) {
	policy := NewPolicy(fastRetryConfig(0))

	calls := 0
	_, attempts, err := policy.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", NewProviderError(ErrKindServer, "test", "boom")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 || attempts != 1 {
		t.Errorf("expected exactly one attempt, got calls=%d attempts=%d", calls, attempts)
	}
}

func TestDoRespectsCancellation(t *testing.T) {
	policy := NewPolicy(RetryConfig{
		MaxRetries:     5,
		InitialBackoff: time.Hour,
		MaxBackoff:     time.Hour,
		Multiplier:     2.0,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, _, err := policy.Do(ctx, func(ctx context.Context) (string, error) {
		return "", NewProviderError(ErrKindServer, "test", "boom")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancellation did not interrupt backoff sleep, took %s", elapsed)
	}
}

func TestDelayExponentialSchedule(t *testing.T) {
	policy := NewPolicy(RetryConfig{
		MaxRetries:     5,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     2.0,
		Jitter:         false,
	})
	err := NewProviderError(ErrKindServer, "test", "boom")

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second, // capped
		time.Second,
	}
	for i, expected := range want {
		if got := policy.Delay(i+1, err); got != expected {
			t.Errorf("Delay(%d) = %s, want %s", i+1, got, expected)
		}
	}
}

func TestDelayNonDecreasingWithJitter(t *testing.T) {
	policy := NewPolicy(RetryConfig{
		MaxRetries:     5,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Minute,
		Multiplier:     2.0,
		Jitter:         true,
	})
	err := NewProviderError(ErrKindServer, "test", "boom")

	// Jitter is bounded to ±20%, so with a 2x multiplier consecutive
	// delays still never shrink.
	for run := 0; run < 50; run++ {
		prev := policy.Delay(1, err)
		for attempt := 2; attempt <= 5; attempt++ {
			d := policy.Delay(attempt, err)
			if d < prev {
				t.Fatalf("delay shrank: attempt %d gave %s after %s", attempt, d, prev)
			}
			prev = d
		}
	}
}

func TestDelayRetryAfterOverride(t *testing.T) {
	policy := NewPolicy(fastRetryConfig(3))

	err := StatusError("test", 429, "slow down", 7*time.Second)
	if got := policy.Delay(1, err); got != 7*time.Second {
		t.Errorf("expected server-suggested 7s delay, got %s", got)
	}

	// Without a suggestion, rate limits fall back to the schedule.
	plain := NewProviderError(ErrKindRateLimited, "test", "slow down")
	if got := policy.Delay(1, plain); got != time.Millisecond {
		t.Errorf("expected schedule delay, got %s", got)
	}
}

func TestProviderErrorRetryability(t *testing.T) {
	tests := []struct {
		kind      ErrorKind
		retryable bool
	}{
		{ErrKindNetwork, true},
		{ErrKindTimeout, true},
		{ErrKindRateLimited, true},
		{ErrKindServer, true},
		{ErrKindAuth, false},
		{ErrKindInvalidRequest, false},
		{ErrKindUnknown, false},
	}

	for _, tt := range tests {
		err := NewProviderError(tt.kind, "test", "x")
		if got := IsRetryable(err); got != tt.retryable {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.kind, got, tt.retryable)
		}
	}

	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors must not be retryable")
	}
}
