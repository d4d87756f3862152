package extract

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/casechron/casechron/internal/providers"
)

func transientErr() error {
	return &providers.Error{Kind: providers.KindRateLimit, Provider: "test", Message: "slow down"}
}

func terminalErr() error {
	return &providers.Error{Kind: providers.KindAuth, Provider: "test", Message: "bad key"}
}

// TestRetrier_ExhaustsAttempts verifies an always-transient failure consumes
// exactly MaxAttempts calls and surfaces a typed exhausted error.
func TestRetrier_ExhaustsAttempts(t *testing.T) {
	r := NewRetrier(RetryConfig{MaxAttempts: 3, BaseDelay: 5 * time.Millisecond}, nil, nil)

	var calls atomic.Int32
	start := time.Now()
	_, err := r.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "", transientErr()
	})
	elapsed := time.Since(start)

	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error = %v, want ExhaustedError", err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", exhausted.Attempts)
	}

	var perr *providers.Error
	if !errors.As(err, &perr) || perr.Kind != providers.KindRateLimit {
		t.Errorf("exhausted error does not carry the last underlying error: %v", err)
	}

	// Exponential schedule: 5ms + 10ms between three attempts.
	if elapsed < 15*time.Millisecond {
		t.Errorf("elapsed = %v, want >= 15ms of backoff", elapsed)
	}
}

// TestRetrier_TerminalShortCircuit verifies a terminal error is not retried.
func TestRetrier_TerminalShortCircuit(t *testing.T) {
	r := NewRetrier(RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond}, nil, nil)

	var calls atomic.Int32
	_, err := r.Do(context.Background(), func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "", terminalErr()
	})

	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}

	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		t.Error("terminal error wrapped as retries-exhausted")
	}
	var perr *providers.Error
	if !errors.As(err, &perr) || perr.Kind != providers.KindAuth {
		t.Errorf("error = %v, want auth provider error", err)
	}
}

// TestRetrier_SucceedsAfterTransient verifies recovery on a later attempt.
func TestRetrier_SucceedsAfterTransient(t *testing.T) {
	r := NewRetrier(RetryConfig{MaxAttempts: 4, BaseDelay: time.Millisecond}, nil, nil)

	var calls atomic.Int32
	out, err := r.Do(context.Background(), func(ctx context.Context) (string, error) {
		if calls.Add(1) < 3 {
			return "", transientErr()
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if out != "ok" {
		t.Errorf("out = %q, want %q", out, "ok")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

// TestRetrier_Cancellation verifies a cancelled context stops the backoff.
func TestRetrier_Cancellation(t *testing.T) {
	r := NewRetrier(RetryConfig{MaxAttempts: 10, BaseDelay: 50 * time.Millisecond}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := r.Do(ctx, func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "", transientErr()
	})

	if err == nil {
		t.Fatal("Do() error = nil, want error after cancellation")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Do() ran %v after cancellation", elapsed)
	}
	if calls.Load() > 2 {
		t.Errorf("calls = %d after early cancel, want <= 2", calls.Load())
	}
}
