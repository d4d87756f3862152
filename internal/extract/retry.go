package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/casechron/casechron/internal/providers"
)

// RetryConfig tunes the retry executor.
type RetryConfig struct {
	MaxAttempts uint          // Total attempts including the first (default 4)
	BaseDelay   time.Duration // Delay before the second attempt (default 1s)
	MaxDelay    time.Duration // Backoff ceiling (default 30s)
	Jitter      bool          // Add up to 25% random jitter to each delay
}

// ExhaustedError is returned when every attempt failed with a transient
// error. It carries the last underlying failure.
type ExhaustedError struct {
	Attempts uint
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Retrier wraps a single model call with bounded exponential-backoff retry.
//
// Transient errors (rate limit, timeout, network, 5xx) are retried with
// delay base*2^(n-1) for the n-th attempt; terminal errors (auth, malformed
// request, content policy) fail on the first attempt without consuming the
// budget. Backoff waits are cooperative and respect context cancellation.
type Retrier struct {
	cfg         RetryConfig
	isTransient func(error) bool
	logger      *slog.Logger
}

// NewRetrier creates a retry executor. classify decides transient vs
// terminal; nil uses the provider classification.
func NewRetrier(cfg RetryConfig, classify func(error) bool, logger *slog.Logger) *Retrier {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 4
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if classify == nil {
		classify = providers.IsTransient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{
		cfg:         cfg,
		isTransient: classify,
		logger:      logger.With("component", "retrier"),
	}
}

// Do runs op until it succeeds, a terminal error occurs, the context is
// cancelled, or attempts are exhausted.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) (string, error)) (string, error) {
	attempts := uint(0)

	delayType := retry.BackOffDelay
	if r.cfg.Jitter {
		delayType = retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)
	}

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(r.cfg.MaxAttempts),
		retry.Delay(r.cfg.BaseDelay),
		retry.MaxDelay(r.cfg.MaxDelay),
		retry.MaxJitter(r.cfg.BaseDelay / 4),
		retry.DelayType(delayType),
		retry.LastErrorOnly(true),
		retry.RetryIf(r.isTransient),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Debug("retrying model call", "attempt", n+1, "error", err)
		}),
	}

	out, err := retry.DoWithData(func() (string, error) {
		attempts++
		return op(ctx)
	}, opts...)

	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return "", err
	}
	if r.isTransient(err) && attempts >= r.cfg.MaxAttempts {
		return "", &ExhaustedError{Attempts: attempts, Last: err}
	}
	return "", err
}
