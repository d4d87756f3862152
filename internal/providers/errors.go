package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrorKind classifies a provider failure for retry decisions.
type ErrorKind string

const (
	// Transient kinds: retrying may succeed.
	KindRateLimit ErrorKind = "rate_limit"
	KindTimeout   ErrorKind = "timeout"
	KindNetwork   ErrorKind = "network"
	KindServer    ErrorKind = "server"

	// Terminal kinds: retrying the same request cannot succeed.
	KindAuth          ErrorKind = "auth"
	KindBadRequest    ErrorKind = "bad_request"
	KindContentPolicy ErrorKind = "content_policy"
)

// Error is a classified provider failure.
type Error struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int           // HTTP status when applicable, 0 otherwise
	RetryAfter time.Duration // Server-suggested wait, 0 if none
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Provider, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Transient reports whether retrying this error may succeed.
func (e *Error) Transient() bool {
	switch e.Kind {
	case KindRateLimit, KindTimeout, KindNetwork, KindServer:
		return true
	default:
		return false
	}
}

// IsTransient classifies an arbitrary error for the retry layer.
//
// Typed *Error values answer for themselves. Deadline and network errors are
// transient. Explicit cancellation is terminal: the caller asked to stop.
// Anything else unclassified is treated as transient, matching the posture of
// retrying unknown network-path failures rather than giving up on them.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Transient()
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}
	return true
}

// classifyStatus maps an HTTP status code to an ErrorKind.
func classifyStatus(status int) ErrorKind {
	switch status {
	case 401, 403:
		return KindAuth
	case 408:
		return KindTimeout
	case 429:
		return KindRateLimit
	case 400, 404, 405:
		return KindBadRequest
	case 413, 422:
		// Payload/format rejections are often cache artifacts upstream;
		// treat as retryable server conditions.
		return KindServer
	default:
		if status >= 500 {
			return KindServer
		}
		return KindBadRequest
	}
}
