package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRateLimit indicates the provider returned a rate-limit error (429).
// Retryable.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is overloaded, down or
// unreachable (5xx, timeout, network). Retryable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model provider unavailable: %v", e.Err)
	}
	return "model provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrAuth indicates the provider rejected our credentials (401/403). Fatal.
type ErrAuth struct {
	Err error
}

func (e *ErrAuth) Error() string {
	return fmt.Sprintf("model provider authentication failed: %v", e.Err)
}

func (e *ErrAuth) Unwrap() error { return e.Err }

// ErrBadRequest indicates we sent something the provider cannot process
// (malformed request, unsupported attachment). Fatal.
type ErrBadRequest struct {
	Err error
}

func (e *ErrBadRequest) Error() string {
	return fmt.Sprintf("malformed model request: %v", e.Err)
}

func (e *ErrBadRequest) Unwrap() error { return e.Err }

// ErrEmptyResponse indicates the provider returned no usable content.
// Retryable.
type ErrEmptyResponse struct {
	Provider string
}

func (e *ErrEmptyResponse) Error() string {
	return fmt.Sprintf("%s returned no content", e.Provider)
}

// IsRetryable classifies a transport error: rate limits, overload and
// network failures are transient; auth and malformed requests are not.
// Context cancellation is never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var auth *ErrAuth
	if errors.As(err, &auth) {
		return false
	}
	var bad *ErrBadRequest
	if errors.As(err, &bad) {
		return false
	}
	return true
}
