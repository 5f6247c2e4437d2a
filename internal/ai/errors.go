package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// ErrorKind classifies provider failures for the retry policy.
type ErrorKind string

const (
	// ErrKindNetwork covers connection resets, refused connections and
	// DNS failures.
	ErrKindNetwork ErrorKind = "network"

	// ErrKindTimeout covers request deadlines and read timeouts.
	ErrKindTimeout ErrorKind = "timeout"

	// ErrKindRateLimited is an upstream 429, optionally carrying a
	// server-suggested retry delay.
	ErrKindRateLimited ErrorKind = "rate_limited"

	// ErrKindServer is an upstream 5xx.
	ErrKindServer ErrorKind = "server"

	// ErrKindAuth is an authentication or authorization failure.
	ErrKindAuth ErrorKind = "auth"

	// ErrKindInvalidRequest is a malformed request the server rejected.
	ErrKindInvalidRequest ErrorKind = "invalid_request"

	ErrKindUnknown ErrorKind = "unknown"
)

// ProviderError is the failure type every concrete provider returns.
// Retryable drives the retry state machine; RetryAfter, when set, overrides
// the computed backoff.
type ProviderError struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int
	Message    string
	RetryAfter time.Duration
	Cause      error
}

func (e *ProviderError) Error() string {
	var parts []string
	if e.Provider != "" {
		parts = append(parts, "provider="+e.Provider)
	}
	parts = append(parts, "kind="+string(e.Kind))
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	parts = append(parts, e.Message)
	if e.Cause != nil {
		parts = append(parts, "cause="+e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// Retryable reports whether the retry policy may re-attempt after this
// failure.
func (e *ProviderError) Retryable() bool {
	switch e.Kind {
	case ErrKindNetwork, ErrKindTimeout, ErrKindRateLimited, ErrKindServer:
		return true
	case ErrKindAuth, ErrKindInvalidRequest:
		return false
	default:
		return false
	}
}

// NewProviderError builds a ProviderError for a non-HTTP failure.
func NewProviderError(kind ErrorKind, provider, message string) *ProviderError {
	return &ProviderError{Kind: kind, Provider: provider, Message: message}
}

// WrapTransportError maps a transport-level error from the HTTP client to
// a ProviderError.
func WrapTransportError(provider string, err error) *ProviderError {
	kind := ErrKindNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		kind = ErrKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		kind = ErrKindTimeout
	}
	return &ProviderError{
		Kind:     kind,
		Provider: provider,
		Message:  "request failed",
		Cause:    err,
	}
}

// StatusError maps an HTTP response status to a ProviderError. retryAfter
// should come from the Retry-After header when present.
func StatusError(provider string, status int, body string, retryAfter time.Duration) *ProviderError {
	var kind ErrorKind
	switch {
	case status == http.StatusTooManyRequests:
		kind = ErrKindRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = ErrKindAuth
	case status >= 500:
		kind = ErrKindServer
	case status >= 400:
		kind = ErrKindInvalidRequest
	default:
		kind = ErrKindUnknown
	}
	msg := clipRunes(strings.TrimSpace(body), 200)
	return &ProviderError{
		Kind:       kind,
		Provider:   provider,
		StatusCode: status,
		Message:    msg,
		RetryAfter: retryAfter,
	}
}

// IsRetryable reports whether err allows another attempt. Unknown error
// types default to non-retryable; only classified transient failures are
// worth repeating.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return false
}

// ConfigurationError is the one fatal error class: it rejects a run before
// any work starts.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}
