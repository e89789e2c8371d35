package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Kind classifies a transport failure.
type Kind string

const (
	KindNetwork     Kind = "network"
	KindAuth        Kind = "auth"
	KindRateLimited Kind = "rate_limited"
	KindTimeout     Kind = "timeout"
	// KindRejected means the provider refused the request or returned a
	// response that could not be used. Re-sending the same request will not help.
	KindRejected Kind = "rejected"
)

// Retryable reports whether re-issuing the same request may succeed.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetwork, KindRateLimited, KindTimeout:
		return true
	}
	return false
}

// TransportError is returned by providers when a completion could not be obtained.
type TransportError struct {
	Kind     Kind
	Provider string
	// Status is the HTTP status code, or 0 when no response was received.
	Status int
	// RetryAfter is the provider's requested delay, if it sent one.
	RetryAfter time.Duration
	Err        error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Provider, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is worth retrying.
func (e *TransportError) Retryable() bool { return e.Kind.Retryable() }

// AsTransportError returns the *TransportError in err's chain, if any.
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// statusError maps a non-200 HTTP response to a TransportError.
func statusError(provider string, resp *http.Response, body []byte) *TransportError {
	te := &TransportError{
		Kind:     kindForStatus(resp.StatusCode),
		Provider: provider,
		Status:   resp.StatusCode,
		Err:      fmt.Errorf("API returned %d: %s", resp.StatusCode, truncate(string(body), 512)),
	}
	if te.Kind == KindRateLimited {
		te.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return te
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests, status == 529:
		return KindRateLimited
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return KindTimeout
	case status >= 500:
		return KindNetwork
	default:
		return KindRejected
	}
}

// requestError maps an error from http.Client.Do to a TransportError.
func requestError(provider string, err error) *TransportError {
	kind := KindNetwork
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	}
	return &TransportError{Kind: kind, Provider: provider, Err: err}
}

func rejected(provider string, format string, args ...any) *TransportError {
	return &TransportError{Kind: KindRejected, Provider: provider, Err: fmt.Errorf(format, args...)}
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
