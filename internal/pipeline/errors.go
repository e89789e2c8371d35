package pipeline

import (
	"errors"
	"fmt"

	"github.com/dshills/designcritic/internal/extract"
	"github.com/dshills/designcritic/internal/llm"
	"github.com/dshills/designcritic/internal/schema"
)

// Kind classifies a failed review.
type Kind string

const (
	KindInvalidRequest      Kind = "invalid_request"
	KindTransport           Kind = "transport"
	KindNoStructuredPayload Kind = "no_structured_payload"
	KindMalformedPayload    Kind = "malformed_payload"
	KindSchemaViolation     Kind = "schema_violation"
	KindCancelled           Kind = "cancelled"
)

var (
	// ErrInvalidRequest matches any *Error of kind KindInvalidRequest.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrCancelled matches any *Error of kind KindCancelled.
	ErrCancelled = errors.New("review cancelled")
)

// Error is the single error type returned by Reviewer.Review.
type Error struct {
	Kind    Kind
	Message string
	// Transport is the transport sub-kind. Only set for KindTransport.
	Transport llm.Kind
	// Violations is only set for KindSchemaViolation.
	Violations schema.Violations
	// Offset is the byte offset of a parse failure. Only set for KindMalformedPayload.
	Offset int64
	Err    error
}

func (e *Error) Error() string {
	if e.Kind == KindTransport {
		return fmt.Sprintf("pipeline: transport (%s): %s", e.Transport, e.Message)
	}
	return fmt.Sprintf("pipeline: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match the package sentinels by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidRequest:
		return e.Kind == KindInvalidRequest
	case ErrCancelled:
		return e.Kind == KindCancelled
	}
	return false
}

// Retryable reports whether the same request may succeed if tried again later.
func (e *Error) Retryable() bool {
	return e.Kind == KindTransport && e.Transport.Retryable()
}

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func invalidRequest(msg string) *Error {
	return &Error{Kind: KindInvalidRequest, Message: msg, Err: ErrInvalidRequest}
}

func cancelled(cause error) *Error {
	return &Error{Kind: KindCancelled, Message: "review cancelled by caller", Err: fmt.Errorf("%w: %w", ErrCancelled, cause)}
}

func transportFailure(te *llm.TransportError) *Error {
	return &Error{Kind: KindTransport, Transport: te.Kind, Message: te.Error(), Err: te}
}

func extractionFailure(xe *extract.Error) *Error {
	e := &Error{Message: xe.Error(), Err: xe}
	switch xe.Kind {
	case extract.KindNoPayload:
		e.Kind = KindNoStructuredPayload
	case extract.KindMalformed:
		e.Kind = KindMalformedPayload
		e.Offset = xe.Offset
	default:
		e.Kind = KindSchemaViolation
		e.Violations = xe.Violations
	}
	return e
}
