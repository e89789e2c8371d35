// Package extract turns raw model text into a validated critique.
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dshills/designcritic/internal/critique"
	"github.com/dshills/designcritic/internal/schema"
)

// Kind classifies an extraction failure.
type Kind string

const (
	KindNoPayload       Kind = "no_structured_payload"
	KindMalformed       Kind = "malformed_payload"
	KindSchemaViolation Kind = "schema_violation"
)

// Error is returned when raw text cannot be turned into a valid critique.
type Error struct {
	Kind Kind
	// Offset is the byte offset in the raw text where parsing failed.
	// Only set for KindMalformed.
	Offset int64
	Reason string
	// Violations is only set for KindSchemaViolation.
	Violations schema.Violations
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMalformed:
		return fmt.Sprintf("malformed payload at offset %d: %s", e.Offset, e.Reason)
	case KindSchemaViolation:
		return fmt.Sprintf("schema violation: %s", e.Violations.Error())
	}
	return "no structured payload: " + e.Reason
}

// Span is a located payload within raw text: raw[Start:End].
type Span struct {
	Start, End int
}

// Locate finds the first balanced top-level JSON object in s. Braces inside
// string literals are skipped once an object has been opened; prose before
// the first '{' is ignored entirely, quotes included.
func Locate(s string) (Span, error) {
	var (
		depth    int
		start    = -1
		inString bool
		escape   bool
	)

	for i := 0; i < len(s); i++ {
		b := s[i]

		if depth == 0 {
			if b == '{' {
				start = i
				depth = 1
			}
			continue
		}

		if escape {
			escape = false
			continue
		}
		if inString {
			switch b {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return Span{Start: start, End: i + 1}, nil
			}
		}
	}

	if start < 0 {
		return Span{}, &Error{Kind: KindNoPayload, Reason: "no '{' found in model output"}
	}
	return Span{}, &Error{Kind: KindMalformed, Offset: int64(len(s)), Reason: "unterminated object"}
}

// Parse strictly decodes the object at span. Numbers are kept as json.Number.
func Parse(raw string, span Span) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw[span.Start:span.End])))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, malformed(span, dec, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &Error{Kind: KindMalformed, Offset: int64(span.Start) + dec.InputOffset(), Reason: "unexpected data after object"}
	}
	if _, ok := v.(map[string]any); !ok {
		return nil, &Error{Kind: KindMalformed, Offset: int64(span.Start), Reason: "payload is not a JSON object"}
	}
	return v, nil
}

func malformed(span Span, dec *json.Decoder, err error) *Error {
	offset := dec.InputOffset()
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		offset = syntaxErr.Offset
	}
	return &Error{Kind: KindMalformed, Offset: int64(span.Start) + offset, Reason: err.Error()}
}

// Extract locates, parses and validates the structured payload in raw.
func Extract(raw string, s *schema.Schema) (critique.Critique, error) {
	span, err := Locate(raw)
	if err != nil {
		return critique.Critique{}, err
	}
	v, err := Parse(raw, span)
	if err != nil {
		return critique.Critique{}, err
	}
	c, violations := s.Validate(v)
	if len(violations) > 0 {
		return critique.Critique{}, &Error{Kind: KindSchemaViolation, Violations: violations}
	}
	return c, nil
}
