package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dshills/designcritic/internal/critique"
)

// Violation describes a single schema violation.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Violations is a list of schema violations reported together.
type Violations []Violation

func (vs Violations) Error() string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.Error()
	}
	return strings.Join(parts, "; ")
}

// Paths returns the path of every violation, in order.
func (vs Violations) Paths() []string {
	paths := make([]string, len(vs))
	for i, v := range vs {
		paths[i] = v.Path
	}
	return paths
}

// Check walks a decoded JSON value against the schema and returns every
// violation found. Keys not declared by the schema are ignored.
func (s *Schema) Check(candidate any) Violations {
	obj, ok := candidate.(map[string]any)
	if !ok {
		return Violations{{"$", fmt.Sprintf("expected object, got %s", typeName(candidate))}}
	}
	return checkObject("", obj, s.Fields)
}

// Validate checks candidate and, when it satisfies every constraint,
// returns it as a Critique. Values are never coerced: any violation means
// the returned Critique is the zero value.
func (s *Schema) Validate(candidate any) (critique.Critique, Violations) {
	if errs := s.Check(candidate); len(errs) > 0 {
		return critique.Critique{}, errs
	}
	obj := candidate.(map[string]any)
	scores := obj["scores"].(map[string]any)
	return critique.Critique{
		Summary: obj["summary"].(string),
		Scores: critique.Scores{
			VisualHierarchy: mustNumber(scores["visual_hierarchy"]),
			Typography:      mustNumber(scores["typography"]),
			Color:           mustNumber(scores["color"]),
			Accessibility:   mustNumber(scores["accessibility"]),
			Usability:       mustNumber(scores["usability"]),
			EmotionalTone:   scores["emotional_tone"].(string),
		},
		ProductValue:  obj["product_value"].(string),
		PriorityFixes: stringList(obj["priority_fixes"]),
		Suggestions:   stringList(obj["suggestions"]),
	}, nil
}

func checkObject(prefix string, obj map[string]any, fields []Field) Violations {
	var errs Violations
	for _, f := range fields {
		path := f.Name
		if prefix != "" {
			path = prefix + "." + f.Name
		}
		val, present := obj[f.Name]
		if !present {
			errs = append(errs, Violation{path, "required"})
			continue
		}
		errs = append(errs, checkField(path, f, val)...)
	}
	return errs
}

func checkField(path string, f Field, val any) Violations {
	switch f.Kind {
	case KindString:
		s, ok := val.(string)
		if !ok {
			return Violations{typeMismatch(path, f.Kind, val)}
		}
		if v, bad := checkText(path, s, f.MinLen, f.MaxLen); bad {
			return Violations{v}
		}
	case KindNumber:
		n, ok := number(val)
		if !ok {
			return Violations{typeMismatch(path, f.Kind, val)}
		}
		if n < f.Min || n > f.Max {
			return Violations{{path, fmt.Sprintf("must be between %s and %s, got %s", formatNum(f.Min), formatNum(f.Max), formatNum(n))}}
		}
	case KindObject:
		obj, ok := val.(map[string]any)
		if !ok {
			return Violations{typeMismatch(path, f.Kind, val)}
		}
		return checkObject(path, obj, f.Fields)
	case KindStringList:
		items, ok := val.([]any)
		if !ok {
			if ss, isStrings := val.([]string); isStrings {
				items = make([]any, len(ss))
				for i, s := range ss {
					items[i] = s
				}
			} else {
				return Violations{typeMismatch(path, f.Kind, val)}
			}
		}
		var errs Violations
		if len(items) < f.MinItems || (f.MaxItems > 0 && len(items) > f.MaxItems) {
			errs = append(errs, Violation{path, fmt.Sprintf("must contain between %d and %d items, got %d", f.MinItems, f.MaxItems, len(items))})
		}
		for i, item := range items {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			s, ok := item.(string)
			if !ok {
				errs = append(errs, typeMismatch(itemPath, KindString, item))
				continue
			}
			if v, bad := checkText(itemPath, s, f.MinLen, f.MaxLen); bad {
				errs = append(errs, v)
			}
		}
		return errs
	}
	return nil
}

func checkText(path, s string, minLen, maxLen int) (Violation, bool) {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	if minLen > 0 && n < minLen {
		if minLen == 1 {
			return Violation{path, "must not be empty"}, true
		}
		return Violation{path, fmt.Sprintf("must be at least %d characters, got %d", minLen, n)}, true
	}
	if maxLen > 0 && n > maxLen {
		return Violation{path, fmt.Sprintf("must be at most %d characters, got %d", maxLen, n)}, true
	}
	return Violation{}, false
}

func typeMismatch(path string, want Kind, val any) Violation {
	return Violation{path, fmt.Sprintf("expected %s, got %s", want, typeName(val))}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func mustNumber(v any) float64 {
	n, _ := number(v)
	return n
}

func stringList(v any) []string {
	switch items := v.(type) {
	case []string:
		return append([]string(nil), items...)
	case []any:
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = item.(string)
		}
		return out
	}
	return nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int64:
		return "number"
	case []any, []string:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

func formatNum(f float64) string {
	return fmt.Sprintf("%g", f)
}
