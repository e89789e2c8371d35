// Package redact masks secrets in user-supplied text before it is sent to a model.
package redact

import "regexp"

// Marker replaces every redacted secret.
const Marker = "[REDACTED]"

var patterns = compile(
	// Provider API keys
	`gsk_[A-Za-z0-9]{20,}`,
	`sk-(?:proj-|ant-)?[A-Za-z0-9_\-]{20,}`,
	`AIza[0-9A-Za-z_\-]{35}`,
	// AWS access key IDs
	`AKIA[0-9A-Z]{16}`,
	// Private key blocks
	`-----BEGIN [A-Z ]+PRIVATE KEY-----[\s\S]*?-----END [A-Z ]+PRIVATE KEY-----`,
	// Bearer tokens
	`Bearer\s+[A-Za-z0-9\-._~+/]+=*`,
	// Generic key/secret/token/password assignments
	`(?i)(api[_-]?key|api[_-]?secret|secret[_-]?key|token|password|passwd|credentials)\s*[:=]\s*\S+`,
)

func compile(raw ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(raw))
	for i, r := range raw {
		out[i] = regexp.MustCompile(r)
	}
	return out
}

// Redact replaces secret patterns in text with Marker.
func Redact(text string) string {
	out, _ := RedactCount(text)
	return out
}

// RedactCount is Redact that also reports how many secrets were replaced.
func RedactCount(text string) (string, int) {
	n := 0
	for _, p := range patterns {
		text = p.ReplaceAllStringFunc(text, func(string) string {
			n++
			return Marker
		})
	}
	return text, n
}
