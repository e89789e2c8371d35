// Package llm defines the completion gateway: the provider interface, its
// implementations, and the transport error taxonomy.
package llm

import "context"

// Settings configures the LLM request.
type Settings struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Seed        *int
}

// Provider generates text from a prompt using an LLM. Implementations make
// exactly one request per call and never retry; failures are returned as
// *TransportError.
type Provider interface {
	Generate(ctx context.Context, prompt string, settings Settings) (string, error)
	Name() string
}
