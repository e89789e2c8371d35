package llm

import (
	"context"
	"sync"
)

// MockProvider is a test double that returns canned responses.
type MockProvider struct {
	Response string
	Err      error
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Generate(_ context.Context, _ string, _ Settings) (string, error) {
	return m.Response, m.Err
}

// Step is one scripted provider reply.
type Step struct {
	Response string
	Err      error
}

// ScriptedProvider replays Steps in order, one per call, and records every
// prompt it receives. Calls beyond the script repeat the last step.
type ScriptedProvider struct {
	Steps []Step

	mu      sync.Mutex
	prompts []string
}

func (s *ScriptedProvider) Name() string { return "scripted" }

func (s *ScriptedProvider) Generate(_ context.Context, prompt string, _ Settings) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	if len(s.Steps) == 0 {
		return "", nil
	}
	if i >= len(s.Steps) {
		i = len(s.Steps) - 1
	}
	return s.Steps[i].Response, s.Steps[i].Err
}

// Calls returns how many times Generate was invoked.
func (s *ScriptedProvider) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// Prompts returns a copy of every prompt received, in call order.
func (s *ScriptedProvider) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}
