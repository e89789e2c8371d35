package llm

import (
	"context"
	"fmt"
	"strings"
)

// Keys carries provider credentials. It is filled from configuration once
// at startup and passed explicitly.
type Keys struct {
	Groq      string
	OpenAI    string
	Anthropic string
	Gemini    string
}

// ResolveProvider selects an LLM provider based on the model flag and the
// available keys. An explicit "provider:model" prefix wins; otherwise the
// model name is matched by family, and with no model the first configured
// key is used.
func ResolveProvider(ctx context.Context, modelFlag string, keys Keys) (Provider, error) {
	if modelFlag != "" {
		lower := strings.ToLower(modelFlag)
		for _, prefix := range []string{"groq:", "openai:", "anthropic:", "gemini:"} {
			if strings.HasPrefix(lower, prefix) {
				p, err := newNamed(ctx, strings.TrimSuffix(prefix, ":"), keys)
				if err != nil {
					return nil, err
				}
				return &modelOverride{Provider: p, model: modelFlag[len(prefix):]}, nil
			}
		}

		var name string
		switch {
		case strings.HasPrefix(lower, "claude"):
			name = "anthropic"
		case strings.HasPrefix(lower, "gpt"), strings.HasPrefix(lower, "o1"), strings.HasPrefix(lower, "o3"):
			name = "openai"
		case strings.HasPrefix(lower, "gemini"):
			name = "gemini"
		case strings.HasPrefix(lower, "llama"), strings.HasPrefix(lower, "mixtral"), strings.HasPrefix(lower, "gemma"):
			name = "groq"
		}
		if name != "" {
			p, err := newNamed(ctx, name, keys)
			if err != nil {
				return nil, err
			}
			return &modelOverride{Provider: p, model: modelFlag}, nil
		}
	}

	// Auto-detect from configured keys
	switch {
	case keys.Groq != "":
		return NewGroq(keys.Groq)
	case keys.Anthropic != "":
		return NewAnthropic(keys.Anthropic)
	case keys.OpenAI != "":
		return NewOpenAI(keys.OpenAI)
	case keys.Gemini != "":
		return NewGemini(ctx, keys.Gemini)
	}

	return nil, fmt.Errorf("no LLM provider configured: set GROQ_API_KEY, ANTHROPIC_API_KEY, OPENAI_API_KEY or GEMINI_API_KEY")
}

func newNamed(ctx context.Context, name string, keys Keys) (Provider, error) {
	switch name {
	case "groq":
		return NewGroq(keys.Groq)
	case "openai":
		return NewOpenAI(keys.OpenAI)
	case "anthropic":
		return NewAnthropic(keys.Anthropic)
	case "gemini":
		return NewGemini(ctx, keys.Gemini)
	}
	return nil, fmt.Errorf("unknown provider %q", name)
}

// modelOverride wraps a provider to override the model in settings.
type modelOverride struct {
	Provider
	model string
}

func (m *modelOverride) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	s.Model = m.model
	return m.Provider.Generate(ctx, prompt, s)
}
