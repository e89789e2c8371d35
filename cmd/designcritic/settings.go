package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/dshills/designcritic/internal/config"
	"github.com/dshills/designcritic/internal/llm"
	"github.com/dshills/designcritic/internal/pipeline"
	"github.com/dshills/designcritic/internal/profile"
)

// modelFlags are the pipeline settings shared by review, batch and serve.
// Flags that were set on the command line override the config file.
type modelFlags struct {
	profileName   string
	model         string
	temperature   float64
	maxTokens     int
	timeout       time.Duration
	retries       int
	repair        int
	redactEnabled bool

	// provider replaces provider resolution when set. Used by tests.
	provider llm.Provider
}

func (m *modelFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&m.profileName, "profile", profile.Default, "Critic profile (see `designcritic profiles`)")
	flags.StringVar(&m.model, "model", "", "Model ID, optionally prefixed with groq:, openai:, anthropic: or gemini:")
	flags.Float64Var(&m.temperature, "temperature", pipeline.DefaultTemperature, "Model temperature")
	flags.IntVar(&m.maxTokens, "max-tokens", pipeline.DefaultMaxTokens, "Max response tokens")
	flags.DurationVar(&m.timeout, "timeout", pipeline.DefaultTimeout, "Overall deadline per review")
	flags.IntVar(&m.retries, "retries", pipeline.DefaultMaxRetries, "Transport retries per completion")
	flags.IntVar(&m.repair, "repair", 0, "Corrective re-prompts after a schema violation")
	flags.BoolVar(&m.redactEnabled, "redact", true, "Redact secrets before sending to model")
}

func (m *modelFlags) apply(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("profile") {
		cfg.Profile = m.profileName
	}
	if flags.Changed("model") {
		cfg.Model = m.model
	}
	if flags.Changed("temperature") {
		cfg.Temperature = m.temperature
	}
	if flags.Changed("max-tokens") {
		cfg.MaxTokens = m.maxTokens
	}
	if flags.Changed("timeout") {
		cfg.TimeoutSeconds = int(m.timeout.Round(time.Second) / time.Second)
	}
	if flags.Changed("retries") {
		cfg.MaxRetries = m.retries
	}
	if flags.Changed("repair") {
		cfg.RepairAttempts = m.repair
	}
	if flags.Changed("redact") {
		cfg.Redact = m.redactEnabled
	}
}

// newReviewer validates cfg and builds a pipeline from it.
func (m *modelFlags) newReviewer(ctx context.Context, cfg *config.Config, log *zap.Logger) (*pipeline.Reviewer, *profile.Profile, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, exitError(3, "%v", err)
	}

	log.Debug("loading profile", zap.String("profile", cfg.Profile))
	prof, err := profile.LoadBuiltin(cfg.Profile)
	if err != nil {
		return nil, nil, exitError(3, "failed to load profile: %v", err)
	}

	provider := m.provider
	if provider == nil {
		provider, err = llm.ResolveProvider(ctx, cfg.Model, cfg.Keys())
		if err != nil {
			return nil, nil, exitError(4, "model provider error: %v", err)
		}
	}
	log.Debug("using provider", zap.String("provider", provider.Name()), zap.String("model", cfg.Model))

	opts := cfg.ReviewOptions()
	opts.Profile = prof
	opts.Logger = log
	return pipeline.New(provider, opts), prof, nil
}

// reviewExit maps a review failure to the CLI exit codes: 3 for bad input,
// 4 for provider trouble and 5 for unusable model output.
func reviewExit(err error) error {
	pe, ok := pipeline.AsError(err)
	if !ok {
		return exitError(1, "review failed: %v", err)
	}
	switch pe.Kind {
	case pipeline.KindInvalidRequest:
		return exitError(3, "invalid request: %s", pe.Message)
	case pipeline.KindTransport, pipeline.KindCancelled:
		return exitError(4, "LLM call failed: %s", pe.Message)
	case pipeline.KindSchemaViolation:
		var b strings.Builder
		b.WriteString("LLM output failed schema validation:")
		for _, v := range pe.Violations {
			fmt.Fprintf(&b, "\n  %s", v)
		}
		return exitError(5, "%s", b.String())
	}
	return exitError(5, "LLM output unusable: %s", pe.Message)
}
