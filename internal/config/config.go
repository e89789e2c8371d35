// Package config loads designcritic settings from a TOML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/dshills/designcritic/internal/llm"
	"github.com/dshills/designcritic/internal/pipeline"
	"github.com/dshills/designcritic/internal/profile"
)

// Config holds every setting that is fixed for the life of the process.
type Config struct {
	Model       string  `toml:"model"`
	Profile     string  `toml:"profile"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`

	TimeoutSeconds        int  `toml:"timeout_seconds"`
	AttemptTimeoutSeconds int  `toml:"attempt_timeout_seconds"`
	MaxRetries            int  `toml:"max_retries"`
	RepairAttempts        int  `toml:"repair_attempts"`
	Redact                bool `toml:"redact"`

	ServerAddr       string `toml:"server_addr"`
	MaxUploadBytes   int64  `toml:"max_upload_bytes"`
	BatchConcurrency int    `toml:"batch_concurrency"`

	LogLevel string `toml:"log_level"`
	LogJSON  bool   `toml:"log_json"`

	// Provider credentials. Environment variables take precedence.
	GroqAPIKey      string `toml:"groq_api_key"`
	OpenAIAPIKey    string `toml:"openai_api_key"`
	AnthropicAPIKey string `toml:"anthropic_api_key"`
	GeminiAPIKey    string `toml:"gemini_api_key"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Profile:          profile.Default,
		Temperature:      pipeline.DefaultTemperature,
		MaxTokens:        pipeline.DefaultMaxTokens,
		TimeoutSeconds:   int(pipeline.DefaultTimeout / time.Second),
		MaxRetries:       pipeline.DefaultMaxRetries,
		Redact:           true,
		ServerAddr:       "127.0.0.1:5000",
		MaxUploadBytes:   8 << 20,
		BatchConcurrency: 4,
		LogLevel:         "info",
	}
}

// Dir returns the designcritic config directory.
// Uses DESIGNCRITIC_CONFIG_DIR if set, otherwise ~/.designcritic
func Dir() string {
	if dir := os.Getenv("DESIGNCRITIC_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".designcritic")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the default config file, then applies environment overrides.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config file at path, then applies environment
// overrides. A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("config.Load: %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setFromEnv(&c.GroqAPIKey, "GROQ_API_KEY")
	setFromEnv(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setFromEnv(&c.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setFromEnv(&c.GeminiAPIKey, "GOOGLE_API_KEY")
	setFromEnv(&c.GeminiAPIKey, "GEMINI_API_KEY")
	setFromEnv(&c.Model, "DESIGNCRITIC_MODEL")
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Save writes c to path as TOML, creating the parent directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("config.Save: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("config.Save: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("config.Save: %w", err)
	}
	return f.Close()
}

// Validate checks that every setting is in range.
func (c *Config) Validate() error {
	var errs []error
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be between 0 and 2, got %g", c.Temperature))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens))
	}
	if c.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("timeout_seconds must not be negative, got %d", c.TimeoutSeconds))
	}
	if c.AttemptTimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("attempt_timeout_seconds must not be negative, got %d", c.AttemptTimeoutSeconds))
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		errs = append(errs, fmt.Errorf("max_retries must be between 0 and 10, got %d", c.MaxRetries))
	}
	if c.RepairAttempts < 0 || c.RepairAttempts > 3 {
		errs = append(errs, fmt.Errorf("repair_attempts must be between 0 and 3, got %d", c.RepairAttempts))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes))
	}
	if c.BatchConcurrency < 1 {
		errs = append(errs, fmt.Errorf("batch_concurrency must be at least 1, got %d", c.BatchConcurrency))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Keys returns the provider credentials.
func (c *Config) Keys() llm.Keys {
	return llm.Keys{
		Groq:      c.GroqAPIKey,
		OpenAI:    c.OpenAIAPIKey,
		Anthropic: c.AnthropicAPIKey,
		Gemini:    c.GeminiAPIKey,
	}
}

// ReviewOptions converts the config into pipeline options. The profile and
// logger are left for the caller to set.
func (c *Config) ReviewOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Settings.Model = c.Model
	opts.Settings.Temperature = c.Temperature
	opts.Settings.MaxTokens = c.MaxTokens
	opts.Timeout = time.Duration(c.TimeoutSeconds) * time.Second
	opts.AttemptTimeout = time.Duration(c.AttemptTimeoutSeconds) * time.Second
	opts.MaxRetries = c.MaxRetries
	opts.RepairAttempts = c.RepairAttempts
	opts.Redact = c.Redact
	return opts
}
