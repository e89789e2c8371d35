package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every variable Load consults for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GROQ_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "DESIGNCRITIC_MODEL",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Profile != "ux" {
		t.Errorf("Expected Profile 'ux', got '%s'", cfg.Profile)
	}
	if cfg.Temperature != 0.2 {
		t.Errorf("Expected Temperature 0.2, got %g", cfg.Temperature)
	}
	if cfg.MaxTokens != 1200 {
		t.Errorf("Expected MaxTokens 1200, got %d", cfg.MaxTokens)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("Expected MaxRetries 2, got %d", cfg.MaxRetries)
	}
	if cfg.TimeoutSeconds != 60 {
		t.Errorf("Expected TimeoutSeconds 60, got %d", cfg.TimeoutSeconds)
	}
	if !cfg.Redact {
		t.Error("Expected Redact to default to true")
	}
	if cfg.MaxUploadBytes != 8<<20 {
		t.Errorf("Expected MaxUploadBytes 8 MiB, got %d", cfg.MaxUploadBytes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestDir(t *testing.T) {
	t.Run("default uses home directory", func(t *testing.T) {
		t.Setenv("DESIGNCRITIC_CONFIG_DIR", "")
		home, _ := os.UserHomeDir()
		if got, want := Dir(), filepath.Join(home, ".designcritic"); got != want {
			t.Errorf("Expected %s, got %s", want, got)
		}
	})

	t.Run("env var overrides default", func(t *testing.T) {
		t.Setenv("DESIGNCRITIC_CONFIG_DIR", "/custom/config/dir")
		if got := Dir(); got != "/custom/config/dir" {
			t.Errorf("Expected /custom/config/dir, got %s", got)
		}
		if got := Path(); got != "/custom/config/dir/config.toml" {
			t.Errorf("Expected /custom/config/dir/config.toml, got %s", got)
		}
	})
}

func TestLoadFromMissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Temperature != Default().Temperature {
		t.Errorf("Expected default temperature, got %g", cfg.Temperature)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
model = "groq:llama-3.3-70b-versatile"
profile = "accessibility"
temperature = 0.5
max_retries = 4
repair_attempts = 1
redact = false
groq_api_key = "from-file"
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Model != "groq:llama-3.3-70b-versatile" {
		t.Errorf("Expected model from file, got %q", cfg.Model)
	}
	if cfg.Profile != "accessibility" {
		t.Errorf("Expected profile accessibility, got %q", cfg.Profile)
	}
	if cfg.Temperature != 0.5 {
		t.Errorf("Expected temperature 0.5, got %g", cfg.Temperature)
	}
	if cfg.MaxRetries != 4 || cfg.RepairAttempts != 1 {
		t.Errorf("Expected retries 4 and repairs 1, got %d and %d", cfg.MaxRetries, cfg.RepairAttempts)
	}
	if cfg.Redact {
		t.Error("Expected redact false from file")
	}
	// Unset keys keep their defaults.
	if cfg.MaxTokens != 1200 {
		t.Errorf("Expected default MaxTokens, got %d", cfg.MaxTokens)
	}
	if cfg.Keys().Groq != "from-file" {
		t.Errorf("Expected groq key from file, got %q", cfg.Keys().Groq)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
model = "gpt-4o"
groq_api_key = "from-file"
`)
	t.Setenv("GROQ_API_KEY", "from-env")
	t.Setenv("GOOGLE_API_KEY", "google")
	t.Setenv("GEMINI_API_KEY", "gemini")
	t.Setenv("DESIGNCRITIC_MODEL", "claude-sonnet-4-20250514")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	keys := cfg.Keys()
	if keys.Groq != "from-env" {
		t.Errorf("Expected env to override file key, got %q", keys.Groq)
	}
	if keys.Gemini != "gemini" {
		t.Errorf("Expected GEMINI_API_KEY to win over GOOGLE_API_KEY, got %q", keys.Gemini)
	}
	if cfg.Model != "claude-sonnet-4-20250514" {
		t.Errorf("Expected model from env, got %q", cfg.Model)
	}
}

func TestLoadFromErrors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "model = ", "config.Load"},
		{"unknown key", "modle = \"x\"\n", "unknown keys: modle"},
		{"wrong type", "max_tokens = \"many\"\n", "config.Load"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should contain %q", err, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"temperature", func(c *Config) { c.Temperature = 3 }, "temperature"},
		{"max tokens", func(c *Config) { c.MaxTokens = 0 }, "max_tokens"},
		{"retries", func(c *Config) { c.MaxRetries = -1 }, "max_retries"},
		{"repairs", func(c *Config) { c.RepairAttempts = 9 }, "repair_attempts"},
		{"timeout", func(c *Config) { c.TimeoutSeconds = -5 }, "timeout_seconds"},
		{"upload", func(c *Config) { c.MaxUploadBytes = 0 }, "max_upload_bytes"},
		{"concurrency", func(c *Config) { c.BatchConcurrency = 0 }, "batch_concurrency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Temperature = -1
	cfg.MaxTokens = -1
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"temperature", "max_tokens"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err, want)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Model = "gemini-2.0-flash"
	cfg.RepairAttempts = 1
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if *got != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
}

func TestReviewOptions(t *testing.T) {
	cfg := Default()
	cfg.Model = "gpt-4o"
	cfg.TimeoutSeconds = 30
	cfg.AttemptTimeoutSeconds = 10
	cfg.RepairAttempts = 1
	cfg.Redact = false

	opts := cfg.ReviewOptions()
	if opts.Settings.Model != "gpt-4o" || opts.Settings.Temperature != 0.2 || opts.Settings.MaxTokens != 1200 {
		t.Errorf("unexpected settings: %+v", opts.Settings)
	}
	if opts.Timeout != 30*time.Second || opts.AttemptTimeout != 10*time.Second {
		t.Errorf("unexpected timeouts: %s, %s", opts.Timeout, opts.AttemptTimeout)
	}
	if opts.MaxRetries != 2 || opts.RepairAttempts != 1 || opts.Redact {
		t.Errorf("unexpected retry options: %+v", opts)
	}
	if opts.BackoffBase == 0 || opts.BackoffMax == 0 {
		t.Error("backoff defaults should be kept")
	}
}
