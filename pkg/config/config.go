package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// configFile is resolved relative to the working directory, matching how the
// CLI is run from a build workspace.
const configFile = "config.yaml"

// Config holds all configuration for fieldscore.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, connection strings that can embed credentials) must only
// come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	// Embedded score store (SQLite)
	Store StoreConfig `yaml:"store"`

	// Pilot review snapshot inputs
	Reviews ReviewsConfig `yaml:"reviews"`

	// Versioned build artifacts (ontology, features, personas)
	Artifacts ArtifactsConfig `yaml:"artifacts"`

	// AIP facts source
	Facts FactsConfig `yaml:"facts"`

	// LLM extraction endpoint
	LLM LLMConfig `yaml:"llm"`

	// Build pipeline tuning
	Build BuildConfig `yaml:"build"`
}

// StoreConfig holds the embedded score store settings.
type StoreConfig struct {
	// Path is the SQLite file the build writes and the score commands read.
	Path string `yaml:"path" env:"STORE_PATH" env-default:"fieldscore.db"`

	// BusyTimeoutMS bounds how long a statement waits on a locked store
	// before failing with SQLITE_BUSY.
	BusyTimeoutMS int `yaml:"busy_timeout_ms" env:"STORE_BUSY_TIMEOUT_MS" env-default:"5000"`
}

// BusyTimeout returns BusyTimeoutMS as a duration.
func (c *StoreConfig) BusyTimeout() time.Duration {
	return time.Duration(c.BusyTimeoutMS) * time.Millisecond
}

// ReviewsConfig holds the pilot review snapshot inputs.
type ReviewsConfig struct {
	// PathsStr is a comma-separated list of review snapshot JSONL files.
	// Format: "snapshots/2026-02.jsonl,snapshots/2026-03.jsonl"
	PathsStr string `yaml:"paths" env:"REVIEWS_PATHS" env-default:""`

	// Paths is the parsed list from PathsStr (not from config file).
	Paths []string `yaml:"-"`
}

// ArtifactsConfig points at the versioned build inputs. Empty paths fall
// back to the embedded defaults.
type ArtifactsConfig struct {
	OntologyPath string `yaml:"ontology_path" env:"ONTOLOGY_PATH" env-default:""`
	FeaturesPath string `yaml:"features_path" env:"FEATURES_PATH" env-default:""`
	PersonasPath string `yaml:"personas_path" env:"PERSONAS_PATH" env-default:""`
}

// FactsConfig holds the AIP facts source settings.
type FactsConfig struct {
	// Driver selects the facts backend: "static" (YAML file), "postgres" or
	// "sqlserver". Empty runs the build without a facts source.
	Driver string `yaml:"driver" env:"FACTS_DRIVER" env-default:""`

	// DSN is the connection string, or the file path for the static driver.
	DSN string `yaml:"-" env:"FACTS_DSN"` // Secret - not in YAML, DSNs can embed credentials
}

// LLMConfig holds the extraction endpoint settings.
type LLMConfig struct {
	// Provider selects the client: "openai" (any OpenAI-compatible endpoint,
	// including self-hosted vLLM/Ollama) or "anthropic".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model    string `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o-mini"`

	// MaxTokens caps responses for providers that require an explicit cap.
	MaxTokens int `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"1024"`

	APIKey string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
}

// BuildConfig holds the pipeline tuning knobs.
type BuildConfig struct {
	// Workers bounds concurrent airport processing, and with it concurrent
	// extraction calls.
	Workers int `yaml:"workers" env:"BUILD_WORKERS" env-default:"4"`

	// Retry settings for transient extraction and store failures.
	MaxRetries     int `yaml:"max_retries" env:"BUILD_MAX_RETRIES" env-default:"3"`
	InitialDelayMS int `yaml:"initial_delay_ms" env:"BUILD_INITIAL_DELAY_MS" env-default:"100"`
	MaxDelayMS     int `yaml:"max_delay_ms" env:"BUILD_MAX_DELAY_MS" env-default:"5000"`

	// AIConfidenceScale multiplies the confidence of tags extracted from
	// reviews flagged as AI generated. Values between 0 and 1 down-weight
	// them; 1 keeps them at face value.
	AIConfidenceScale float64 `yaml:"ai_confidence_scale" env:"BUILD_AI_CONFIDENCE_SCALE" env-default:"1"`

	// MetricsAddr, when set, serves Prometheus metrics for the duration of
	// the build, e.g. "127.0.0.1:9090".
	MetricsAddr string `yaml:"metrics_addr" env:"BUILD_METRICS_ADDR" env-default:""`
}

// InitialDelay returns InitialDelayMS as a duration.
func (c *BuildConfig) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelayMS) * time.Millisecond
}

// MaxDelay returns MaxDelayMS as a duration.
func (c *BuildConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMS) * time.Millisecond
}

// Load reads configuration from config.yaml with environment variable
// overrides. The file is optional: a build can be configured from environment
// variables and command-line flags alone. The version parameter is injected
// at build time and set on the returned Config. Secrets (LLM_API_KEY,
// FACTS_DSN) must come from environment variables (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(configFile); err == nil {
		if err := cleanenv.ReadConfig(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", configFile, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	// Parse complex fields
	if err := cfg.parseComplexFields(); err != nil {
		return nil, fmt.Errorf("failed to parse config fields: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// parseComplexFields handles fields that need post-processing after loading.
func (c *Config) parseComplexFields() error {
	c.Reviews.Paths = splitPaths(c.Reviews.PathsStr)
	return nil
}

// validate checks the numeric tuning knobs. Backend-specific settings
// (facts driver, LLM endpoint) are validated by the factories that consume
// them, where the error can name the backend.
func (c *Config) validate() error {
	if c.Build.Workers < 1 {
		return fmt.Errorf("build.workers must be at least 1, got %d", c.Build.Workers)
	}
	if c.Build.MaxRetries < 0 {
		return fmt.Errorf("build.max_retries must not be negative, got %d", c.Build.MaxRetries)
	}
	if c.Build.InitialDelayMS < 0 || c.Build.MaxDelayMS < 0 {
		return fmt.Errorf("build retry delays must not be negative")
	}
	if c.Build.AIConfidenceScale < 0 || c.Build.AIConfidenceScale > 1 {
		return fmt.Errorf("build.ai_confidence_scale must be between 0 and 1, got %g", c.Build.AIConfidenceScale)
	}
	if c.Store.BusyTimeoutMS < 0 {
		return fmt.Errorf("store.busy_timeout_ms must not be negative, got %d", c.Store.BusyTimeoutMS)
	}
	return nil
}

// splitPaths parses a comma-separated path list, trimming whitespace and
// dropping empty entries.
func splitPaths(value string) []string {
	if value == "" {
		return nil
	}
	var paths []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
