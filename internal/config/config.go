package config

import (
	"fmt"
	"time"
)

// Config holds the complete application configuration.
type Config struct {
	Version  string         `yaml:"version" json:"version"`
	AI       AIConfig       `yaml:"ai" json:"ai"`
	Grouping GroupingConfig `yaml:"grouping" json:"grouping"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	Output   OutputConfig   `yaml:"output" json:"output"`
}

// AIConfig configures the provider and the analysis orchestration.
type AIConfig struct {
	Provider string        `yaml:"provider" json:"provider"` // ollama|openai
	Model    string        `yaml:"model" json:"model"`
	Endpoint string        `yaml:"endpoint" json:"endpoint"`
	APIKey   string        `yaml:"api_key" json:"api_key"` // or LOGWHY_API_KEY
	Timeout  time.Duration `yaml:"timeout" json:"timeout"` // per provider call

	Concurrency    int  `yaml:"concurrency" json:"concurrency"` // in-flight calls, 1..20
	CacheEnabled   bool `yaml:"cache_enabled" json:"cache_enabled"`
	TruncateLength int  `yaml:"truncate_length" json:"truncate_length"`

	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
	InitialBackoff    time.Duration `yaml:"initial_backoff" json:"initial_backoff"`
	MaxBackoff        time.Duration `yaml:"max_backoff" json:"max_backoff"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" json:"backoff_multiplier"`
	Jitter            bool          `yaml:"jitter" json:"jitter"`
}

// GroupingConfig configures how entries fold into error groups.
type GroupingConfig struct {
	// BySeverity keeps severity in the grouping key. Off, entries group
	// on pattern text alone.
	BySeverity bool `yaml:"by_severity" json:"by_severity"`

	// MinSeverity is the lowest level worth grouping (trace..fatal).
	MinSeverity string `yaml:"min_severity" json:"min_severity"`

	// MaxExamples caps retained example entries per group.
	MaxExamples int `yaml:"max_examples" json:"max_examples"`
}

// StorageConfig configures the response cache location.
type StorageConfig struct {
	// CachePath is the sqlite database file; empty means the default
	// per-user location.
	CachePath string `yaml:"cache_path" json:"cache_path"`
}

// OutputConfig configures output rendering.
type OutputConfig struct {
	Format       string `yaml:"format" json:"format"` // text|json|markdown
	ShowProgress bool   `yaml:"show_progress" json:"show_progress"`
	NoColor      bool   `yaml:"no_color" json:"no_color"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		AI: AIConfig{
			Provider:          "ollama",
			Model:             "llama3.2",
			Endpoint:          "",
			Timeout:           60 * time.Second,
			Concurrency:       5,
			CacheEnabled:      true,
			TruncateLength:    2000,
			MaxRetries:        3,
			InitialBackoff:    time.Second,
			MaxBackoff:        30 * time.Second,
			BackoffMultiplier: 2.0,
			Jitter:            true,
		},
		Grouping: GroupingConfig{
			BySeverity:  true,
			MinSeverity: "warn",
			MaxExamples: 3,
		},
		Output: OutputConfig{
			Format:       "text",
			ShowProgress: true,
		},
	}
}

// Validate checks the configuration. This is the only error class that
// aborts a run before any work begins.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("invalid provider %q (must be one of: ollama, openai)", c.AI.Provider)
	}
	if c.AI.Concurrency < 1 || c.AI.Concurrency > 20 {
		return fmt.Errorf("concurrency must be between 1 and 20, got %d", c.AI.Concurrency)
	}
	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.AI.MaxRetries)
	}
	if c.AI.BackoffMultiplier < 1 {
		return fmt.Errorf("backoff_multiplier must be at least 1, got %g", c.AI.BackoffMultiplier)
	}
	if c.AI.InitialBackoff < 0 || c.AI.MaxBackoff < 0 {
		return fmt.Errorf("backoff durations must not be negative")
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.AI.Timeout)
	}
	switch c.Grouping.MinSeverity {
	case "", "trace", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid min_severity %q", c.Grouping.MinSeverity)
	}
	switch c.Output.Format {
	case "", "text", "json", "markdown":
	default:
		return fmt.Errorf("invalid output format %q (must be one of: text, json, markdown)", c.Output.Format)
	}
	return nil
}
