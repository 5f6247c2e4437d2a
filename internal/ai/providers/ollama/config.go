package ollama

import (
	"time"

	"github.com/logwhy/logwhy/internal/ai"
)

// Config holds Ollama-specific configuration.
type Config struct {
	// BaseURL is the Ollama API endpoint.
	BaseURL string `json:"base_url"`

	// Model is the model queried for analyses.
	Model string `json:"model"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `json:"timeout"`

	// Temperature for generation.
	Temperature float64 `json:"temperature"`

	// TruncateLength caps example text sent per group.
	TruncateLength int `json:"truncate_length"`
}

// DefaultConfig returns a configuration for a local Ollama daemon.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "http://localhost:11434",
		Model:          "llama3.2",
		Timeout:        60 * time.Second,
		Temperature:    0.2,
		TruncateLength: ai.DefaultTruncateLength,
	}
}

// Validate checks the configuration before construction.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return &ai.ConfigurationError{Field: "ollama.base_url", Message: "base URL is required"}
	}
	if c.Model == "" {
		return &ai.ConfigurationError{Field: "ollama.model", Message: "model is required"}
	}
	if c.Timeout <= 0 {
		return &ai.ConfigurationError{Field: "ollama.timeout", Message: "timeout must be positive"}
	}
	if c.Temperature < 0 || c.Temperature > 1 {
		return &ai.ConfigurationError{Field: "ollama.temperature", Message: "temperature must be between 0 and 1"}
	}
	return nil
}
