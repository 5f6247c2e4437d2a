package openai

import (
	"time"

	"github.com/logwhy/logwhy/internal/ai"
)

// Config holds configuration for OpenAI-compatible chat APIs.
type Config struct {
	// APIKey authenticates requests.
	APIKey string `json:"api_key"`

	// BaseURL is the API root; any OpenAI-compatible endpoint works.
	BaseURL string `json:"base_url"`

	// Model is the model queried for analyses.
	Model string `json:"model"`

	// OrganizationID is optional and sent as a header when set.
	OrganizationID string `json:"organization_id,omitempty"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `json:"timeout"`

	// Temperature for generation.
	Temperature float64 `json:"temperature"`

	// TruncateLength caps example text sent per group.
	TruncateLength int `json:"truncate_length"`
}

// DefaultConfig returns the stock OpenAI configuration. The API key must
// still be supplied.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "https://api.openai.com",
		Model:          "gpt-4o-mini",
		Timeout:        60 * time.Second,
		Temperature:    0.2,
		TruncateLength: ai.DefaultTruncateLength,
	}
}

// Validate checks the configuration before construction.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return &ai.ConfigurationError{Field: "openai.api_key", Message: "API key is required"}
	}
	if c.BaseURL == "" {
		return &ai.ConfigurationError{Field: "openai.base_url", Message: "base URL is required"}
	}
	if c.Model == "" {
		return &ai.ConfigurationError{Field: "openai.model", Message: "model is required"}
	}
	if c.Timeout <= 0 {
		return &ai.ConfigurationError{Field: "openai.timeout", Message: "timeout must be positive"}
	}
	return nil
}
