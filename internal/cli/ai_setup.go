package cli

import (
	"fmt"
	"os"

	"github.com/logwhy/logwhy/internal/ai"
	"github.com/logwhy/logwhy/internal/ai/providers/ollama"
	"github.com/logwhy/logwhy/internal/ai/providers/openai"
	"github.com/logwhy/logwhy/internal/config"
)

// createProvider builds the configured AI provider.
func createProvider(cfg *config.Config) (ai.Provider, error) {
	switch cfg.AI.Provider {
	case "ollama":
		providerCfg := ollama.DefaultConfig()
		if cfg.AI.Endpoint != "" {
			providerCfg.BaseURL = cfg.AI.Endpoint
		}
		if cfg.AI.Model != "" {
			providerCfg.Model = cfg.AI.Model
		}
		if cfg.AI.Timeout > 0 {
			providerCfg.Timeout = cfg.AI.Timeout
		}
		if cfg.AI.TruncateLength > 0 {
			providerCfg.TruncateLength = cfg.AI.TruncateLength
		}
		return ollama.New(providerCfg)

	case "openai":
		providerCfg := openai.DefaultConfig()
		providerCfg.APIKey = cfg.AI.APIKey
		if providerCfg.APIKey == "" {
			providerCfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.AI.Endpoint != "" {
			providerCfg.BaseURL = cfg.AI.Endpoint
		}
		if cfg.AI.Model != "" {
			providerCfg.Model = cfg.AI.Model
		}
		if cfg.AI.Timeout > 0 {
			providerCfg.Timeout = cfg.AI.Timeout
		}
		if cfg.AI.TruncateLength > 0 {
			providerCfg.TruncateLength = cfg.AI.TruncateLength
		}
		return openai.New(providerCfg)

	default:
		return nil, &ai.ConfigurationError{
			Field:   "ai.provider",
			Message: fmt.Sprintf("unknown provider %q (available: ollama, openai)", cfg.AI.Provider),
		}
	}
}

// openCacheAt opens the response cache at the configured path and
// reports where it lives. Failures are reported to the caller, who
// degrades to uncached operation.
func openCacheAt(cfg *config.Config) (*ai.Cache, string, error) {
	path := cfg.Storage.CachePath
	if path == "" {
		var err error
		path, err = ai.DefaultCachePath()
		if err != nil {
			return nil, "", err
		}
	}
	cache, err := ai.OpenCache(path)
	if err != nil {
		return nil, path, err
	}
	return cache, path, nil
}

// createOrchestrator wires provider, cache, and retry policy together.
func createOrchestrator(provider ai.Provider, cache *ai.Cache, cfg *config.Config) (*ai.Orchestrator, error) {
	orchCfg := ai.Config{
		Concurrency:    cfg.AI.Concurrency,
		CacheEnabled:   cfg.AI.CacheEnabled,
		TruncateLength: cfg.AI.TruncateLength,
		Verbose:        isVerbose(),
		Retry: ai.RetryConfig{
			MaxRetries:     cfg.AI.MaxRetries,
			InitialBackoff: cfg.AI.InitialBackoff,
			MaxBackoff:     cfg.AI.MaxBackoff,
			Multiplier:     cfg.AI.BackoffMultiplier,
			Jitter:         cfg.AI.Jitter,
		},
	}
	return ai.NewOrchestrator(provider, cache, orchCfg)
}
