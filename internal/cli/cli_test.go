package cli

import (
	"testing"

	"github.com/logwhy/logwhy/internal/ai"
	"github.com/logwhy/logwhy/internal/common"
	"github.com/logwhy/logwhy/internal/config"
)

func TestGroupEntriesSeverityFallback(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Grouping.MinSeverity = ""

	entries := []*common.LogEntry{
		{Severity: common.SeverityInfo, Message: "started"},
		{Severity: common.SeverityError, Message: "boom"},
	}

	groups := groupEntries(cfg, entries)
	if len(groups) != 1 {
		t.Fatalf("expected info entry skipped under warn fallback, got %d groups", len(groups))
	}
	if groups[0].Pattern != "boom" {
		t.Errorf("unexpected pattern %q", groups[0].Pattern)
	}
}

func TestCreateProviderSelection(t *testing.T) {
	cfg := config.DefaultConfig()

	provider, err := createProvider(cfg)
	if err != nil {
		t.Fatalf("ollama provider: %v", err)
	}
	if provider.Name() != "ollama" {
		t.Errorf("expected ollama, got %q", provider.Name())
	}
	_ = provider.Close()

	cfg.AI.Provider = "openai"
	cfg.AI.APIKey = "sk-test"
	cfg.AI.Model = "gpt-4o-mini"
	provider, err = createProvider(cfg)
	if err != nil {
		t.Fatalf("openai provider: %v", err)
	}
	if provider.Name() != "openai" || provider.Model() != "gpt-4o-mini" {
		t.Errorf("unexpected provider %q/%q", provider.Name(), provider.Model())
	}
	_ = provider.Close()

	cfg.AI.Provider = "bedrock"
	if _, err := createProvider(cfg); err == nil {
		t.Fatal("expected error for unknown provider")
	} else if _, ok := err.(*ai.ConfigurationError); !ok {
		t.Errorf("expected *ai.ConfigurationError, got %T", err)
	}
}

func TestCreateOrchestratorFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	provider, err := createProvider(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = provider.Close() }()

	orch, err := createOrchestrator(provider, nil, cfg)
	if err != nil {
		t.Fatalf("create orchestrator: %v", err)
	}
	if orch == nil {
		t.Fatal("expected orchestrator")
	}
}
