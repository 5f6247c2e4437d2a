package ai

import (
	"context"
	"time"

	"github.com/logwhy/logwhy/internal/grouper"
)

// Origin records whether an analysis was generated on this run or served
// from the response cache.
type Origin string

const (
	OriginFresh  Origin = "fresh"
	OriginCached Origin = "cached"
)

// Suggestion is one proposed fix, optionally with a code excerpt.
type Suggestion struct {
	Description string `json:"description"`
	Code        string `json:"code,omitempty"`
}

// AnalysisResult is the structured explanation produced for one error
// group, either by the extraction engine or loaded verbatim from cache.
type AnalysisResult struct {
	RootCause   string       `json:"root_cause"`
	Impact      string       `json:"impact,omitempty"`
	Suggestions []Suggestion `json:"suggestions"`
	Confidence  float64      `json:"confidence"`
	Provider    string       `json:"provider"`
	Model       string       `json:"model"`
	Origin      Origin       `json:"origin"`
}

// Status reports how one group's analysis concluded.
type Status string

const (
	StatusCached Status = "cached"
	StatusFresh  Status = "fresh"
	StatusFailed Status = "failed"
)

// GroupResult pairs an input group with its analysis outcome. AnalyzeAll
// returns one per input group, in input order.
type GroupResult struct {
	Group    *grouper.ErrorGroup
	Analysis *AnalysisResult
	Status   Status
	Err      error
	Attempts int
	Latency  time.Duration
}

// Provider is the capability that turns an error group into free-form
// analysis text. Concrete implementations form a closed set selected at
// construction time; everything above depends only on this interface.
type Provider interface {
	// Name identifies the backend, e.g. "ollama" or "openai".
	Name() string

	// Model identifies the model the provider will query.
	Model() string

	// Analyze produces raw analysis text for the group. Failures are
	// *ProviderError values so the retry policy can classify them.
	Analyze(ctx context.Context, group *grouper.ErrorGroup) (string, error)

	// Close releases provider resources.
	Close() error
}
