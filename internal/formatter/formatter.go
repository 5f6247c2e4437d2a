// Package formatter renders investigation reports as terminal text,
// JSON, or Markdown.
package formatter

import (
	"fmt"
	"time"

	"github.com/logwhy/logwhy/internal/ai"
	"github.com/logwhy/logwhy/internal/grouper"
)

// Report is the complete output of one investigation run.
type Report struct {
	GeneratedAt  time.Time
	TotalEntries int
	Groups       []*grouper.ErrorGroup

	// Results holds per-group analysis outcomes, aligned with Groups.
	// Nil when AI analysis was not requested.
	Results []ai.GroupResult

	// Statistics summarizes the analysis run. Nil without AI analysis.
	Statistics *ai.Statistics
}

// Formatter defines the interface for output formatting.
type Formatter interface {
	Format(report *Report) ([]byte, error)
}

// New returns the formatter for the named output format.
func New(format string, color bool) (Formatter, error) {
	switch format {
	case "", "text":
		return NewTerminal(color), nil
	case "json":
		return NewJSON(), nil
	case "markdown":
		return NewMarkdown(), nil
	default:
		return nil, fmt.Errorf("unknown format %q (available: text, json, markdown)", format)
	}
}
