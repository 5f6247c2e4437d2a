package formatter

import (
	"encoding/json"
	"time"

	"github.com/logwhy/logwhy/internal/ai"
	"github.com/logwhy/logwhy/internal/common"
)

// jsonFormatter formats output as JSON.
type jsonFormatter struct{}

// NewJSON creates a new JSON formatter.
func NewJSON() Formatter {
	return &jsonFormatter{}
}

func (f *jsonFormatter) Format(report *Report) ([]byte, error) {
	output := &jsonOutput{
		GeneratedAt: report.GeneratedAt,
		Summary: &summaryOutput{
			TotalEntries: report.TotalEntries,
			GroupCount:   len(report.Groups),
		},
		Groups:     createGroupOutputs(report),
		Statistics: report.Statistics,
	}
	for _, g := range report.Groups {
		output.Summary.TotalOccurrences += g.Count
	}

	return json.MarshalIndent(output, "", "  ")
}

// jsonOutput is the top-level JSON report structure.
type jsonOutput struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Summary     *summaryOutput `json:"summary"`
	Groups      []*groupOutput `json:"groups"`
	Statistics  *ai.Statistics `json:"statistics,omitempty"`
}

type summaryOutput struct {
	TotalEntries     int `json:"total_entries"`
	GroupCount       int `json:"group_count"`
	TotalOccurrences int `json:"total_occurrences"`
}

// groupOutput is one error group plus its analysis outcome.
type groupOutput struct {
	Fingerprint string             `json:"fingerprint"`
	Severity    string             `json:"severity"`
	Pattern     string             `json:"pattern"`
	Count       int                `json:"count"`
	FirstSeen   *time.Time         `json:"first_seen,omitempty"`
	LastSeen    *time.Time         `json:"last_seen,omitempty"`
	Examples    []string           `json:"examples,omitempty"`
	Analysis    *ai.AnalysisResult `json:"analysis,omitempty"`
	Status      string             `json:"status,omitempty"`
	Error       string             `json:"error,omitempty"`
	Attempts    int                `json:"attempts,omitempty"`
}

func createGroupOutputs(report *Report) []*groupOutput {
	outputs := make([]*groupOutput, 0, len(report.Groups))

	for i, group := range report.Groups {
		output := &groupOutput{
			Fingerprint: group.Fingerprint,
			Severity:    group.Severity.String(),
			Pattern:     group.Pattern,
			Count:       group.Count,
			Examples:    exampleLines(group.Examples),
		}
		if group.HasTimeRange() {
			first, last := group.FirstSeen, group.LastSeen
			output.FirstSeen = &first
			output.LastSeen = &last
		}

		if i < len(report.Results) {
			result := &report.Results[i]
			output.Status = string(result.Status)
			output.Analysis = result.Analysis
			output.Attempts = result.Attempts
			if result.Err != nil {
				output.Error = result.Err.Error()
			}
		}

		outputs = append(outputs, output)
	}

	return outputs
}

func exampleLines(examples []*common.LogEntry) []string {
	lines := make([]string, 0, len(examples))
	for _, e := range examples {
		if e.Raw != "" {
			lines = append(lines, e.Raw)
		} else {
			lines = append(lines, e.Message)
		}
	}
	return lines
}
