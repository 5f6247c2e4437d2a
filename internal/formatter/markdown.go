package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/logwhy/logwhy/internal/ai"
	"github.com/logwhy/logwhy/internal/grouper"
)

// markdownFormatter formats output as Markdown.
type markdownFormatter struct{}

// NewMarkdown creates a new Markdown formatter.
func NewMarkdown() Formatter {
	return &markdownFormatter{}
}

func (f *markdownFormatter) Format(report *Report) ([]byte, error) {
	var b strings.Builder

	b.WriteString("# Error Investigation Report\n\n")
	generated := report.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	fmt.Fprintf(&b, "Generated: %s\n\n", generated.Format("2006-01-02 15:04:05"))

	f.writeSummaryTable(&b, report)

	for i, group := range report.Groups {
		var result *ai.GroupResult
		if i < len(report.Results) {
			result = &report.Results[i]
		}
		f.writeGroupSection(&b, i+1, group, result)
	}

	if report.Statistics != nil {
		f.writeStatistics(&b, report.Statistics)
	}

	return []byte(b.String()), nil
}

// writeSummaryTable writes the run summary table.
func (f *markdownFormatter) writeSummaryTable(b *strings.Builder, report *Report) {
	totalOccurrences := 0
	for _, g := range report.Groups {
		totalOccurrences += g.Count
	}

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(b, "| Entries Scanned | %s |\n", formatNumber(report.TotalEntries))
	fmt.Fprintf(b, "| Error Groups | %d |\n", len(report.Groups))
	fmt.Fprintf(b, "| Occurrences | %s |\n\n", formatNumber(totalOccurrences))
}

// writeGroupSection writes one group with samples and analysis.
func (f *markdownFormatter) writeGroupSection(b *strings.Builder, index int, group *grouper.ErrorGroup, result *ai.GroupResult) {
	fmt.Fprintf(b, "## %d. %s (%d occurrences)\n\n", index, group.Pattern, group.Count)
	fmt.Fprintf(b, "**Severity**: %s | **Fingerprint**: `%s`\n\n",
		group.Severity, group.Fingerprint)

	if group.HasTimeRange() {
		fmt.Fprintf(b, "First seen: %s | Last seen: %s\n\n",
			group.FirstSeen.Format("15:04:05"),
			group.LastSeen.Format("15:04:05"))
	}

	if len(group.Examples) > 0 {
		b.WriteString("Sample entries:\n")
		b.WriteString("```\n")
		for _, line := range exampleLines(group.Examples) {
			fmt.Fprintf(b, "%s\n", line)
		}
		b.WriteString("```\n\n")
	}

	if result == nil {
		return
	}

	switch {
	case result.Status == ai.StatusFailed:
		fmt.Fprintf(b, "**Analysis failed**: %s\n\n", failureText(result))
	case result.Analysis != nil:
		f.writeAnalysis(b, result)
	}
}

func (f *markdownFormatter) writeAnalysis(b *strings.Builder, result *ai.GroupResult) {
	analysis := result.Analysis

	heading := "### Analysis"
	if analysis.Origin == ai.OriginCached {
		heading += " (cached)"
	}
	b.WriteString(heading + "\n\n")

	fmt.Fprintf(b, "**Root Cause**: %s\n\n", analysis.RootCause)
	if analysis.Impact != "" {
		fmt.Fprintf(b, "**Impact**: %s\n\n", analysis.Impact)
	}

	if len(analysis.Suggestions) > 0 {
		b.WriteString("**Suggested fixes**:\n\n")
		for i, s := range analysis.Suggestions {
			fmt.Fprintf(b, "%d. %s\n", i+1, s.Description)
			if s.Code != "" {
				fmt.Fprintf(b, "   ```\n   %s\n   ```\n", s.Code)
			}
		}
		b.WriteString("\n")
	}

	confidenceBar := createConfidenceBar(analysis.Confidence)
	fmt.Fprintf(b, "**Confidence**: %s %.0f%%\n\n", confidenceBar, analysis.Confidence*100)
}

// writeStatistics writes the analysis statistics block.
func (f *markdownFormatter) writeStatistics(b *strings.Builder, stats *ai.Statistics) {
	b.WriteString("## Analysis Statistics\n\n")
	b.WriteString("```\n")
	b.WriteString(stats.Summary())
	b.WriteString("```\n")
}
