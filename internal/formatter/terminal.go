package formatter

import (
	"fmt"
	"strings"

	"github.com/logwhy/logwhy/internal/ai"
	"github.com/logwhy/logwhy/internal/grouper"
	"github.com/yildizm/go-termfmt"
)

// terminalFormatter formats output as plain text for terminal display
// using go-termfmt.
type terminalFormatter struct {
	opts *termfmt.TerminalOptions
}

// NewTerminal creates a new terminal formatter with optional color support.
func NewTerminal(color bool) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = true
	return &terminalFormatter{opts: opts}
}

func (f *terminalFormatter) Format(report *Report) ([]byte, error) {
	var b strings.Builder

	f.writeSummary(&b, report)

	for i, group := range report.Groups {
		var result *ai.GroupResult
		if i < len(report.Results) {
			result = &report.Results[i]
		}
		f.writeGroup(&b, i+1, group, result)
	}

	if report.Statistics != nil {
		f.writeStatistics(&b, report.Statistics)
	}

	return []byte(b.String()), nil
}

// writeSummary writes the run summary with tree-style formatting.
func (f *terminalFormatter) writeSummary(b *strings.Builder, report *Report) {
	symbol := termfmt.GetEmoji("statistics", f.opts)
	b.WriteString(symbol + " Summary\n")

	totalOccurrences := 0
	for _, g := range report.Groups {
		totalOccurrences += g.Count
	}

	items := []termfmt.TreeItem{
		{Label: "Entries Scanned", Value: formatNumber(report.TotalEntries)},
		{Label: "Error Groups", Value: formatNumber(len(report.Groups))},
		{Label: "Occurrences", Value: formatNumber(totalOccurrences), Last: true},
	}

	tree := termfmt.TreeViewWithOptions(items, f.opts)
	b.WriteString(tree + "\n\n")
}

// writeGroup writes one error group section, with its analysis when one
// is available.
func (f *terminalFormatter) writeGroup(b *strings.Builder, index int, group *grouper.ErrorGroup, result *ai.GroupResult) {
	emoji := getSeverityEmoji(group.Severity, f.opts)
	fmt.Fprintf(b, "%s [%d] %s (%d occurrences)\n", emoji, index, group.Pattern, group.Count)

	items := []termfmt.TreeItem{
		{Label: "Severity", Value: group.Severity.String()},
		{Label: "Fingerprint", Value: group.Fingerprint},
	}
	if group.HasTimeRange() {
		items = append(items, termfmt.TreeItem{
			Label: "Seen",
			Value: fmt.Sprintf("%s to %s", group.FirstSeen.Format("15:04:05"), group.LastSeen.Format("15:04:05")),
		})
	}
	hasOutcome := result != nil && (hasAnalysis(result) || result.Status == ai.StatusFailed)
	items[len(items)-1].Last = !hasOutcome

	if result != nil && hasAnalysis(result) {
		items = append(items, f.analysisItem(result))
	} else if hasOutcome {
		items = append(items, termfmt.TreeItem{
			Label: "Analysis",
			Value: "failed: " + failureText(result),
			Last:  true,
		})
	}

	tree := termfmt.TreeViewWithOptions(items, f.opts)
	b.WriteString(tree + "\n\n")
}

func (f *terminalFormatter) analysisItem(result *ai.GroupResult) termfmt.TreeItem {
	analysis := result.Analysis

	label := "Analysis"
	if analysis.Origin == ai.OriginCached {
		label = "Analysis (cached)"
	}

	children := []termfmt.TreeItem{
		{Label: "Root Cause", Value: analysis.RootCause},
	}
	if analysis.Impact != "" {
		children = append(children, termfmt.TreeItem{Label: "Impact", Value: analysis.Impact})
	}
	for i, s := range analysis.Suggestions {
		value := s.Description
		if s.Code != "" {
			value += " | " + s.Code
		}
		children = append(children, termfmt.TreeItem{
			Label: fmt.Sprintf("Fix %d", i+1),
			Value: value,
		})
	}
	confidenceBar := termfmt.CreateConfidenceBar(analysis.Confidence, f.opts)
	children = append(children, termfmt.TreeItem{
		Label: "Confidence",
		Value: fmt.Sprintf("%s %.0f%%", confidenceBar, analysis.Confidence*100),
		Last:  true,
	})

	return termfmt.TreeItem{Label: label, Children: children, Last: true}
}

// writeStatistics writes the analysis statistics block.
func (f *terminalFormatter) writeStatistics(b *strings.Builder, stats *ai.Statistics) {
	symbol := termfmt.GetEmoji("ai", f.opts)
	b.WriteString(symbol + " " + stats.Summary())
}

func hasAnalysis(result *ai.GroupResult) bool {
	return result.Status != ai.StatusFailed && result.Analysis != nil
}

func failureText(result *ai.GroupResult) string {
	if result.Err == nil {
		return "unknown error"
	}
	text := result.Err.Error()
	if result.Attempts > 1 {
		text = fmt.Sprintf("%s (after %d attempts)", text, result.Attempts)
	}
	return text
}
