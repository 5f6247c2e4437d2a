package formatter

import (
	"fmt"

	"github.com/logwhy/logwhy/internal/common"
	"github.com/yildizm/go-termfmt"
)

// formatNumber formats numbers with commas for readability.
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return addCommas(fmt.Sprintf("%d", n))
}

// addCommas adds commas to number strings.
func addCommas(s string) string {
	if len(s) <= 3 {
		return s
	}
	return addCommas(s[:len(s)-3]) + "," + s[len(s)-3:]
}

// getSeverityEmoji returns the emoji for a severity level using go-termfmt.
func getSeverityEmoji(severity common.Severity, opts *termfmt.TerminalOptions) string {
	switch severity {
	case common.SeverityFatal, common.SeverityError:
		return termfmt.GetEmoji("error", opts)
	case common.SeverityWarn:
		return termfmt.GetEmoji("warning", opts)
	case common.SeverityInfo:
		return termfmt.GetEmoji("info", opts)
	default:
		return termfmt.GetEmoji("insight", opts)
	}
}

// createConfidenceBar creates an ASCII confidence bar using go-termfmt.
func createConfidenceBar(confidence float64) string {
	opts := termfmt.DefaultOptions()
	return termfmt.CreateConfidenceBar(confidence, opts)
}
