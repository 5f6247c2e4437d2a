package ai

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/logwhy/logwhy/internal/grouper"
	"github.com/yildizm/go-promptfmt"
)

// DefaultTruncateLength caps how much of each example message is sent to
// a provider.
const DefaultTruncateLength = 2000

const analysisSystemPrompt = "You are an expert at diagnosing application errors from log patterns. " +
	"Explain the likely root cause, its impact, and concrete fixes. " +
	"Respond with JSON only."

// analysisSchema is the response shape requested from the model. It
// matches what the extraction engine parses.
type analysisSchema struct {
	RootCause   string `json:"root_cause"`
	Impact      string `json:"impact"`
	Suggestions []struct {
		Description string `json:"description"`
		Code        string `json:"code,omitempty"`
	} `json:"suggestions"`
	Confidence float64 `json:"confidence"`
}

// BuildAnalysisPrompt constructs the prompt sent for one error group.
// truncate bounds the per-example message length; <= 0 uses the default.
func BuildAnalysisPrompt(group *grouper.ErrorGroup, truncate int) *promptfmt.Prompt {
	if truncate <= 0 {
		truncate = DefaultTruncateLength
	}

	pb := promptfmt.New().
		System(analysisSystemPrompt).
		User("Diagnose this recurring log pattern.\n\nSeverity: %s\nOccurrences: %d\nPattern: %s",
			group.Severity, group.Count, truncateText(group.Pattern, truncate))

	if len(group.Examples) > 0 {
		var b strings.Builder
		for i, entry := range group.Examples {
			msg := entry.Raw
			if msg == "" {
				msg = entry.Message
			}
			fmt.Fprintf(&b, "[%d] %s\n", i+1, truncateText(msg, truncate))
		}
		pb.AddContext("examples", b.String())
	}

	return pb.ExpectJSON(&analysisSchema{}).Build()
}

func truncateText(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return clipRunes(s, limit) + "..."
}

// clipRunes cuts s at the last rune boundary at or before limit bytes, so
// a multi-byte rune is never split into invalid UTF-8.
func clipRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
