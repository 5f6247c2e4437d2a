package ai

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/logwhy/logwhy/internal/common"
	"github.com/logwhy/logwhy/internal/grouper"
)

func TestBuildAnalysisPromptIncludesGroup(t *testing.T) {
	group := &grouper.ErrorGroup{
		Fingerprint: "err-0123456789abcdef",
		Severity:    common.SeverityError,
		Pattern:     "Connection refused to <IP>",
		Count:       4,
	}
	prompt := BuildAnalysisPrompt(group, 0)

	text := prompt.String()
	if !strings.Contains(text, "Connection refused to <IP>") {
		t.Errorf("prompt missing pattern: %s", text)
	}
	if prompt.SystemPrompt == "" {
		t.Error("expected a system prompt")
	}
}

func TestTruncateTextRuneBoundary(t *testing.T) {
	// "héllo" is 6 bytes; a 5-byte cut falls inside nothing, a 2-byte cut
	// falls in the middle of the two-byte é.
	s := "héllo"

	got := truncateText(s, 2)
	if !utf8.ValidString(got) {
		t.Errorf("truncated text is not valid UTF-8: %q", got)
	}
	if got != "h..." {
		t.Errorf("expected cut before split rune, got %q", got)
	}

	if got := truncateText(s, 10); got != s {
		t.Errorf("short text must pass through, got %q", got)
	}
}

func TestClipRunes(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"ascii within limit", "error", 10, "error"},
		{"ascii at limit", "error", 5, "error"},
		{"ascii cut", "database locked", 8, "database"},
		{"multibyte cut backs up", "日本語", 4, "日"},
		{"cut on boundary keeps rune", "日本語", 6, "日本"},
		{"limit zero", "abc", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clipRunes(tt.in, tt.limit)
			if got != tt.want {
				t.Errorf("clipRunes(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("clipRunes produced invalid UTF-8: %q", got)
			}
		})
	}
}

func TestStatusErrorTruncatesBodyOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("é", 150) // 300 bytes
	perr := StatusError("openai", 500, body, 0)

	if len(perr.Message) > 200 {
		t.Errorf("message not truncated: %d bytes", len(perr.Message))
	}
	if !utf8.ValidString(perr.Message) {
		t.Errorf("truncated message is not valid UTF-8: %q", perr.Message)
	}
}
