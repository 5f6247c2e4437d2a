package formatter

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/logwhy/logwhy/internal/ai"
	"github.com/logwhy/logwhy/internal/common"
	"github.com/logwhy/logwhy/internal/grouper"
)

func sampleReport() *Report {
	group := &grouper.ErrorGroup{
		Fingerprint: "err-0123456789abcdef",
		Severity:    common.SeverityError,
		Pattern:     "connection refused to <IP>",
		Count:       12,
		FirstSeen:   time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		LastSeen:    time.Date(2024, 1, 15, 10, 5, 0, 0, time.UTC),
		Examples: []*common.LogEntry{
			{Severity: common.SeverityError, Message: "connection refused to 10.0.0.1", Raw: "ERROR connection refused to 10.0.0.1"},
		},
	}
	failedGroup := &grouper.ErrorGroup{
		Fingerprint: "err-fedcba9876543210",
		Severity:    common.SeverityWarn,
		Pattern:     "slow query",
		Count:       3,
	}

	return &Report{
		GeneratedAt:  time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC),
		TotalEntries: 240,
		Groups:       []*grouper.ErrorGroup{group, failedGroup},
		Results: []ai.GroupResult{
			{
				Group: group,
				Analysis: &ai.AnalysisResult{
					RootCause:   "backend listener is down",
					Impact:      "all writes fail",
					Suggestions: []ai.Suggestion{{Description: "restart the backend", Code: "systemctl restart svc"}},
					Confidence:  0.9,
					Provider:    "ollama",
					Model:       "llama3.2",
					Origin:      ai.OriginFresh,
				},
				Status:   ai.StatusFresh,
				Attempts: 1,
			},
			{
				Group:    failedGroup,
				Status:   ai.StatusFailed,
				Err:      errors.New("provider=ollama: kind=server: boom"),
				Attempts: 4,
			},
		},
		Statistics: &ai.Statistics{
			Provider: "ollama", Model: "llama3.2",
			TotalGroups: 2, Successful: 1, Failed: 1,
		},
	}
}

func TestNewSelectsFormatter(t *testing.T) {
	for _, format := range []string{"", "text", "json", "markdown"} {
		if _, err := New(format, false); err != nil {
			t.Errorf("New(%q) failed: %v", format, err)
		}
	}
	if _, err := New("csv", false); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestJSONFormatterOutput(t *testing.T) {
	output, err := NewJSON().Format(sampleReport())
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	var decoded struct {
		Summary struct {
			TotalEntries     int `json:"total_entries"`
			GroupCount       int `json:"group_count"`
			TotalOccurrences int `json:"total_occurrences"`
		} `json:"summary"`
		Groups []struct {
			Fingerprint string  `json:"fingerprint"`
			Severity    string  `json:"severity"`
			Count       int     `json:"count"`
			Status      string  `json:"status"`
			Error       string  `json:"error"`
			Analysis    *struct {
				RootCause string `json:"root_cause"`
			} `json:"analysis"`
		} `json:"groups"`
	}
	if err := json.Unmarshal(output, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if decoded.Summary.TotalEntries != 240 || decoded.Summary.GroupCount != 2 {
		t.Errorf("summary wrong: %+v", decoded.Summary)
	}
	if decoded.Summary.TotalOccurrences != 15 {
		t.Errorf("occurrences = %d, want 15", decoded.Summary.TotalOccurrences)
	}
	if len(decoded.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(decoded.Groups))
	}
	if decoded.Groups[0].Analysis == nil || decoded.Groups[0].Analysis.RootCause != "backend listener is down" {
		t.Errorf("first group analysis missing: %+v", decoded.Groups[0])
	}
	if decoded.Groups[1].Status != "failed" || decoded.Groups[1].Error == "" {
		t.Errorf("failed group not reported: %+v", decoded.Groups[1])
	}
}

func TestMarkdownFormatterOutput(t *testing.T) {
	output, err := NewMarkdown().Format(sampleReport())
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	text := string(output)

	for _, want := range []string{
		"# Error Investigation Report",
		"## Summary",
		"connection refused to <IP>",
		"**Root Cause**: backend listener is down",
		"restart the backend",
		"**Analysis failed**",
		"err-0123456789abcdef",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestTerminalFormatterOutput(t *testing.T) {
	output, err := NewTerminal(false).Format(sampleReport())
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	text := string(output)

	for _, want := range []string{
		"Summary",
		"connection refused to <IP>",
		"backend listener is down",
		"err-0123456789abcdef",
		"failed:",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("terminal output missing %q", want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		if got := formatNumber(tt.in); got != tt.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
