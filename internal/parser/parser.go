// Package parser adapts go-logparser output to the internal log entry
// model. Format detection and decoding live in the library; the grouper
// only assumes severity and message are populated.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/logwhy/logwhy/internal/common"
	"github.com/yildizm/go-logparser"
)

// DefaultMaxLines caps how many input lines one run will read.
const DefaultMaxLines = 100000

// Parse reads log lines from r and returns parsed entries. format is one
// of auto, json, logfmt, text.
func Parse(r io.Reader, format string, maxLines int) ([]*common.LogEntry, error) {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}

	lines, err := readLines(r, maxLines)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no log entries found")
	}

	p, err := newParser(format)
	if err != nil {
		return nil, err
	}

	parsed, err := p.ParseString(strings.Join(lines, "\n"))
	if err != nil {
		return nil, fmt.Errorf("parse logs: %w", err)
	}

	return convert(parsed, lines), nil
}

func newParser(format string) (logparser.Parser, error) {
	switch format {
	case "", "auto":
		return logparser.New(), nil
	case "json":
		return logparser.NewWithFormat(logparser.FormatJSON), nil
	case "logfmt":
		return logparser.NewWithFormat(logparser.FormatLogfmt), nil
	case "text":
		return logparser.NewWithFormat(logparser.FormatText), nil
	default:
		return nil, fmt.Errorf("unknown format %q (available: auto, json, logfmt, text)", format)
	}
}

// convert maps parsed entries to the internal model. Raw lines are only
// attributed when the parser kept a strict one-to-one mapping; a dropped
// or merged line would misalign every later entry.
func convert(parsed []logparser.LogEntry, lines []string) []*common.LogEntry {
	aligned := len(parsed) == len(lines)

	entries := make([]*common.LogEntry, len(parsed))
	for i := range parsed {
		raw := ""
		if aligned {
			raw = lines[i]
		}
		entries[i] = &common.LogEntry{
			Timestamp: parsed[i].Timestamp,
			Severity:  common.ParseSeverity(parsed[i].Level),
			Message:   parsed[i].Message,
			Raw:       raw,
		}
	}
	return entries
}

func readLines(r io.Reader, maxLines int) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() && len(lines) < maxLines {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return lines, fmt.Errorf("scanner error: %w", err)
	}
	return lines, nil
}
