package common

import (
	"strings"
	"time"
)

// Severity represents the severity of a log entry, ordered from least to
// most severe. Unknown sorts below Trace so severity comparisons treat
// unclassifiable entries as least interesting.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityTrace
	SeverityDebug
	SeverityInfo
	SeverityWarn
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityTrace:
		return "TRACE"
	case SeverityDebug:
		return "DEBUG"
	case SeverityInfo:
		return "INFO"
	case SeverityWarn:
		return "WARN"
	case SeverityError:
		return "ERROR"
	case SeverityFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity parses a severity string. Unrecognized values map to
// SeverityUnknown rather than an error so a single odd log line cannot
// abort a whole file.
func ParseSeverity(s string) Severity {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return SeverityTrace
	case "DEBUG":
		return SeverityDebug
	case "INFO", "NOTICE":
		return SeverityInfo
	case "WARN", "WARNING":
		return SeverityWarn
	case "ERROR", "ERR":
		return SeverityError
	case "FATAL", "CRITICAL", "PANIC":
		return SeverityFatal
	default:
		return SeverityUnknown
	}
}

// LogEntry is a single parsed log line. Entries are immutable once parsed;
// the grouper only reads them.
type LogEntry struct {
	// Timestamp is the parsed event time. The zero value means the line
	// carried no parsable timestamp.
	Timestamp time.Time         `json:"timestamp,omitempty"`
	Severity  Severity          `json:"severity"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Raw       string            `json:"-"`
}

// HasTimestamp reports whether the entry carried a parsable timestamp.
func (e *LogEntry) HasTimestamp() bool {
	return !e.Timestamp.IsZero()
}
