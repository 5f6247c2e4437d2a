package grouper

import (
	"regexp"
	"strings"
)

// rule rewrites one class of dynamic substrings to a typed placeholder.
type rule struct {
	re          *regexp.Regexp
	placeholder string
}

// Substitution rules, in match order. Specific shapes (timestamps, UUIDs,
// addresses, URLs, paths) run before the generic numeric rules so a broad
// rule never consumes characters that belong to a narrower one.
var rules = []rule{
	// ISO-8601-ish timestamps, with optional fraction and zone.
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?`), "<TIMESTAMP>"},
	// Nginx-style timestamps.
	{regexp.MustCompile(`\d{4}/\d{2}/\d{2}\s+\d{2}:\d{2}:\d{2}`), "<TIMESTAMP>"},
	{regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`), "<UUID>"},
	// IPv6 needs at least four groups or a "::" so times like 12:30:45
	// are not swallowed.
	{regexp.MustCompile(`\b(?:[0-9a-fA-F]{1,4}:){3,7}[0-9a-fA-F]{1,4}\b`), "<IP>"},
	{regexp.MustCompile(`\b[0-9a-fA-F]{0,4}::(?:[0-9a-fA-F]{1,4}(?::[0-9a-fA-F]{1,4})*)?\b`), "<IP>"},
	{regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}(?::\d+)?\b`), "<IP>"},
	{regexp.MustCompile(`https?://[^\s"']+`), "<URL>"},
	// File paths with a trailing :line, then bare paths.
	{regexp.MustCompile(`(?:\.{0,2}/)?(?:[\w.-]+/)+[\w.-]+:\d+\b`), "<PATH>"},
	{regexp.MustCompile(`(?:/[\w.-]+){2,}`), "<PATH>"},
	{regexp.MustCompile(`\b[\w-]+\.[A-Za-z]{1,4}:\d+\b`), "<PATH>"},
	// Thread and worker identifiers like [nio-8080-exec-1] or exec-7.
	{regexp.MustCompile(`\[[\w.-]+-\d+\]`), "<THREAD>"},
	{regexp.MustCompile(`\bexec-\d+\b`), "<THREAD>"},
	{regexp.MustCompile(`\b(?:pid|tid|thread)[=: ]\d+\b`), "<THREAD>"},
	{regexp.MustCompile(`\b0x[0-9a-fA-F]+\b`), "<HEX>"},
	// Bare integers of 5+ digits: IDs, ports, epoch fragments.
	{regexp.MustCompile(`\b\d{5,}\b`), "<NUM>"},
}

var whitespace = regexp.MustCompile(`\s+`)

// Normalize reduces a raw log message to its stable pattern by replacing
// dynamic substrings with typed placeholders and collapsing whitespace.
// It is a pure function and idempotent: placeholders contain nothing the
// rules can match again.
func Normalize(raw string) string {
	s := raw
	for _, r := range rules {
		s = r.re.ReplaceAllString(s, r.placeholder)
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
