package grouper

import (
	"sort"

	"github.com/logwhy/logwhy/internal/common"
)

// Options controls how entries fold into groups.
type Options struct {
	// BySeverity includes severity in the grouping key, so a WARN and an
	// ERROR that normalize to the same text stay separate groups.
	BySeverity bool

	// MinSeverity is the lowest severity worth grouping. Entries below it
	// are skipped entirely.
	MinSeverity common.Severity

	// MaxExamples caps the example entries retained per group.
	MaxExamples int
}

// DefaultOptions groups warnings and errors, keyed by severity and pattern.
func DefaultOptions() Options {
	return Options{
		BySeverity:  true,
		MinSeverity: common.SeverityWarn,
		MaxExamples: MaxExamples,
	}
}

// Grouper folds a stream of log entries into error groups using the
// normalizer. It keeps no state between Group calls.
type Grouper struct {
	opts Options
}

func New(opts Options) *Grouper {
	if opts.MaxExamples <= 0 {
		opts.MaxExamples = MaxExamples
	}
	return &Grouper{opts: opts}
}

// Group performs the single grouping pass. Output ordering is
// deterministic: descending severity, then descending count, then
// ascending first-seen, then pattern text.
func (g *Grouper) Group(entries []*common.LogEntry) []*ErrorGroup {
	groups := make(map[string]*ErrorGroup)

	for _, entry := range entries {
		if entry.Severity < g.opts.MinSeverity {
			continue
		}

		pattern := Normalize(entry.Message)

		var fp string
		if g.opts.BySeverity {
			fp = Fingerprint(entry.Severity, pattern)
		} else {
			fp = PatternFingerprint(pattern)
		}

		grp, ok := groups[fp]
		if !ok {
			grp = &ErrorGroup{
				Fingerprint: fp,
				Severity:    entry.Severity,
				Pattern:     pattern,
			}
			groups[fp] = grp
		}

		grp.Count++
		// Entries without a parsable timestamp still count but stay out
		// of the first/last-seen range.
		if entry.HasTimestamp() {
			if grp.FirstSeen.IsZero() || entry.Timestamp.Before(grp.FirstSeen) {
				grp.FirstSeen = entry.Timestamp
			}
			if grp.LastSeen.IsZero() || entry.Timestamp.After(grp.LastSeen) {
				grp.LastSeen = entry.Timestamp
			}
		}
		if len(grp.Examples) < g.opts.MaxExamples {
			grp.Examples = append(grp.Examples, entry)
		}
		// When grouping ignores severity, keep the most severe member as
		// the group severity.
		if !g.opts.BySeverity && entry.Severity > grp.Severity {
			grp.Severity = entry.Severity
		}
	}

	result := make([]*ErrorGroup, 0, len(groups))
	for _, grp := range groups {
		result = append(result, grp)
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if !a.FirstSeen.Equal(b.FirstSeen) {
			return a.FirstSeen.Before(b.FirstSeen)
		}
		return a.Pattern < b.Pattern
	})

	return result
}
