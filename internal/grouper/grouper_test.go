package grouper

import (
	"testing"
	"time"

	"github.com/logwhy/logwhy/internal/common"
)

func entry(severity common.Severity, message string) *common.LogEntry {
	return &common.LogEntry{Severity: severity, Message: message, Raw: message}
}

func entryAt(severity common.Severity, message string, ts time.Time) *common.LogEntry {
	e := entry(severity, message)
	e.Timestamp = ts
	return e
}

func TestGroupFoldsSamePattern(t *testing.T) {
	g := New(DefaultOptions())

	groups := g.Group([]*common.LogEntry{
		entry(common.SeverityError, "Failed to reach 10.0.0.1"),
		entry(common.SeverityError, "Failed to reach 10.0.0.9"),
	})

	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].Count != 2 {
		t.Errorf("expected count 2, got %d", groups[0].Count)
	}
	if groups[0].Pattern != "Failed to reach <IP>" {
		t.Errorf("unexpected pattern %q", groups[0].Pattern)
	}
}

func TestGroupSkipsBelowMinSeverity(t *testing.T) {
	g := New(DefaultOptions())

	groups := g.Group([]*common.LogEntry{
		entry(common.SeverityInfo, "started worker"),
		entry(common.SeverityDebug, "cache warmed"),
		entry(common.SeverityWarn, "slow query"),
		entry(common.SeverityError, "connection refused"),
	})

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	for _, grp := range groups {
		if grp.Severity < common.SeverityWarn {
			t.Errorf("group %q below min severity: %s", grp.Pattern, grp.Severity)
		}
	}
}

func TestGroupBySeveritySplitsLevels(t *testing.T) {
	g := New(DefaultOptions())

	groups := g.Group([]*common.LogEntry{
		entry(common.SeverityWarn, "disk nearly full"),
		entry(common.SeverityError, "disk nearly full"),
	})

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups with by-severity grouping, got %d", len(groups))
	}
	if groups[0].Fingerprint == groups[1].Fingerprint {
		t.Errorf("expected distinct fingerprints per severity")
	}
}

func TestGroupIgnoringSeverityMerges(t *testing.T) {
	opts := DefaultOptions()
	opts.BySeverity = false
	g := New(opts)

	groups := g.Group([]*common.LogEntry{
		entry(common.SeverityWarn, "disk nearly full"),
		entry(common.SeverityError, "disk nearly full"),
	})

	if len(groups) != 1 {
		t.Fatalf("expected 1 merged group, got %d", len(groups))
	}
	if groups[0].Count != 2 {
		t.Errorf("expected count 2, got %d", groups[0].Count)
	}
	// Most severe member wins.
	if groups[0].Severity != common.SeverityError {
		t.Errorf("expected group severity ERROR, got %s", groups[0].Severity)
	}
}

func TestGroupExamplesCapped(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxExamples = 2
	g := New(opts)

	var entries []*common.LogEntry
	for i := 0; i < 10; i++ {
		entries = append(entries, entry(common.SeverityError, "out of memory"))
	}

	groups := g.Group(entries)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].Count != 10 {
		t.Errorf("expected count 10, got %d", groups[0].Count)
	}
	if len(groups[0].Examples) != 2 {
		t.Errorf("expected 2 retained examples, got %d", len(groups[0].Examples))
	}
}

func TestGroupTimestampRange(t *testing.T) {
	g := New(DefaultOptions())
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	groups := g.Group([]*common.LogEntry{
		entryAt(common.SeverityError, "timeout", base.Add(5*time.Minute)),
		entry(common.SeverityError, "timeout"), // no timestamp, still counts
		entryAt(common.SeverityError, "timeout", base),
	})

	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	grp := groups[0]
	if grp.Count != 3 {
		t.Errorf("expected count 3, got %d", grp.Count)
	}
	if !grp.FirstSeen.Equal(base) {
		t.Errorf("expected first seen %s, got %s", base, grp.FirstSeen)
	}
	if !grp.LastSeen.Equal(base.Add(5 * time.Minute)) {
		t.Errorf("expected last seen %s, got %s", base.Add(5*time.Minute), grp.LastSeen)
	}
}

func TestGroupOrderingDeterministic(t *testing.T) {
	entries := []*common.LogEntry{
		entry(common.SeverityWarn, "slow query"),
		entry(common.SeverityError, "connection refused"),
		entry(common.SeverityError, "connection refused"),
		entry(common.SeverityError, "out of memory"),
		entry(common.SeverityFatal, "panic in handler"),
	}

	g := New(DefaultOptions())
	first := g.Group(entries)

	// Severity descending, then count descending.
	if first[0].Pattern != "panic in handler" {
		t.Errorf("expected fatal group first, got %q", first[0].Pattern)
	}
	if first[1].Pattern != "connection refused" {
		t.Errorf("expected highest-count error group second, got %q", first[1].Pattern)
	}
	if first[len(first)-1].Severity != common.SeverityWarn {
		t.Errorf("expected warn group last")
	}

	// Same input, same order, across repeated runs.
	for i := 0; i < 10; i++ {
		again := g.Group(entries)
		if len(again) != len(first) {
			t.Fatalf("run %d: group count changed", i)
		}
		for j := range again {
			if again[j].Fingerprint != first[j].Fingerprint {
				t.Fatalf("run %d: order changed at index %d", i, j)
			}
		}
	}
}

func TestGroupEmptyInput(t *testing.T) {
	g := New(DefaultOptions())
	if groups := g.Group(nil); len(groups) != 0 {
		t.Errorf("expected no groups for empty input, got %d", len(groups))
	}
}
