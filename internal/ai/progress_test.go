package ai

import (
	"strings"
	"testing"
)

func TestProgressCounters(t *testing.T) {
	p := NewProgress(10)

	for i := 0; i < 3; i++ {
		p.TaskStarted()
		p.CacheHit()
	}
	for i := 0; i < 4; i++ {
		p.TaskStarted()
		p.CacheMiss()
		p.TaskCompleted()
	}
	p.TaskStarted()
	p.CacheMiss()
	p.TaskFailed()

	s := p.Snapshot()
	if s.Total != 10 {
		t.Errorf("total = %d, want 10", s.Total)
	}
	if s.Completed != 7 {
		t.Errorf("completed = %d, want 7 (3 hits + 4 fresh)", s.Completed)
	}
	if s.Failed != 1 {
		t.Errorf("failed = %d, want 1", s.Failed)
	}
	if s.CacheHits != 3 || s.CacheMisses != 5 {
		t.Errorf("cache counters = %d/%d, want 3/5", s.CacheHits, s.CacheMisses)
	}
	if s.InFlight != 0 {
		t.Errorf("in flight = %d, want 0", s.InFlight)
	}
	if s.Done() != 8 {
		t.Errorf("done = %d, want 8", s.Done())
	}
}

func TestSnapshotFormatBar(t *testing.T) {
	s := Snapshot{Total: 4, Completed: 2}

	bar := s.FormatBar()
	if !strings.Contains(bar, "2/4") {
		t.Errorf("bar missing progress fraction: %q", bar)
	}
	if !strings.Contains(bar, "50%") {
		t.Errorf("bar missing percentage: %q", bar)
	}
}

func TestSnapshotFormatBarEmpty(t *testing.T) {
	var s Snapshot
	bar := s.FormatBar()
	if !strings.Contains(bar, "0/0") {
		t.Errorf("empty bar should render 0/0: %q", bar)
	}
}
