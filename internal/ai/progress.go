package ai

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// Progress tracks a running analysis with atomic counters. One Progress is
// created per AnalyzeAll call and discarded when it returns; derived
// values (throughput, ETA) are computed on read, never stored.
type Progress struct {
	total int64
	start time.Time

	completed   atomic.Int64
	failed      atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	inFlight    atomic.Int64
}

func NewProgress(total int) *Progress {
	return &Progress{total: int64(total), start: time.Now()}
}

func (p *Progress) TaskStarted() { p.inFlight.Add(1) }

func (p *Progress) CacheHit() {
	p.cacheHits.Add(1)
	p.completed.Add(1)
	p.inFlight.Add(-1)
}

func (p *Progress) CacheMiss() { p.cacheMisses.Add(1) }

func (p *Progress) TaskCompleted() {
	p.completed.Add(1)
	p.inFlight.Add(-1)
}

func (p *Progress) TaskFailed() {
	p.failed.Add(1)
	p.inFlight.Add(-1)
}

// Snapshot is a point-in-time view of the counters plus derived rates.
type Snapshot struct {
	Total       int
	Completed   int
	Failed      int
	CacheHits   int
	CacheMisses int
	InFlight    int
	Elapsed     time.Duration
	Throughput  float64
	ETA         time.Duration
}

// Done reports how many tasks have settled, successfully or not.
func (s Snapshot) Done() int { return s.Completed + s.Failed }

func (p *Progress) Snapshot() Snapshot {
	s := Snapshot{
		Total:       int(p.total),
		Completed:   int(p.completed.Load()),
		Failed:      int(p.failed.Load()),
		CacheHits:   int(p.cacheHits.Load()),
		CacheMisses: int(p.cacheMisses.Load()),
		InFlight:    int(p.inFlight.Load()),
		Elapsed:     time.Since(p.start),
	}
	if s.Elapsed > 0 && s.Done() > 0 {
		s.Throughput = float64(s.Done()) / s.Elapsed.Seconds()
		if remaining := s.Total - s.Done(); remaining > 0 {
			s.ETA = time.Duration(float64(remaining) / s.Throughput * float64(time.Second))
		}
	}
	return s
}

// FormatBar renders the snapshot as a single terminal progress line.
func (s Snapshot) FormatBar() string {
	const width = 30
	done := s.Done()
	filled := 0
	percent := 0
	if s.Total > 0 {
		filled = width * done / s.Total
		percent = 100 * done / s.Total
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	eta := ""
	if s.ETA > 0 {
		eta = fmt.Sprintf(" - ETA %s", s.ETA.Round(time.Second))
	}
	return fmt.Sprintf("[%s] %d/%d (%d%%)%s", bar, done, s.Total, percent, eta)
}
