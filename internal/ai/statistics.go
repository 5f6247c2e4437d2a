package ai

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Statistics summarizes one AnalyzeAll run. It is assembled after all
// tasks settle, from the per-group results; nothing here is shared state.
type Statistics struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`

	TotalGroups int `json:"total_groups"`
	Successful  int `json:"successful"`
	Failed      int `json:"failed"`
	CacheHits   int `json:"cache_hits"`
	CacheMisses int `json:"cache_misses"`

	// TotalRetries counts attempts beyond the first across all tasks.
	TotalRetries int `json:"total_retries"`

	TotalDuration  time.Duration `json:"total_duration"`
	AverageLatency time.Duration `json:"average_latency"`
	Throughput     float64       `json:"throughput"`

	// RetryHistogram maps attempts-per-task to how many tasks needed it.
	RetryHistogram map[int]int `json:"retry_histogram,omitempty"`

	FailureReasons map[string]int `json:"failure_reasons,omitempty"`
	FailedPatterns []string       `json:"failed_patterns,omitempty"`
}

func collectStatistics(provider Provider, results []GroupResult, elapsed time.Duration, snap Snapshot) *Statistics {
	stats := &Statistics{
		Provider:       provider.Name(),
		Model:          provider.Model(),
		TotalGroups:    len(results),
		CacheHits:      snap.CacheHits,
		CacheMisses:    snap.CacheMisses,
		TotalDuration:  elapsed,
		RetryHistogram: make(map[int]int),
		FailureReasons: make(map[string]int),
	}

	var latencySum time.Duration
	var freshCount int
	for i := range results {
		r := &results[i]
		switch r.Status {
		case StatusCached:
			stats.Successful++
		case StatusFresh:
			stats.Successful++
			latencySum += r.Latency
			freshCount++
		case StatusFailed:
			stats.Failed++
			if r.Group != nil {
				stats.FailedPatterns = append(stats.FailedPatterns, r.Group.Pattern)
			}
			if r.Err != nil {
				stats.FailureReasons[failureReason(r.Err)]++
			}
		}
		if r.Attempts > 1 {
			stats.TotalRetries += r.Attempts - 1
		}
		if r.Attempts > 0 {
			stats.RetryHistogram[r.Attempts]++
		}
	}

	if freshCount > 0 {
		stats.AverageLatency = latencySum / time.Duration(freshCount)
	}
	if elapsed > 0 {
		stats.Throughput = float64(len(results)) / elapsed.Seconds()
	}
	return stats
}

func failureReason(err error) string {
	reason := err.Error()
	if len(reason) > 60 {
		reason = clipRunes(reason, 60) + "..."
	}
	return reason
}

// CacheHitRate returns the hit percentage over all cache lookups.
func (s *Statistics) CacheHitRate() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total) * 100
}

// SuccessRate returns the percentage of groups analyzed successfully.
func (s *Statistics) SuccessRate() float64 {
	if s.TotalGroups == 0 {
		return 0
	}
	return float64(s.Successful) / float64(s.TotalGroups) * 100
}

// Summary formats the statistics block printed after a run.
func (s *Statistics) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analysis statistics (%s/%s):\n", s.Provider, s.Model)
	fmt.Fprintf(&b, "  Groups:     %d (%d ok, %d failed)\n", s.TotalGroups, s.Successful, s.Failed)
	if s.CacheHits > 0 || s.CacheMisses > 0 {
		fmt.Fprintf(&b, "  Cache:      %d hits, %d misses (%.1f%%)\n", s.CacheHits, s.CacheMisses, s.CacheHitRate())
	}
	fmt.Fprintf(&b, "  Duration:   %s\n", s.TotalDuration.Round(time.Millisecond))
	if s.AverageLatency > 0 {
		fmt.Fprintf(&b, "  Avg call:   %s\n", s.AverageLatency.Round(time.Millisecond))
	}
	fmt.Fprintf(&b, "  Throughput: %.2f groups/sec\n", s.Throughput)
	if s.TotalRetries > 0 {
		fmt.Fprintf(&b, "  Retries:    %d\n", s.TotalRetries)
	}

	if len(s.FailureReasons) > 0 {
		b.WriteString("  Failures:\n")
		type rc struct {
			reason string
			count  int
		}
		reasons := make([]rc, 0, len(s.FailureReasons))
		for reason, count := range s.FailureReasons {
			reasons = append(reasons, rc{reason, count})
		}
		sort.Slice(reasons, func(i, j int) bool {
			if reasons[i].count != reasons[j].count {
				return reasons[i].count > reasons[j].count
			}
			return reasons[i].reason < reasons[j].reason
		})
		for i, r := range reasons {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "    %s: %d\n", r.reason, r.count)
		}
	}

	return b.String()
}
