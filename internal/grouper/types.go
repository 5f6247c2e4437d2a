package grouper

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/logwhy/logwhy/internal/common"
)

// MaxExamples is the default cap on example entries kept per group.
// Memory use per group stays constant no matter how often a pattern fires.
const MaxExamples = 3

// ErrorGroup is the set of log entries sharing one normalized pattern.
// The grouper builds it in a single pass; afterwards it is read-only.
type ErrorGroup struct {
	// Fingerprint is the stable identity of this group and the cache key
	// the analysis layer uses. Equal fingerprints imply equal grouping key.
	Fingerprint string             `json:"fingerprint"`
	Severity    common.Severity    `json:"severity"`
	Pattern     string             `json:"pattern"`
	Count       int                `json:"count"`
	FirstSeen   time.Time          `json:"first_seen,omitempty"`
	LastSeen    time.Time          `json:"last_seen,omitempty"`
	Examples    []*common.LogEntry `json:"examples,omitempty"`
}

// HasTimeRange reports whether any grouped entry carried a timestamp.
func (g *ErrorGroup) HasTimeRange() bool {
	return !g.FirstSeen.IsZero() && !g.LastSeen.IsZero()
}

// fingerprint hashes a grouping key into the stable err-<hash> form.
func fingerprint(key string) string {
	return fmt.Sprintf("err-%016x", xxhash.Sum64String(key))
}

// Fingerprint returns the identity hash for a (severity, pattern) pair.
func Fingerprint(severity common.Severity, pattern string) string {
	return fingerprint(severity.String() + "|" + pattern)
}

// PatternFingerprint returns the identity hash for a pattern alone, used
// when grouping is configured to ignore severity.
func PatternFingerprint(pattern string) string {
	return fingerprint(pattern)
}
