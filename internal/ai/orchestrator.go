package ai

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/logwhy/logwhy/internal/grouper"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultConcurrency is the number of in-flight provider calls when
	// nothing is configured.
	DefaultConcurrency = 5

	// MaxConcurrency is the hard upper bound on the permit pool. The pool
	// is the sole admission-control point toward the provider backend.
	MaxConcurrency = 20
)

// Config holds the orchestration knobs. Validation failures here are the
// only fatal error class; everything downstream degrades per group.
type Config struct {
	Concurrency    int
	CacheEnabled   bool
	Retry          RetryConfig
	TruncateLength int
	Verbose        bool
}

// DefaultConfig returns the stock orchestration configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency:    DefaultConcurrency,
		CacheEnabled:   true,
		Retry:          DefaultRetryConfig(),
		TruncateLength: DefaultTruncateLength,
	}
}

// Orchestrator schedules analysis of error groups under bounded
// concurrency, with cache-first lookup and retry on transient failures.
// Each task writes only its own pre-assigned result slot, so results come
// back in input order no matter how tasks interleave.
type Orchestrator struct {
	provider Provider
	cache    *Cache
	cfg      Config
	policy   *Policy

	// OnProgress, when set, is invoked after every task transition with a
	// fresh counter snapshot.
	OnProgress func(Snapshot)
}

// NewOrchestrator validates cfg and builds an orchestrator. A nil cache
// disables caching regardless of cfg.CacheEnabled.
func NewOrchestrator(provider Provider, cache *Cache, cfg Config) (*Orchestrator, error) {
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Concurrency < 1 || cfg.Concurrency > MaxConcurrency {
		return nil, &ConfigurationError{
			Field:   "concurrency",
			Message: fmt.Sprintf("must be between 1 and %d, got %d", MaxConcurrency, cfg.Concurrency),
		}
	}
	if provider == nil {
		return nil, &ConfigurationError{Field: "provider", Message: "no provider configured"}
	}
	if cache == nil {
		cfg.CacheEnabled = false
	}

	policy := NewPolicy(cfg.Retry)
	policy.SetVerbose(cfg.Verbose)

	return &Orchestrator{
		provider: provider,
		cache:    cache,
		cfg:      cfg,
		policy:   policy,
	}, nil
}

// AnalyzeAll analyzes every group and returns one result per input index,
// in input order, plus run statistics. Failures stay local to their group;
// the call itself only errors before any work starts. Cancellation stops
// admitting new tasks and marks unfinished slots failed.
func (o *Orchestrator) AnalyzeAll(ctx context.Context, groups []*grouper.ErrorGroup) ([]GroupResult, *Statistics, error) {
	start := time.Now()
	results := make([]GroupResult, len(groups))
	progress := NewProgress(len(groups))

	sem := semaphore.NewWeighted(int64(o.cfg.Concurrency))
	var wg sync.WaitGroup

	for i, group := range groups {
		wg.Add(1)
		go func(idx int, g *grouper.ErrorGroup) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				// Cancelled before admission; record a best-effort failed
				// slot rather than aborting the batch.
				progress.TaskStarted()
				progress.TaskFailed()
				results[idx] = GroupResult{
					Group:  g,
					Status: StatusFailed,
					Err:    fmt.Errorf("cancelled: %w", err),
				}
				o.notify(progress)
				return
			}
			defer sem.Release(1)

			results[idx] = o.analyzeOne(ctx, g, progress)
			o.notify(progress)
		}(i, group)
	}

	wg.Wait()

	stats := collectStatistics(o.provider, results, time.Since(start), progress.Snapshot())
	return results, stats, nil
}

func (o *Orchestrator) analyzeOne(ctx context.Context, group *grouper.ErrorGroup, progress *Progress) GroupResult {
	progress.TaskStarted()
	taskStart := time.Now()

	provider, model := o.provider.Name(), o.provider.Model()

	if o.cfg.CacheEnabled {
		cached, err := o.cache.Get(ctx, provider, model, group.Fingerprint)
		if err != nil {
			// Cache trouble is never fatal; log it and carry on as a miss.
			log.Printf("cache lookup failed for %s: %v", group.Fingerprint, err)
		}
		if cached != nil {
			progress.CacheHit()
			return GroupResult{
				Group:    group,
				Analysis: cached,
				Status:   StatusCached,
				Latency:  time.Since(taskStart),
			}
		}
		progress.CacheMiss()
	}

	raw, attempts, err := o.policy.Do(ctx, func(ctx context.Context) (string, error) {
		return o.provider.Analyze(ctx, group)
	})
	if err != nil {
		progress.TaskFailed()
		return GroupResult{
			Group:    group,
			Status:   StatusFailed,
			Err:      err,
			Attempts: attempts,
			Latency:  time.Since(taskStart),
		}
	}

	analysis := Extract(raw)
	analysis.Provider = provider
	analysis.Model = model
	analysis.Origin = OriginFresh

	if o.cfg.CacheEnabled {
		if err := o.cache.Set(ctx, provider, model, group.Fingerprint, analysis); err != nil {
			log.Printf("cache write failed for %s: %v", group.Fingerprint, err)
		}
	}

	progress.TaskCompleted()
	return GroupResult{
		Group:    group,
		Analysis: analysis,
		Status:   StatusFresh,
		Attempts: attempts,
		Latency:  time.Since(taskStart),
	}
}

func (o *Orchestrator) notify(progress *Progress) {
	if o.OnProgress != nil {
		o.OnProgress(progress.Snapshot())
	}
}
