package ai

import (
	"context"
	"errors"
	"log"
	"math"
	"math/rand"
	"time"
)

// RetryConfig tunes the retry policy. Total attempts per task never exceed
// MaxRetries+1.
type RetryConfig struct {
	MaxRetries     int           `yaml:"max_retries" json:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff" json:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" json:"max_backoff"`
	Multiplier     float64       `yaml:"multiplier" json:"multiplier"`
	Jitter         bool          `yaml:"jitter" json:"jitter"`
}

// DefaultRetryConfig mirrors the defaults used for provider calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		Jitter:         true,
	}
}

// jitterFraction bounds the uniform perturbation applied to a computed
// delay when jitter is enabled.
const jitterFraction = 0.2

// Policy is the retry state machine for one kind of task:
//
//	Attempt(n) -> Success
//	           -> Retryable(delay) -> Attempt(n+1)
//	           -> NonRetryable     -> fail
//	           -> ExhaustedRetries -> fail
//
// It is independent of any concurrency primitive; Do suspends the calling
// goroutine only.
type Policy struct {
	cfg     RetryConfig
	verbose bool
}

func NewPolicy(cfg RetryConfig) *Policy {
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	return &Policy{cfg: cfg}
}

// SetVerbose enables retry logging to stderr.
func (p *Policy) SetVerbose(v bool) { p.verbose = v }

// Delay computes the backoff after the attempt-th failed attempt
// (1-based). A rate-limit error carrying a server-suggested delay
// overrides the exponential schedule.
func (p *Policy) Delay(attempt int, err error) time.Duration {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Kind == ErrKindRateLimited && pe.RetryAfter > 0 {
		return pe.RetryAfter
	}

	d := float64(p.cfg.InitialBackoff) * math.Pow(p.cfg.Multiplier, float64(attempt-1))
	if d > float64(p.cfg.MaxBackoff) {
		d = float64(p.cfg.MaxBackoff)
	}
	if p.cfg.Jitter {
		d += d * jitterFraction * (rand.Float64()*2 - 1)
		if d < 0 {
			d = float64(p.cfg.InitialBackoff)
		}
	}
	return time.Duration(d)
}

// Do runs fn until it succeeds, fails non-retryably, retries are
// exhausted, or ctx is cancelled. It returns the successful result, the
// number of attempts performed, and the final error if any.
func (p *Policy) Do(ctx context.Context, fn func(context.Context) (string, error)) (string, int, error) {
	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxRetries+1; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", attempt - 1, err
		}

		raw, err := fn(ctx)
		if err == nil {
			return raw, attempt, nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == p.cfg.MaxRetries+1 {
			return "", attempt, err
		}

		delay := p.Delay(attempt, err)
		if p.verbose {
			log.Printf("attempt %d failed, retrying in %s: %v", attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", attempt, ctx.Err()
		case <-timer.C:
		}
	}
	return "", p.cfg.MaxRetries + 1, lastErr
}
