// Package retry holds the backoff policy applied to transient content sync
// failures. The policy is pure computation; the retry loop lives with the
// operation being retried.
package retry

import (
	"fmt"
	"time"

	"github.com/alescoulie/sitegen/internal/config"
)

// Policy encapsulates retry/backoff settings for transient failures.
// It is immutable after construction.
type Policy struct {
	Mode       config.RetryBackoffMode // fixed|linear|exponential
	Initial    time.Duration           // base delay
	Max        time.Duration           // cap for growth
	MaxRetries int                     // retries after the first failure
}

// DefaultPolicy returns the baseline policy: linear backoff, 1s initial,
// 30s cap, 2 retries.
func DefaultPolicy() Policy {
	return Policy{Mode: config.RetryBackoffLinear, Initial: time.Second, Max: 30 * time.Second, MaxRetries: 2}
}

// FromContent derives the sync retry policy from the content configuration.
// Zero or invalid fields fall back to the defaults.
func FromContent(cfg config.ContentConfig) Policy {
	return NewPolicy(cfg.RetryBackoff, cfg.RetryInitialDelay, cfg.RetryMaxDelay, cfg.MaxRetries)
}

// NewPolicy builds a policy from raw fields; zero or invalid values fall back
// to the defaults, and Initial is clamped to Max.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	if normalized := config.NormalizeRetryBackoff(string(mode)); normalized != "" {
		p.Mode = normalized
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the backoff delay before the given retry (1-based: the first
// retry is 1). Non-positive retry numbers yield no delay.
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case config.RetryBackoffFixed:
		return p.Initial
	case config.RetryBackoffExponential:
		d := p.Initial * (1 << (retryCount - 1))
		if d > p.Max {
			return p.Max
		}
		return d
	default: // linear
		d := time.Duration(retryCount) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}

// Validate ensures invariants; returns an error if the policy cannot be applied.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial must be >0")
	}
	if p.Max <= 0 {
		return fmt.Errorf("max must be >0")
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	return nil
}
