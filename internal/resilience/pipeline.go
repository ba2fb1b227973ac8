package resilience

import (
	"context"
	"time"
)

// Config bundles the three stages. Zero values fall back to the
// defaults applied by each stage's normalize.
type Config struct {
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	Retry          RetryConfig   `mapstructure:"retry"`
	Breaker        BreakerConfig `mapstructure:"breaker"`
}

func DefaultConfig() Config {
	return Config{
		AttemptTimeout: 5 * time.Second,
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
			Multiplier:  2,
			Exponential: true,
			Jitter:      true,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 0.5,
			MinThroughput:    10,
			SamplingWindow:   30 * time.Second,
			BreakDuration:    30 * time.Second,
		},
	}
}

// Pipeline composes the stages as retry(breaker(timeout(op))): every
// retry attempt is individually admitted by the breaker and bounded by
// its own deadline.
type Pipeline struct {
	retry   *Retry
	breaker *Breaker
	timeout Timeout
}

func NewPipeline(cfg Config, listener Listener) *Pipeline {
	return &Pipeline{
		retry:   NewRetry(cfg.Retry, listener),
		breaker: NewBreaker(cfg.Breaker, listener),
		timeout: Timeout{PerAttempt: cfg.AttemptTimeout},
	}
}

func (p *Pipeline) Execute(ctx context.Context, op Operation) error {
	return p.retry.Execute(ctx, func(ctx context.Context) error {
		return p.breaker.Execute(ctx, func(ctx context.Context) error {
			return p.timeout.Execute(ctx, op)
		})
	})
}

// BreakerState exposes the current circuit state for health reporting.
func (p *Pipeline) BreakerState() State {
	return p.breaker.State()
}
