package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig controls attempt counts and backoff shape.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
	Multiplier  float64       `mapstructure:"multiplier"`
	Exponential bool          `mapstructure:"exponential"`
	Jitter      bool          `mapstructure:"jitter"`
}

func (c *RetryConfig) normalize() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.Multiplier <= 1 {
		c.Multiplier = 2
	}
}

// Retry re-runs an operation on retryable failures with backoff.
// Permanent failures and caller cancellation return immediately.
type Retry struct {
	cfg      RetryConfig
	listener Listener

	// Injectable for deterministic tests.
	sleep func(ctx context.Context, d time.Duration) error
	rnd   func() float64
}

func NewRetry(cfg RetryConfig, listener Listener) *Retry {
	cfg.normalize()
	if listener == nil {
		listener = NopListener{}
	}
	return &Retry{
		cfg:      cfg,
		listener: listener,
		sleep:    sleepCtx,
		rnd:      rand.Float64,
	}
}

func (r *Retry) Execute(ctx context.Context, op Operation) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = op(ctx)
		if Classify(err) != RetryableFailure {
			return err
		}
		if attempt >= r.cfg.MaxAttempts {
			return err
		}

		delay := r.Delay(attempt)
		r.listener.OnRetry(attempt, delay, err)
		if serr := r.sleep(ctx, delay); serr != nil {
			return serr
		}
	}
}

// Delay computes the backoff before the attempt following attempt k.
// Exponential: min(maxDelay, base*mult^(k-1)). Linear: base*k. Jitter
// spreads the result by ±10% and clamps it to [base/2, maxDelay].
func (r *Retry) Delay(attempt int) time.Duration {
	base := float64(r.cfg.BaseDelay)
	var d float64
	if r.cfg.Exponential {
		d = base * math.Pow(r.cfg.Multiplier, float64(attempt-1))
	} else {
		d = base * float64(attempt)
	}
	if max := float64(r.cfg.MaxDelay); d > max {
		d = max
	}

	if r.cfg.Jitter {
		d *= 0.9 + 0.2*r.rnd()
		if floor := base / 2; d < floor {
			d = floor
		}
		if max := float64(r.cfg.MaxDelay); d > max {
			d = max
		}
	}
	return time.Duration(d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
