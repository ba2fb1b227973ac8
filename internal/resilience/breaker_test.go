package resilience

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(cfg BreakerConfig) (*Breaker, *time.Time) {
	b := NewBreaker(cfg, NopListener{})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func failOp(ctx context.Context) error {
	return &StatusError{StatusCode: http.StatusInternalServerError}
}

func okOp(ctx context.Context) error { return nil }

func TestBreakerOpensAtFailureThreshold(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{
		FailureThreshold: 0.5,
		MinThroughput:    10,
		SamplingWindow:   30 * time.Second,
		BreakDuration:    30 * time.Second,
	})

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, b.Execute(ctx, okOp))
	}
	for i := 0; i < 5; i++ {
		require.Error(t, b.Execute(ctx, failOp))
	}

	// 5 of 10 failed, threshold reached.
	assert.Equal(t, StateOpen, b.State())

	err := b.Execute(ctx, okOp)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreakerStaysClosedBelowMinThroughput(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{
		FailureThreshold: 0.5,
		MinThroughput:    10,
		SamplingWindow:   30 * time.Second,
		BreakDuration:    30 * time.Second,
	})

	ctx := context.Background()
	for i := 0; i < 9; i++ {
		b.Execute(ctx, failOp)
	}

	// All failures, but not enough samples to judge.
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenSuccessCloses(t *testing.T) {
	b, now := newTestBreaker(BreakerConfig{
		FailureThreshold: 0.5,
		MinThroughput:    4,
		SamplingWindow:   30 * time.Second,
		BreakDuration:    10 * time.Second,
	})

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		b.Execute(ctx, failOp)
	}
	require.Equal(t, StateOpen, b.State())

	*now = now.Add(11 * time.Second)

	// Trial call is admitted and succeeds.
	require.NoError(t, b.Execute(ctx, okOp))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b, now := newTestBreaker(BreakerConfig{
		FailureThreshold: 0.5,
		MinThroughput:    4,
		SamplingWindow:   30 * time.Second,
		BreakDuration:    10 * time.Second,
	})

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		b.Execute(ctx, failOp)
	}
	require.Equal(t, StateOpen, b.State())

	*now = now.Add(11 * time.Second)

	require.Error(t, b.Execute(ctx, failOp))
	assert.Equal(t, StateOpen, b.State())

	// The fresh break holds until another full duration elapses.
	err := b.Execute(ctx, okOp)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreakerPermanentFailuresDoNotTrip(t *testing.T) {
	b, _ := newTestBreaker(BreakerConfig{
		FailureThreshold: 0.5,
		MinThroughput:    4,
		SamplingWindow:   30 * time.Second,
		BreakDuration:    10 * time.Second,
	})

	// The relay answered each time; a 400 is the caller's problem.
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		b.Execute(ctx, func(ctx context.Context) error {
			return &StatusError{StatusCode: http.StatusBadRequest}
		})
	}

	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerWindowPrunesOldSamples(t *testing.T) {
	b, now := newTestBreaker(BreakerConfig{
		FailureThreshold: 0.5,
		MinThroughput:    4,
		SamplingWindow:   10 * time.Second,
		BreakDuration:    10 * time.Second,
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		b.Execute(ctx, failOp)
	}

	// Old failures age out before the fourth arrives.
	*now = now.Add(15 * time.Second)
	b.Execute(ctx, failOp)

	assert.Equal(t, StateClosed, b.State())
}

func TestPipelineComposition(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retry.Jitter = false
	p := NewPipeline(cfg, NopListener{})
	p.retry.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	attempts := 0
	err := p.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return &StatusError{StatusCode: http.StatusBadGateway}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, StateClosed, p.BreakerState())
}

func TestPipelinePerAttemptDeadline(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AttemptTimeout = 10 * time.Millisecond
	cfg.Retry.MaxAttempts = 2
	cfg.Retry.Jitter = false
	p := NewPipeline(cfg, NopListener{})
	p.retry.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	attempts := 0
	err := p.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		<-ctx.Done()
		return ctx.Err()
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	// Timeout classifies as retryable, so both attempts ran.
	assert.Equal(t, 2, attempts)
}
