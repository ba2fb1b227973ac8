package resilience

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRetry(cfg RetryConfig) (*Retry, *[]time.Duration) {
	r := NewRetry(cfg, NopListener{})
	var slept []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	r.rnd = func() float64 { return 0.5 }
	return r, &slept
}

func TestRetryExponentialBackoff(t *testing.T) {
	r, slept := newTestRetry(RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2,
		Exponential: true,
	})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return &StatusError{StatusCode: http.StatusServiceUnavailable}
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	require.Len(t, *slept, 2)
	assert.Equal(t, 1*time.Second, (*slept)[0])
	assert.Equal(t, 2*time.Second, (*slept)[1])
}

func TestRetryLinearBackoff(t *testing.T) {
	r, slept := newTestRetry(RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
	})

	err := r.Execute(context.Background(), func(ctx context.Context) error {
		return errors.New("connection refused")
	})

	require.Error(t, err)
	require.Len(t, *slept, 3)
	assert.Equal(t, 500*time.Millisecond, (*slept)[0])
	assert.Equal(t, 1000*time.Millisecond, (*slept)[1])
	assert.Equal(t, 1500*time.Millisecond, (*slept)[2])
}

func TestRetryDelayCappedAtMax(t *testing.T) {
	r, _ := newTestRetry(RetryConfig{
		MaxAttempts: 10,
		BaseDelay:   time.Second,
		MaxDelay:    4 * time.Second,
		Multiplier:  2,
		Exponential: true,
	})

	assert.Equal(t, 4*time.Second, r.Delay(5))
	assert.Equal(t, 4*time.Second, r.Delay(9))
}

func TestRetryJitterBounds(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2,
		Exponential: true,
		Jitter:      true,
	}

	for _, rnd := range []float64{0, 0.25, 0.5, 0.75, 1} {
		r := NewRetry(cfg, nil)
		r.rnd = func() float64 { return rnd }

		d := r.Delay(3) // 4s before jitter
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.LessOrEqual(t, d, 30*time.Second)
		assert.GreaterOrEqual(t, d, time.Duration(float64(4*time.Second)*0.9))
		assert.LessOrEqual(t, d, time.Duration(float64(4*time.Second)*1.1))
	}
}

func TestRetryStopsOnPermanentFailure(t *testing.T) {
	r, slept := newTestRetry(RetryConfig{MaxAttempts: 5, BaseDelay: time.Second})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return &StatusError{StatusCode: http.StatusBadRequest}
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, *slept)
}

func TestRetryStopsOnSuccess(t *testing.T) {
	r, slept := newTestRetry(RetryConfig{MaxAttempts: 5, BaseDelay: time.Second})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return &StatusError{StatusCode: http.StatusInternalServerError}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Len(t, *slept, 1)
}

func TestRetryHonorsCancellation(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 5, BaseDelay: time.Second}, nil)
	r.sleep = sleepCtx

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := r.Execute(ctx, func(ctx context.Context) error {
		attempts++
		return errors.New("connection refused")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Success, Classify(nil))
	assert.Equal(t, PermanentFailure, Classify(context.Canceled))
	assert.Equal(t, RetryableFailure, Classify(context.DeadlineExceeded))
	assert.Equal(t, RetryableFailure, Classify(errors.New("dial tcp: connection refused")))

	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.Equal(t, RetryableFailure, Classify(&StatusError{StatusCode: code}), "code %d", code)
	}
	for _, code := range []int{400, 401, 403, 404, 409, 422} {
		assert.Equal(t, PermanentFailure, Classify(&StatusError{StatusCode: code}), "code %d", code)
	}
}
