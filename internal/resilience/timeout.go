package resilience

import (
	"context"
	"time"
)

// Timeout bounds a single attempt. Each retry attempt gets a fresh
// deadline; the operation must honor ctx for this to bite.
type Timeout struct {
	PerAttempt time.Duration
}

func (t Timeout) Execute(ctx context.Context, op Operation) error {
	if t.PerAttempt <= 0 {
		return op(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, t.PerAttempt)
	defer cancel()

	err := op(attemptCtx)
	if err != nil && attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		// Attempt deadline fired, not the caller's. Surface it as a
		// plain deadline error so the classifier treats it as retryable.
		return context.DeadlineExceeded
	}
	return err
}
