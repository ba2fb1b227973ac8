package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Operation is a single outbound call. Implementations must honor ctx
// cancellation; the timeout stage relies on it.
type Operation func(ctx context.Context) error

// Classification buckets an operation outcome for retry and breaker
// decisions.
type Classification int

const (
	Success Classification = iota
	RetryableFailure
	PermanentFailure
)

// StatusError carries an HTTP status code through the pipeline so the
// classifier can apply the fixed retryable/permanent code sets.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("unexpected status %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
	}
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Fixed status-code classification. Codes in neither set are treated
// as permanent: an unknown response is not worth hammering the relay.
var retryableStatus = map[int]bool{
	http.StatusRequestTimeout:      true, // 408
	http.StatusTooManyRequests:     true, // 429
	http.StatusInternalServerError: true, // 500
	http.StatusBadGateway:          true, // 502
	http.StatusServiceUnavailable:  true, // 503
	http.StatusGatewayTimeout:      true, // 504
}

var permanentStatus = map[int]bool{
	http.StatusBadRequest:          true, // 400
	http.StatusUnauthorized:        true, // 401
	http.StatusForbidden:           true, // 403
	http.StatusNotFound:            true, // 404
	http.StatusConflict:            true, // 409
	http.StatusUnprocessableEntity: true, // 422
}

// Classify buckets an error. Timeouts and network-level errors are
// retryable; caller cancellation is permanent so retries stop when the
// client goes away.
func Classify(err error) Classification {
	if err == nil {
		return Success
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case retryableStatus[statusErr.StatusCode]:
			return RetryableFailure
		case permanentStatus[statusErr.StatusCode]:
			return PermanentFailure
		default:
			return PermanentFailure
		}
	}

	if errors.Is(err, context.Canceled) {
		return PermanentFailure
	}

	// Timeouts, connection resets, DNS failures and the like.
	return RetryableFailure
}
