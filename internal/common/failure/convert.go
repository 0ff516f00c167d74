package failure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Fallback builds the failure used when a collaborator error is not already
// part of the taxonomy.
type Fallback func(cause string) Failure

// AsPaymentFailed is the fallback for money-moving operations.
func AsPaymentFailed(cause string) Failure {
	return PaymentFailed{Reason: cause}
}

// AsNetworkError is the fallback for reads.
func AsNetworkError(cause string) Failure {
	return NetworkError{Cause: cause}
}

// FromError converts err into a Failure. Failures anywhere in the wrap chain are
// returned as is, deadline errors become TimeoutError and everything else goes
// through fallback. A nil err yields nil.
func FromError(err error, fallback Fallback) Failure {
	if err == nil {
		return nil
	}
	var f Failure
	if errors.As(err, &f) {
		return f
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return TimeoutError{}
	}
	if errors.Is(err, context.Canceled) {
		return NetworkError{Cause: "request canceled"}
	}
	return fallback(err.Error())
}

// FromRecovered converts a value obtained from recover().
func FromRecovered(v any, fallback Fallback) Failure {
	if err, ok := v.(error); ok {
		return FromError(err, fallback)
	}
	return fallback(fmt.Sprint(v))
}

// FromHTTPStatus maps a non-2xx status code to the fixed transport variants.
// resource names the requested entity for 404s; retryAfter is the raw
// Retry-After header for 429s.
func FromHTTPStatus(status int, resource, retryAfter string) Failure {
	switch {
	case status == http.StatusBadRequest:
		return BadRequest{}
	case status == http.StatusUnauthorized:
		return Unauthorized{}
	case status == http.StatusForbidden:
		return Forbidden{}
	case status == http.StatusNotFound:
		return NotFound{Resource: resource}
	case status == http.StatusConflict:
		return Conflict{}
	case status == http.StatusTooManyRequests:
		return RateLimitExceeded{RetryAfter: parseRetryAfter(retryAfter)}
	case status >= http.StatusInternalServerError:
		return ServerError{StatusCode: status}
	default:
		return BadRequest{Message: fmt.Sprintf("unexpected status %d", status)}
	}
}

// parseRetryAfter accepts delay-seconds or an HTTP date; anything else means 60s.
func parseRetryAfter(raw string) int {
	if raw == "" {
		return 0
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
		return secs
	}
	if t, err := http.ParseTime(raw); err == nil {
		if d := time.Until(t); d > 0 {
			return int(d.Seconds())
		}
		return 0
	}
	return 60
}
