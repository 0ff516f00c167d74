package failure

import "fmt"

// NetworkError reports that the collaborator could not be reached.
type NetworkError struct {
	transport
	Cause string `json:"cause,omitempty"`
}

func (f NetworkError) Kind() Kind       { return KindNetworkError }
func (f NetworkError) accept(v visitor) { v.networkError(f) }
func (f NetworkError) Error() string {
	if f.Cause == "" {
		return "network error"
	}
	return "network error: " + f.Cause
}

// ServerError reports a 5xx response.
type ServerError struct {
	transport
	StatusCode int `json:"status_code"`
}

func (f ServerError) Kind() Kind       { return KindServerError }
func (f ServerError) accept(v visitor) { v.serverError(f) }
func (f ServerError) Error() string    { return fmt.Sprintf("server error: status %d", f.StatusCode) }

// TimeoutError reports that the collaborator did not answer in time.
type TimeoutError struct {
	transport
	TimeoutMs int64 `json:"timeout_ms"`
}

func (f TimeoutError) Kind() Kind       { return KindTimeoutError }
func (f TimeoutError) accept(v visitor) { v.timeoutError(f) }
func (f TimeoutError) Error() string    { return fmt.Sprintf("request timed out after %dms", f.TimeoutMs) }

// Unauthorized reports missing or expired credentials.
type Unauthorized struct {
	transport
}

func (f Unauthorized) Kind() Kind       { return KindUnauthorized }
func (f Unauthorized) accept(v visitor) { v.unauthorized(f) }
func (f Unauthorized) Error() string    { return "unauthorized" }

// Forbidden reports that the caller may not perform the operation.
type Forbidden struct {
	transport
}

func (f Forbidden) Kind() Kind       { return KindForbidden }
func (f Forbidden) accept(v visitor) { v.forbidden(f) }
func (f Forbidden) Error() string    { return "forbidden" }

// NotFound reports a missing resource.
type NotFound struct {
	transport
	Resource string `json:"resource"`
}

func (f NotFound) Kind() Kind       { return KindNotFound }
func (f NotFound) accept(v visitor) { v.notFound(f) }
func (f NotFound) Error() string    { return fmt.Sprintf("%s not found", f.Resource) }

// Conflict reports that the resource is in a state that prevents the operation.
type Conflict struct {
	transport
	Message string `json:"message,omitempty"`
}

func (f Conflict) Kind() Kind       { return KindConflict }
func (f Conflict) accept(v visitor) { v.conflict(f) }
func (f Conflict) Error() string {
	if f.Message == "" {
		return "conflict"
	}
	return "conflict: " + f.Message
}

// RateLimitExceeded reports throttling; RetryAfter is in seconds.
type RateLimitExceeded struct {
	transport
	RetryAfter int `json:"retry_after"`
}

func (f RateLimitExceeded) Kind() Kind       { return KindRateLimitExceeded }
func (f RateLimitExceeded) accept(v visitor) { v.rateLimitExceeded(f) }
func (f RateLimitExceeded) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %ds", f.RetryAfter)
}

// BadRequest reports a request the collaborator rejected as malformed.
type BadRequest struct {
	transport
	Message string `json:"message,omitempty"`
}

func (f BadRequest) Kind() Kind       { return KindBadRequest }
func (f BadRequest) accept(v visitor) { v.badRequest(f) }
func (f BadRequest) Error() string {
	if f.Message == "" {
		return "bad request"
	}
	return "bad request: " + f.Message
}
