package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ecowallet/internal/common/failure"
	"ecowallet/internal/common/logging"
	"ecowallet/internal/wallet/notification"
)

// ErrorResponse is the JSON body of every failed request. Error carries the
// failure itself so that remote transports can rebuild it; Notification is the
// copy a client should show.
type ErrorResponse struct {
	Error        failure.Envelope  `json:"error"`
	Notification notification.Spec `json:"notification"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Warn("Failed to encode response", "error", err)
	}
}

// writeFailure answers with the status and body for f.
func writeFailure(w http.ResponseWriter, r *http.Request, f failure.Failure) {
	env, err := failure.Encode(f)
	if err != nil {
		logging.ErrorContext(r.Context(), "Failed to encode failure", "error", err)
		env = failure.Envelope{Type: f.Kind(), Family: f.Family(), Message: f.Error()}
	}
	if rl, ok := f.(failure.RateLimitExceeded); ok && rl.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter))
	}
	status := failure.HTTPStatus(f)
	if status >= http.StatusInternalServerError {
		logging.ErrorContext(r.Context(), "Request failed", logging.FailureAttrs(f)...)
	}
	writeJSON(w, status, ErrorResponse{Error: env, Notification: notification.Map(f)})
}

// decodeBody decodes the JSON request body into dst. Malformed bodies become
// INVALID_FORMAT on the body field.
func decodeBody(r *http.Request, dst any) failure.Failure {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return failure.InvalidFormat{Field: "body", ExpectedFormat: "JSON object"}
	}
	return nil
}
