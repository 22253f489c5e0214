package backend

import (
	"errors"
	"fmt"
)

// ErrLoginRejected signals bad credentials on /auth/login.
var ErrLoginRejected = errors.New("backend: login rejected")

// APIError is a request the backend received and refused. The Detail text is
// the server-provided reason when present. Retrying without changing the
// payload will not help.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend: rejected (%d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend: rejected (%d)", e.StatusCode)
}

// NetworkError is a request that never completed: the backend may or may not
// have seen it. Kept distinct from APIError so callers can tell a retryable
// transport fault from a terminal rejection.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("backend: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Reason extracts the operator-facing message from a backend error, falling
// back to the given generic text.
func Reason(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	if err != nil {
		return fallback
	}
	return ""
}
