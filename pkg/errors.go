package pkg

import (
	"errors"
	"fmt"
)

// Common errors for the external API clients.
var (
	// ErrTimeout marks a request that ran past its deadline.
	ErrTimeout = errors.New("request timed out")
	// ErrShapeMismatch means no known response shape matched the payload.
	ErrShapeMismatch = errors.New("response matched no known shape")
	// ErrNotConfigured means the endpoint has no base URL or credential.
	ErrNotConfigured = errors.New("endpoint not configured")
)

// StatusError carries a non-200 HTTP status and a truncated response body.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// TruncateBody bounds an error body for logging and StatusError payloads.
func TruncateBody(body []byte, max int) string {
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}
