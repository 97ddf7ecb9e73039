package paapi

import "fmt"

// AuthenticationError means the upstream rejected our credentials.
// It is fatal for the whole sync run.
type AuthenticationError struct {
	StatusCode int
	Message    string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("paapi: authentication failed (status %d): %s", e.StatusCode, e.Message)
}

// RateLimitError means the upstream throttled the request. Retryable.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("paapi: rate limited: %s", e.Message)
}
