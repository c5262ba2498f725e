package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyAPIKey is returned by providers that need a credential and got none
var ErrEmptyAPIKey = errors.New("api key is required")

// APIError is a non-2xx answer from a provider endpoint
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// IsAuth reports whether the status is an authentication failure
func (e *APIError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsQuota reports whether the status is a rate or quota rejection
func (e *APIError) IsQuota() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsUnavailable reports whether the provider is temporarily unavailable
func (e *APIError) IsUnavailable() bool {
	return e.StatusCode == http.StatusServiceUnavailable ||
		e.StatusCode == http.StatusBadGateway ||
		e.StatusCode == http.StatusGatewayTimeout
}
