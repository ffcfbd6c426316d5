package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a provider answers successfully but has no result
	ErrNotFound = errors.New("no result from provider")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrMissingAPIKey is returned when a provider that needs a key has none configured
	ErrMissingAPIKey = errors.New("provider API key not configured")

	// ErrUpstreamFailure is returned when a provider request fails
	ErrUpstreamFailure = errors.New("upstream provider request failed")

	// ErrUnauthorized is returned when a caller identity cannot be verified
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnparsableInsight is returned when an LLM answer holds no usable insight list
	ErrUnparsableInsight = errors.New("insight response could not be parsed")
)

// UpstreamError carries the HTTP status a provider answered with.
// It unwraps to ErrUpstreamFailure.
type UpstreamError struct {
	Provider   string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s returned status %d", ErrUpstreamFailure, e.Provider, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstreamFailure
}
