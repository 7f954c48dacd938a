package client

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed is returned when the catalog API answers with a non-2xx status
	ErrFetchFailed = errors.New("fetch failed")
	// ErrMalformedPayload is returned when a 2xx body does not match the expected schema
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrUnavailable is returned when no response was received at all
	ErrUnavailable = errors.New("catalog API unavailable")
)

// StatusError carries the status of a non-2xx response. The body is not inspected.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP error: %d", e.Endpoint, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrFetchFailed
}
