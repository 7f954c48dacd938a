package service

import (
	"errors"

	"catalog/storefront/internal/client"
)

const (
	msgProductsFailed = "Failed to fetch products"
	msgDetailsFailed  = "Failed to fetch variant details"
	msgInvalidPayload = "The catalog returned an invalid response"
	msgUnavailable    = "The catalog service is unavailable"
	msgUnknown        = "An error occurred"
)

// userMessage collapses a fetch error into the single line shown to the user
func userMessage(err error, fetchFailed string) string {
	switch {
	case errors.Is(err, client.ErrFetchFailed):
		return fetchFailed
	case errors.Is(err, client.ErrMalformedPayload):
		return msgInvalidPayload
	case errors.Is(err, client.ErrUnavailable):
		return msgUnavailable
	default:
		return msgUnknown
	}
}
