// Package apierr defines the error categories the proxy reports to clients.
//
// Every failure a handler can return falls into one of four buckets. Code
// deeper in the stack wraps one of these sentinels with fmt.Errorf("%w: ...")
// and the HTTP layer picks the status code with errors.Is, so nothing below
// the server package needs to know about HTTP.
package apierr

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation means the request was missing a field, had an empty
	// one, or a value out of range.
	ErrValidation = errors.New("validation error")

	// ErrAuth means the client's shared key did not match.
	ErrAuth = errors.New("auth error")

	// ErrConfig means the server itself is missing a required setting
	// (the Perplexity API key or the client identification key).
	ErrConfig = errors.New("configuration error")

	// ErrProvider means the upstream call failed: non-2xx status,
	// network failure, timeout, or an unreadable body.
	ErrProvider = errors.New("provider error")
)

// Status maps an error to the HTTP status the client should see.
// Errors outside the four categories are treated as internal failures.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, ErrConfig):
		return http.StatusInternalServerError
	case errors.Is(err, ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
