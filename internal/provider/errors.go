// Package provider holds the HTTP plumbing shared by the external data provider clients.
package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData is returned when a provider answered but had nothing for the request.
	ErrNoData = errors.New("no data")

	// ErrRateLimited is returned when a 429 persisted after the single retry.
	ErrRateLimited = errors.New("rate limited (429)")

	// ErrNotConfigured is returned when a provider lacks a required endpoint or key.
	ErrNotConfigured = errors.New("provider not configured")
)

// StatusError is returned for a non-200 response.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.Code, body)
}

// IsClientError reports whether err is a 4xx status other than 429.
func IsClientError(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 400 && se.Code < 500 && se.Code != 429
	}
	return false
}
