package geofence

import (
	"errors"
	"fmt"
)

var (
	// ErrNoResults means the provider returned an empty result set.
	ErrNoResults = errors.New("no boundary results")
	// ErrUnsupportedGeometry means the result geometry is not a (multi)polygon.
	ErrUnsupportedGeometry = errors.New("unsupported boundary geometry")
	// ErrMalformedPayload means the response body could not be decoded.
	ErrMalformedPayload = errors.New("malformed boundary payload")
	// ErrUpstreamStatus means the provider answered with a non-200 status.
	ErrUpstreamStatus = errors.New("unexpected upstream status")
)

// FetchError is the typed failure returned by boundary fetchers. Callers fall
// back to the rectangular service area when they receive one.
type FetchError struct {
	Provider string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch boundary from %s: %v", e.Provider, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
