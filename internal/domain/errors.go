package domain

import "errors"

// Sentinel errors for search operations
var (
	// ErrTransport indicates the search backend could not be reached or
	// answered with a non-success status
	ErrTransport = errors.New("search backend transport failure")

	// ErrMalformedResponse indicates the backend answered with data that
	// cannot be turned into a result set
	ErrMalformedResponse = errors.New("malformed search response")

	// ErrAuthFailed indicates the backend rejected the configured token
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrDisposed indicates an operation on a torn-down search session
	ErrDisposed = errors.New("search session disposed")
)
