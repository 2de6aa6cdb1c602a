package session

import "errors"

// Sentinel errors for store operations. Check with errors.Is().
var (
	// ErrSessionNotFound indicates the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrEmptySessionID indicates a blank session id was supplied.
	ErrEmptySessionID = errors.New("session id must not be empty")

	// ErrInvalidLocation indicates a location outside geospatial bounds.
	ErrInvalidLocation = errors.New("location out of bounds")
)
