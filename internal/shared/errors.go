package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidAPIKey indicates the presented API key is unknown or revoked.
	ErrInvalidAPIKey = errors.New("invalid api key")
)
