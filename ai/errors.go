package ai

import "errors"

var (
	// ErrProvider indicates the external embedding call failed (network,
	// quota, malformed response). Transient; callers may retry.
	ErrProvider = errors.New("embedding provider failure")

	// ErrEmptyText indicates an embedding was requested for empty text.
	ErrEmptyText = errors.New("text cannot be empty")
)
