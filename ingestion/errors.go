package ingestion

import "errors"

var (
	// ErrRepositoryRequired indicates a nil embedding repository was passed.
	ErrRepositoryRequired = errors.New("embedding repository is required")

	// ErrProviderRequired indicates a nil embedding provider was passed.
	ErrProviderRequired = errors.New("embedding provider is required")

	// ErrInvalidMaxAttempts indicates an invalid retry attempt count.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
