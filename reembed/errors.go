package reembed

import "errors"

var (
	// ErrRepositoryRequired indicates a nil embedding repository was passed.
	ErrRepositoryRequired = errors.New("embedding repository is required")

	// ErrEmbedderRequired indicates a nil embedder was passed.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrCourseRequired indicates no course was given to scope the run.
	ErrCourseRequired = errors.New("course required")
)
