package ingestion

import (
	"slices"
	"sync"
)

// Status describes the terminal state of an ingestion run.
type Status string

const (
	// StatusCompleted means every chunk was embedded and stored.
	// A transcript that yields zero chunks also completes.
	StatusCompleted Status = "completed"

	// StatusPartiallyFailed means some chunks were stored and some
	// exhausted their retries.
	StatusPartiallyFailed Status = "partially_failed"

	// StatusFailed means no chunk was stored, or the run was canceled.
	StatusFailed Status = "failed"
)

// ChunkFailure records a chunk that could not be processed.
type ChunkFailure struct {
	// Ordinal is the chunk's position within the transcript.
	Ordinal int

	// Reason is the final error after retries were exhausted.
	Reason string
}

// Result summarizes an ingestion run.
type Result struct {
	Status          Status
	ChunksTotal     int
	ChunksProcessed int
	Failures        []ChunkFailure
	Canceled        bool
}

// Success reports whether every chunk was processed.
func (r *Result) Success() bool {
	return r.Status == StatusCompleted
}

// resultCollector accumulates per-chunk outcomes from concurrent workers.
type resultCollector struct {
	mu        sync.Mutex
	processed int
	failures  []ChunkFailure
}

func (c *resultCollector) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.processed++
}

func (c *resultCollector) recordFailure(ordinal int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, ChunkFailure{Ordinal: ordinal, Reason: err.Error()})
}

// finalize builds the Result once all workers have finished.
func (c *resultCollector) finalize(total int, canceled bool) *Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Workers finish in arbitrary order
	slices.SortFunc(c.failures, func(a, b ChunkFailure) int {
		return a.Ordinal - b.Ordinal
	})

	result := &Result{
		ChunksTotal:     total,
		ChunksProcessed: c.processed,
		Failures:        c.failures,
		Canceled:        canceled,
	}

	switch {
	case canceled:
		result.Status = StatusFailed
	case len(c.failures) == 0:
		result.Status = StatusCompleted
	case c.processed == 0:
		result.Status = StatusFailed
	default:
		result.Status = StatusPartiallyFailed
	}
	return result
}
