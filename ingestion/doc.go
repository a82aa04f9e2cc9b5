// Package ingestion provides pipeline orchestration for processing lesson
// transcripts into embedding records.
//
// The Pipeline type manages the ingestion workflow, including:
//   - Segmenting the transcript into sentence-aligned chunks
//   - Generating an embedding per chunk concurrently
//   - Persisting the resulting records
//
// Processing is performed concurrently using a worker pool with per-chunk
// retry. A chunk that exhausts its retries is recorded in the Result and
// does not stop the remaining chunks.
package ingestion
