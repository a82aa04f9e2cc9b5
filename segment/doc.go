// Package segment splits raw lesson transcripts into bounded-size,
// sentence-aligned chunks for embedding.
//
// Chunk boundaries fall only on sentence boundaries, except when a single
// sentence alone exceeds the size bound; such a sentence is emitted whole
// rather than truncated. Segmentation is deterministic and purely in-memory.
package segment
