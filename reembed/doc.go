// Package reembed regenerates the embeddings of a course's stored records.
//
// This is the maintenance path for switching embedding models: the stored
// chunk text is re-embedded with the newly configured model and the vectors
// are updated in place. The replacement model must produce vectors of the
// platform dimensionality; records keep their IDs, so search results stay
// stable across the migration.
package reembed
