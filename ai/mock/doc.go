// Package mock provides deterministic test doubles for the ai package.
//
// MockEmbedder generates stable pseudo-random unit vectors from a hash of the
// input text, so the same text always embeds to the same vector without any
// external service. Function fields (EmbedTextFunc, EmbedTextsFunc) allow
// tests to inject failures or custom responses.
package mock
