// Copyright 2026 Brightpath Learning
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides the embedding capability used by coursemem.
//
// The package defines the Embedder and EmbeddingProvider interfaces so the
// ingestion pipeline and the searcher depend on abstractions rather than a
// concrete embedding vendor. Which model actually runs is a configuration
// concern.
//
// # Implementation Packages
//
//   - ai/openai: production implementation for OpenAI-compatible APIs
//     (Ollama, LocalAI, vLLM, OpenAI itself)
//   - ai/mock: deterministic test doubles for unit testing without an
//     external service
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations:
//
//	provider, err := openai.NewProvider(config)  // returns ai.EmbeddingProvider
//
// Test utility constructors (mock.NewMockEmbedder) return CONCRETE types to
// enable test assertions and behavior injection:
//
//	mockEmbed := mock.NewMockEmbedder(768)
//	mockEmbed.EmbedTextFunc = ...   // needs concrete type
//	count := mockEmbed.CallCount()  // test assertion
//
// # Error Contract
//
// Embedders perform no internal retries. Transient provider failures are
// wrapped in ErrProvider and surface to the caller, which owns the retry
// policy; empty input fails fast with ErrEmptyText.
package ai
