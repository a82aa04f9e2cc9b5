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


package segment

import (
	"strings"
	"unicode"

	"github.com/brightpath/coursemem/core"
)

// DefaultMaxChunkSize is the chunk size bound used when no override is given.
const DefaultMaxChunkSize = 1000

// Split partitions transcript text into sentence-aligned chunks of at most
// maxChunkSize bytes. Sentences are accumulated greedily: when appending the
// next sentence would push the current chunk past the bound, the chunk is
// closed and the sentence starts a new one. Sentences within a chunk are
// joined with single spaces.
//
// A single sentence longer than maxChunkSize is emitted whole as its own
// oversized chunk; truncating it mid-word would destroy meaning for retrieval
// and citation. Text with no sentence-terminating punctuation is treated as
// one sentence, so it comes back as a single chunk regardless of size.
//
// Split is a pure function of its inputs and safe for concurrent use.
// Ordinals run 0..n-1 in transcript order.
func Split(text string, maxChunkSize int) []core.TextChunk {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []core.TextChunk
	var current strings.Builder

	emit := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, core.TextChunk{
			Text:    current.String(),
			Ordinal: len(chunks),
		})
		current.Reset()
	}

	for _, sentence := range sentences {
		if current.Len() > 0 && current.Len()+1+len(sentence) > maxChunkSize {
			emit()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	emit()

	return chunks
}

// splitSentences breaks text into sentences on '.', '?' or '!' followed by
// whitespace (or end of input). Surrounding whitespace is trimmed; the
// sentence text itself, terminator included, is left untouched.
//
// This is a heuristic: abbreviations and decimal numbers can cause false
// splits. Approximate boundaries are acceptable for retrieval chunking.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		if s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if r != '.' && r != '?' && r != '!' {
			continue
		}
		if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
			flush()
		}
	}
	flush()

	return sentences
}
