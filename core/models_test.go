package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent_Deterministic(t *testing.T) {
	id1 := IDFromContent("onboarding module one")
	id2 := IDFromContent("onboarding module one")
	assert.Equal(t, id1, id2)
}

func TestIDFromContent_DistinctContent(t *testing.T) {
	id1 := IDFromContent("onboarding module one")
	id2 := IDFromContent("onboarding module two")
	assert.NotEqual(t, id1, id2)
}

func TestEmbeddingRecord_Identity(t *testing.T) {
	a := &EmbeddingRecord{Course: 42, Lesson: "intro", Ordinal: 0, Content: "Welcome to the course."}
	b := &EmbeddingRecord{Course: 42, Lesson: "intro", Ordinal: 0, Content: "Welcome to the course."}
	assert.Equal(t, a.Identity(), b.Identity())
	assert.Equal(t, IDFromContent(a.Identity()), IDFromContent(b.Identity()))

	// Any identifying field changes the identity
	c := &EmbeddingRecord{Course: 42, Lesson: "intro", Ordinal: 1, Content: "Welcome to the course."}
	assert.NotEqual(t, a.Identity(), c.Identity())

	d := &EmbeddingRecord{Course: 42, Lesson: "outro", Ordinal: 0, Content: "Welcome to the course."}
	assert.NotEqual(t, a.Identity(), d.Identity())
}

func TestNormalizeVector(t *testing.T) {
	t.Run("normalizes to unit length", func(t *testing.T) {
		v := NormalizeVector([]float32{3, 4})
		require.Len(t, v, 2)
		assert.InDelta(t, 0.6, v[0], 1e-6)
		assert.InDelta(t, 0.8, v[1], 1e-6)
	})

	t.Run("zero vector stays zero", func(t *testing.T) {
		v := NormalizeVector([]float32{0, 0, 0})
		assert.Equal(t, []float32{0, 0, 0}, v)
	})

	t.Run("empty vector", func(t *testing.T) {
		assert.Empty(t, NormalizeVector(nil))
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := []float32{3, 4}
		NormalizeVector(in)
		assert.Equal(t, []float32{3, 4}, in)
	})
}

func TestDotProduct(t *testing.T) {
	t.Run("unit vectors give cosine similarity", func(t *testing.T) {
		assert.InDelta(t, 1.0, DotProduct([]float32{1, 0}, []float32{1, 0}), 1e-6)
		assert.InDelta(t, 0.0, DotProduct([]float32{1, 0}, []float32{0, 1}), 1e-6)
	})

	t.Run("normalized vector against itself is one", func(t *testing.T) {
		v := NormalizeVector([]float32{3, 4, 12})
		assert.InDelta(t, 1.0, DotProduct(v, v), 1e-6)
	})

	t.Run("extra components are ignored", func(t *testing.T) {
		assert.InDelta(t, 2.0, DotProduct([]float32{1, 1}, []float32{1, 1, 5}), 1e-6)
	})
}
