package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignificantTerms(t *testing.T) {
	t.Run("drops filler and punctuation", func(t *testing.T) {
		terms := significantTerms("How do I submit my expense report?")
		assert.Equal(t, []string{"submit", "expense", "report"}, terms)
	})

	t.Run("lowercases and splits on non-word runes", func(t *testing.T) {
		terms := significantTerms("Time-off requests (PTO) start in the HR portal.")
		assert.Equal(t, []string{"time", "off", "requests", "pto", "start", "hr", "portal"}, terms)
	})

	t.Run("all filler yields nothing", func(t *testing.T) {
		assert.Empty(t, significantTerms("how do you do this"))
	})
}

func TestContainsVerbatim(t *testing.T) {
	content := "Submitting an expense report is simple."

	t.Run("all significant terms present", func(t *testing.T) {
		assert.True(t, containsVerbatim(content, "expense report"))
	})

	t.Run("one term missing", func(t *testing.T) {
		assert.False(t, containsVerbatim(content, "expense report deadline"))
	})

	t.Run("filler-only query never matches", func(t *testing.T) {
		assert.False(t, containsVerbatim(content, "is an the"))
	})
}
