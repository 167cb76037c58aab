package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeDropsStopwordsAndPunctuation(t *testing.T) {
	got := Tokenize("The quick brown fox jumps over the lazy dog!")
	assert.NotContains(t, got, "the")
	assert.Contains(t, got, "quick")
	assert.Contains(t, got, "brown")
	assert.Contains(t, got, "fox")
}

func TestTokenizeDropsShortTokens(t *testing.T) {
	got := Tokenize("a I of it programming")
	assert.NotContains(t, got, "a")
	assert.Contains(t, got, "programming")
}

func TestTermFrequencies(t *testing.T) {
	freqs := TermFrequencies([]string{"alpha", "beta", "alpha"})
	assert.Equal(t, 2, freqs["alpha"])
	assert.Equal(t, 1, freqs["beta"])
}
