// Package textutil provides the tokenizer shared by the search and
// similarity engines: lowercasing, word splitting and English stopword
// filtering.
package textutil

import (
	"strings"
	"unicode"

	"github.com/orsinium-labs/stopwords"
)

var english = stopwords.MustGet("en")

// Tokenize splits text into lowercase word tokens, dropping punctuation
// and any token that is a stopword or shorter than two runes.
func Tokenize(text string) []string {
	var tokens []string
	var cur strings.Builder

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		tok := cur.String()
		cur.Reset()
		if len([]rune(tok)) < 2 {
			return
		}
		if english.Contains(tok) {
			return
		}
		tokens = append(tokens, tok)
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// TermFrequencies returns a token → count map for tokens.
func TermFrequencies(tokens []string) map[string]int {
	out := make(map[string]int, len(tokens))
	for _, t := range tokens {
		out[t]++
	}
	return out
}
