package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tok := NewTokenizer()

	assert.Equal(t, []string{"quick", "brown", "fox", "jumped", "über", "zäune"},
		tok.Tokenize("The quick brown fox jumped, Über Zäune!"))
}

func TestTokenizeDropsStopwordsAndShortWords(t *testing.T) {
	tok := NewTokenizer()

	assert.Empty(t, tok.Tokenize("a I is the of x"))
	assert.Equal(t, []string{"revenue", "q3", "2024"}, tok.Tokenize("Revenue in Q3 of 2024"))
}

func TestTokenSet(t *testing.T) {
	tok := NewTokenizer()

	set := tok.TokenSet("apples apples pears")
	assert.Len(t, set, 2)
	assert.Contains(t, set, "apples")
	assert.Contains(t, set, "pears")
}
