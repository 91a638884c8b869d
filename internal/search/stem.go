// Package search implements the morphology-aware product scoring pipeline:
// Snowball stemming of Russian text plus heuristic stem matching that
// tolerates the stemmer's under/over-trimming on nominative-singular forms.
package search

import (
	"regexp"
	"strings"

	"github.com/kljensen/snowball/russian"

	"github.com/nylinary/openlines-tg/internal/types"
)

// Strips punctuation that prevents stemming while keeping letters (incl.
// Cyrillic), digits, underscores and in-word hyphens.
var rePunct = regexp.MustCompile(`[^\p{L}\p{N}_-]+`)

// Entry is the pre-stemmed representation of one product, kept embedded next
// to the product itself so the index can never misalign with the list.
type Entry struct {
	TitleStems []string
	OtherStems []string
}

// Normalize lowercases and folds ё→е.
func Normalize(text string) string {
	return strings.ReplaceAll(strings.ToLower(text), "ё", "е")
}

// Tokenize normalizes, strips punctuation and splits on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(rePunct.ReplaceAllString(Normalize(text), " "))
}

// StemTokens stems each token with the Russian Snowball stemmer. Non-Russian
// tokens (SKUs, Latin fragments) pass through unchanged.
func StemTokens(words []string) []string {
	stems := make([]string, 0, len(words))
	for _, w := range words {
		stems = append(stems, russian.Stem(w, true))
	}
	return stems
}

// StemText is the index-construction normalization: tokenize then stem.
func StemText(text string) []string {
	return StemTokens(Tokenize(text))
}

// BuildEntry derives the stemmed representation of a product: title words in
// one bag, everything else searchable in the other.
func BuildEntry(p types.Product) Entry {
	return Entry{
		TitleStems: StemText(p.Title),
		OtherStems: StemText(OtherText(p)),
	}
}

// OtherText concatenates the non-title searchable fields.
func OtherText(p types.Product) string {
	parts := []string{p.Text, p.Descr, p.Category, p.SKU}
	for _, c := range p.Characteristics {
		parts = append(parts, c.Title+" "+c.Value)
	}
	return strings.Join(parts, " ")
}
