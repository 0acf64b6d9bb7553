// Package similarity ranks historical transactions by token-set overlap with a description.
package similarity

import (
	"unicode/utf8"

	"github.com/Veraticus/sift/internal/normalize"
)

// minContainmentWeight is the shared weight below which the score falls back to
// plain intersection-over-union. One four-letter token reaches it.
const minContainmentWeight = 16

type tokenSet map[string]struct{}

func tokenize(text string) tokenSet {
	set := make(tokenSet)
	for _, token := range normalize.Tokens(text) {
		if normalize.IsDomainToken(token) {
			continue
		}
		set[token] = struct{}{}
	}
	return set
}

// weight grows with the square of token length so long merchant words dominate
// short common ones.
func weight(token string) float64 {
	n := utf8.RuneCountInString(token)
	return float64(n * n)
}

// Score compares two normalized descriptions and returns 0-100.
// Token order is ignored. When the shared tokens carry enough weight the score is
// the weighted share of the smaller set that the other contains, so
// "AMAZON COM" and "AMAZON MKTPLACE" score 100. Otherwise it is the weighted
// intersection over union.
func Score(a, b string) float64 {
	return scoreSets(tokenize(a), tokenize(b))
}

func scoreSets(a, b tokenSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var shared, wa, wb float64
	for token := range a {
		w := weight(token)
		wa += w
		if _, ok := b[token]; ok {
			shared += w
		}
	}
	for token := range b {
		wb += weight(token)
	}

	if shared == 0 {
		return 0
	}

	if shared < minContainmentWeight {
		return 100 * shared / (wa + wb - shared)
	}

	return 100 * shared / min(wa, wb)
}
