// Package fuzzy provides string similarity scoring and query normalization
// for matching playback reports against music search results.
package fuzzy

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	punctRegex      = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// Ratio returns the similarity of a and b as a value in [0, 1].
// The comparison is case-insensitive. 1.0 means the strings are equal
// ignoring case; higher means more similar.
//
// The score is the classic sequence-matcher ratio: twice the number of
// matching characters found by recursively taking the longest matching
// block, divided by the total length of both strings.
func Ratio(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))

	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}

	matched := matchingRunes(ra, rb, 0, len(ra), 0, len(rb))
	return 2.0 * float64(matched) / float64(total)
}

// matchingRunes counts matched runes by finding the longest common block
// in a[alo:ahi] vs b[blo:bhi] and recursing on both sides of it.
func matchingRunes(a, b []rune, alo, ahi, blo, bhi int) int {
	bestA, bestB, bestLen := longestBlock(a, b, alo, ahi, blo, bhi)
	if bestLen == 0 {
		return 0
	}

	matched := bestLen
	matched += matchingRunes(a, b, alo, bestA, blo, bestB)
	matched += matchingRunes(a, b, bestA+bestLen, ahi, bestB+bestLen, bhi)
	return matched
}

func longestBlock(a, b []rune, alo, ahi, blo, bhi int) (bestA, bestB, bestLen int) {
	bestA, bestB = alo, blo

	// j2len[j] is the length of the match ending at a[i-1], b[j-1].
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		next := make(map[int]int)
		for j := blo; j < bhi; j++ {
			if a[i] != b[j] {
				continue
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestLen {
				bestA, bestB, bestLen = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}

	return bestA, bestB, bestLen
}

// Normalizer prepares free-text search queries. It is used on the way out
// to the search backend only; cache keys and similarity scoring always see
// the original strings.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeQuery folds accents, strips punctuation and collapses
// whitespace so search backends see a plain lowercase query.
func (n *Normalizer) NormalizeQuery(query string) string {
	query = norm.NFKD.String(query)

	var result strings.Builder
	for _, r := range query {
		if !unicode.IsMark(r) {
			result.WriteRune(r)
		}
	}
	query = result.String()

	query = punctRegex.ReplaceAllString(query, " ")
	query = whitespaceRegex.ReplaceAllString(query, " ")

	return strings.TrimSpace(strings.ToLower(query))
}
