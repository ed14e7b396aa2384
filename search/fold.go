package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Fold lowercases text and strips combining marks after NFKD decomposition,
// so "Élévation" and "elevation" compare equal.
func Fold(text string) string {
	folded, _ := fold(text, false)
	return folded
}

// FoldIndexed folds like Fold and additionally returns, for each rune of
// the folded string, the index of the rune in text it came from. The map
// lets a match offset in folded space be translated back into the original
// string for snippet extraction.
func FoldIndexed(text string) (string, []int) {
	return fold(text, true)
}

func fold(text string, indexed bool) (string, []int) {
	var b strings.Builder
	b.Grow(len(text))

	var indexMap []int
	if indexed {
		indexMap = make([]int, 0, len(text))
	}

	idx := 0
	for _, r := range text {
		for _, part := range norm.NFKD.String(string(r)) {
			if unicode.Is(unicode.Mn, part) {
				continue
			}
			b.WriteRune(unicode.ToLower(part))
			if indexed {
				indexMap = append(indexMap, idx)
			}
		}
		idx++
	}
	return b.String(), indexMap
}
