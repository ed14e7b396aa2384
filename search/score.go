package search

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/corpuskit/core"
)

// Flat bonuses on top of raw occurrence counts. A phrase in the title earns
// the phrase bonus twice.
const (
	titleTokenBonus = 2.0
	phraseBonus     = 5.0
)

// scoreRecord scores one record against the parsed query and extracts the
// snippet for it. A zero score means the record is excluded, either for
// matching nothing or for failing the MatchAll filter.
func scoreRecord(rec *core.CanonicalRecord, tokens, phrases []string, match MatchMode, scanChars, snippetChars int) (float64, string) {
	combined := rec.CombinedText(scanChars)
	foldedCombined := Fold(combined)
	foldedTitle := Fold(rec.Title)

	score := 0.0
	tokenHits := 0
	for _, token := range tokens {
		if count := strings.Count(foldedCombined, token); count > 0 {
			tokenHits++
			score += float64(count)
		}
		if strings.Contains(foldedTitle, token) {
			score += titleTokenBonus
		}
	}

	phraseHits := 0
	for _, phrase := range phrases {
		if strings.Contains(foldedCombined, phrase) {
			phraseHits++
			score += phraseBonus
			if strings.Contains(foldedTitle, phrase) {
				score += phraseBonus
			}
		}
	}

	if match == MatchAll {
		if len(tokens) > 0 && tokenHits < len(tokens) {
			return 0, ""
		}
		if len(phrases) > 0 && phraseHits < len(phrases) {
			return 0, ""
		}
	}
	if score <= 0 {
		return 0, ""
	}

	return score, buildSnippet(combined, tokens, phrases, snippetChars)
}

// buildSnippet returns a window of maxChars runes centered on the earliest
// occurrence of any query term in the folded text, located via the fold
// index map. Without a locatable match the leading window is returned.
func buildSnippet(text string, tokens, phrases []string, maxChars int) string {
	if text == "" || maxChars <= 0 {
		return ""
	}

	folded, indexMap := FoldIndexed(text)

	hitPos := -1
	for _, t := range append(append([]string{}, phrases...), tokens...) {
		if t == "" {
			continue
		}
		if pos := strings.Index(folded, t); pos >= 0 && (hitPos < 0 || pos < hitPos) {
			hitPos = pos
		}
	}

	runes := []rune(text)
	if hitPos < 0 {
		end := min(len(runes), maxChars)
		return strings.TrimSpace(string(runes[:end]))
	}

	origPos := 0
	if runePos := utf8.RuneCountInString(folded[:hitPos]); runePos < len(indexMap) {
		origPos = indexMap[runePos]
	}
	start := max(0, origPos-maxChars/2)
	end := min(len(runes), start+maxChars)
	return strings.TrimSpace(string(runes[start:end]))
}
