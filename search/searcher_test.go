package search

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/corpuskit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStream(t *testing.T, path string, recs []core.CanonicalRecord) {
	t.Helper()
	var b strings.Builder
	for _, rec := range recs {
		line, err := json.Marshal(rec)
		require.NoError(t, err)
		b.Write(line)
		b.WriteByte('\n')
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
}

func TestParseQuery(t *testing.T) {
	t.Run("tokens and phrases", func(t *testing.T) {
		tokens, phrases := ParseQuery(`taux "régime réel" TVA x`)
		assert.Equal(t, []string{"taux", "tva"}, tokens)
		assert.Equal(t, []string{"regime reel"}, phrases)
	})

	t.Run("single-rune tokens dropped", func(t *testing.T) {
		tokens, phrases := ParseQuery("a b c")
		assert.Empty(t, tokens)
		assert.Empty(t, phrases)
	})

	t.Run("empty phrase ignored", func(t *testing.T) {
		tokens, phrases := ParseQuery(`"  " impot`)
		assert.Equal(t, []string{"impot"}, tokens)
		assert.Empty(t, phrases)
	})
}

func TestParseMatchMode(t *testing.T) {
	mode, err := ParseMatchMode("")
	require.NoError(t, err)
	assert.Equal(t, MatchAny, mode)

	mode, err = ParseMatchMode("ALL")
	require.NoError(t, err)
	assert.Equal(t, MatchAll, mode)

	_, err = ParseMatchMode("some")
	assert.ErrorIs(t, err, ErrBadMatchMode)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "elevation", Fold("Élévation"))
	assert.Equal(t, "taux reduit", Fold("Taux Réduit"))

	folded, indexMap := FoldIndexed("Élé")
	assert.Equal(t, "ele", folded)
	// Each folded rune points back to the original rune it came from.
	assert.Equal(t, []int{0, 1, 2}, indexMap)
}

func TestSearch_TitleBeatsBody(t *testing.T) {
	dir := t.TempDir()
	stream := filepath.Join(dir, "legi.jsonl")
	writeStream(t, stream, []core.CanonicalRecord{
		{Source: "legi", RecordID: "legi:body", Title: "Régime", Text: "exonération de TVA"},
		{Source: "legi", RecordID: "legi:title", Title: "Régime TVA", Text: "exonération de rien"},
	})

	hits, err := New(dir).Search("tva", Params{InputPath: stream})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "legi:title", hits[0].RecordID)
	assert.Equal(t, "legi:body", hits[1].RecordID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestSearch_AccentFolding(t *testing.T) {
	dir := t.TempDir()
	stream := filepath.Join(dir, "legi.jsonl")
	writeStream(t, stream, []core.CanonicalRecord{
		{Source: "legi", RecordID: "legi:1", Title: "Exonérations", Text: "régime micro"},
	})

	hits, err := New(dir).Search("exonerations", Params{InputPath: stream})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hits, err = New(dir).Search("régime", Params{InputPath: stream})
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestSearch_MatchAllPhraseIsHardFilter(t *testing.T) {
	dir := t.TempDir()
	stream := filepath.Join(dir, "mixed.jsonl")
	writeStream(t, stream, []core.CanonicalRecord{
		{Source: "legi", RecordID: "legi:with", Title: "foo", Text: "bar bar bar"},
		{Source: "legi", RecordID: "legi:without", Title: "bar", Text: "bar bar bar bar"},
	})

	hits, err := New(dir).Search(`"foo" bar`, Params{InputPath: stream, Match: MatchAll})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "legi:with", hits[0].RecordID)

	// Under MatchAny the phrase-less record qualifies on the token alone.
	hits, err = New(dir).Search(`"foo" bar`, Params{InputPath: stream, Match: MatchAny})
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestSearch_LimitAndOrdering(t *testing.T) {
	dir := t.TempDir()
	stream := filepath.Join(dir, "legi.jsonl")
	var recs []core.CanonicalRecord
	// Record i repeats the token i+1 times, so later records score higher.
	for i := 0; i < 10; i++ {
		recs = append(recs, core.CanonicalRecord{
			Source:   "legi",
			RecordID: "legi:" + strings.Repeat("x", i+1),
			Text:     strings.TrimSpace(strings.Repeat("impot ", i+1)),
		})
	}
	writeStream(t, stream, recs)

	hits, err := New(dir).Search("impot", Params{InputPath: stream, Limit: 3})
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, float64(10), hits[0].Score)
	assert.Equal(t, float64(9), hits[1].Score)
	assert.Equal(t, float64(8), hits[2].Score)
}

func TestSearch_TieBreaksOnInsertionOrder(t *testing.T) {
	dir := t.TempDir()
	stream := filepath.Join(dir, "legi.jsonl")
	writeStream(t, stream, []core.CanonicalRecord{
		{Source: "legi", RecordID: "legi:first", Text: "impot"},
		{Source: "legi", RecordID: "legi:second", Text: "impot"},
		{Source: "legi", RecordID: "legi:third", Text: "impot"},
	})

	hits, err := New(dir).Search("impot", Params{InputPath: stream, Limit: 2})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "legi:first", hits[0].RecordID)
	assert.Equal(t, "legi:second", hits[1].RecordID)
}

func TestSearch_Snippet(t *testing.T) {
	dir := t.TempDir()
	stream := filepath.Join(dir, "legi.jsonl")
	long := strings.Repeat("remplissage ", 50)
	writeStream(t, stream, []core.CanonicalRecord{
		{Source: "legi", RecordID: "legi:1", Title: "Titre", Text: long + "le taux réduit s'applique " + long},
		{Source: "legi", RecordID: "legi:2", Title: "taux", Text: ""},
	})

	t.Run("window centered on match", func(t *testing.T) {
		hits, err := New(dir).Search("reduit", Params{InputPath: stream, SnippetChars: 60})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Contains(t, hits[0].Snippet, "réduit")
		assert.LessOrEqual(t, len([]rune(hits[0].Snippet)), 60)
	})

	t.Run("disabled snippets", func(t *testing.T) {
		hits, err := New(dir).Search("reduit", Params{InputPath: stream, SnippetChars: -1})
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Empty(t, hits[0].Snippet)
	})

	t.Run("leading window without locatable match", func(t *testing.T) {
		// "taux" matches the title of legi:2; its combined text is the
		// title itself, so the snippet is just that.
		hits, err := New(dir).Search("taux", Params{InputPath: stream, Limit: 1, SnippetChars: 40})
		require.NoError(t, err)
		require.Len(t, hits, 1)
	})
}

func TestSearch_EmptyQuery(t *testing.T) {
	hits, err := New(t.TempDir()).Search(`a ! ?`, Params{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_NoProcessedCorpus(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing")).Search("impot", Params{})
	assert.ErrorIs(t, err, core.ErrNoProcessedCorpus)
}

func TestSearch_SourceFilter(t *testing.T) {
	processed := t.TempDir()
	versionDir := filepath.Join(processed, "2024-01-01_abcdefabcdef", "normalized")
	require.NoError(t, os.MkdirAll(versionDir, 0755))
	writeStream(t, filepath.Join(versionDir, "legi.jsonl"), []core.CanonicalRecord{
		{Source: "legi", RecordID: "legi:1", Text: "impot sur le revenu"},
	})
	writeStream(t, filepath.Join(versionDir, "bofip.jsonl"), []core.CanonicalRecord{
		{Source: "bofip", RecordID: "bofip:1", Text: "impot sur le revenu"},
	})

	hits, err := New(processed).Search("impot", Params{Sources: []string{"bofip"}})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "bofip:1", hits[0].RecordID)
}
