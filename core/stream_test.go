package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLines(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0644))
	return path
}

func TestEachRecord_SkipsMalformedLines(t *testing.T) {
	path := writeLines(t, `{"source":"opendata","record_id":"a","text":"un"}
not json at all

{"source":"opendata","record_id":"b","text":"deux"}
`)

	var ids []string
	err := EachRecord(path, func(rec *CanonicalRecord) bool {
		ids = append(ids, rec.RecordID)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestEachRecord_SkipsOversizedLines(t *testing.T) {
	huge := `{"record_id":"big","text":"` + strings.Repeat("a", maxRecordLine) + `"}`
	path := writeLines(t, `{"record_id":"a"}
`+huge+`
{"record_id":"b"}
`)

	var ids []string
	err := EachRecord(path, func(rec *CanonicalRecord) bool {
		ids = append(ids, rec.RecordID)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestEachRecord_EarlyStop(t *testing.T) {
	path := writeLines(t, `{"record_id":"a"}
{"record_id":"b"}
{"record_id":"c"}
`)

	count := 0
	err := EachRecord(path, func(*CanonicalRecord) bool {
		count++
		return count < 2
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCountRecords_MatchesEachRecord(t *testing.T) {
	path := writeLines(t, `{"record_id":"a"}
garbage
{"record_id":"b"}
`)

	count, err := CountRecords([]string{path})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCombinedText(t *testing.T) {
	rec := &CanonicalRecord{Title: "Taxe", Text: "TVA applicable"}
	assert.Equal(t, "Taxe\nTVA applicable", rec.CombinedText(0))
	assert.Equal(t, "Taxe", rec.CombinedText(4))

	titleOnly := &CanonicalRecord{Title: "Taxe"}
	assert.Equal(t, "Taxe", titleOnly.CombinedText(0))
}

func TestTruncate_RuneBoundary(t *testing.T) {
	s := "héllo"
	cut := Truncate(s, 2)
	assert.Equal(t, "h", cut)
	assert.True(t, len(cut) <= 2)
}
