package normalize

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/corpuskit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRecords(t *testing.T, path string) []core.CanonicalRecord {
	t.Helper()
	var recs []core.CanonicalRecord
	require.NoError(t, core.EachRecord(path, func(rec *core.CanonicalRecord) bool {
		recs = append(recs, *rec)
		return true
	}))
	return recs
}

func writeZip(t *testing.T, path string, members map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, contents := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(contents))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func writeTgz(t *testing.T, path string, members map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, contents := range members {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(contents)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(contents))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestRun_JSONSource(t *testing.T) {
	inputDir := t.TempDir()
	jsonl := `{"titre":"Taxe","texte":"TVA applicable","num":"42","lien":"https://example.org/42","date_publication":"2024-01-15"}
{"title":"Autre","content":["un","deux","un"]}
{"texte":"sans identifiant"}
`
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "export.jsonl"), []byte(jsonl), 0644))

	outPath := filepath.Join(t.TempDir(), "opendata.jsonl")
	stats, err := New("opendata", inputDir, outPath).Run()
	require.NoError(t, err)

	assert.Equal(t, "opendata", stats.Source)
	assert.Equal(t, 1, stats.InputFiles)
	assert.Equal(t, 3, stats.RecordsOut)
	assert.Equal(t, 0, stats.SkippedFiles)

	recs := readRecords(t, outPath)
	require.Len(t, recs, 3)

	assert.Equal(t, "opendata:42", recs[0].RecordID)
	assert.Equal(t, "Taxe", recs[0].Title)
	assert.Equal(t, "TVA applicable", recs[0].Text)
	assert.Equal(t, "https://example.org/42", recs[0].URL)
	assert.Equal(t, "2024-01-15", recs[0].Date)
	assert.Equal(t, 0, recs[0].RawIndex)

	// List-valued text fields are deduplicated and newline-joined.
	assert.Equal(t, "Autre", recs[1].Title)
	assert.Equal(t, "un\ndeux", recs[1].Text)

	// No native id: fallback id from source, file name and ordinal.
	assert.Equal(t, "opendata:export.jsonl:2", recs[2].RecordID)
	assert.Equal(t, "sans identifiant", recs[2].Text)
}

func TestRun_JSONContainerAndDedup(t *testing.T) {
	inputDir := t.TempDir()
	doc := `{"results":[{"id":"a","texte":"foo","resume":"foo"},{"id":"b","contenu":"bar","body":"baz"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "dump.json"), []byte(doc), 0644))

	outPath := filepath.Join(t.TempDir(), "opendata.jsonl")
	_, err := New("opendata", inputDir, outPath).Run()
	require.NoError(t, err)

	recs := readRecords(t, outPath)
	require.Len(t, recs, 2)
	// Duplicate text values collapse to one.
	assert.Equal(t, "foo", recs[0].Text)
	// Distinct values under different synonym keys are newline-joined,
	// in deterministic (sorted-key) order.
	assert.Equal(t, "baz\nbar", recs[1].Text)
}

func TestRun_XMLArchiveSource(t *testing.T) {
	inputDir := t.TempDir()
	writeZip(t, filepath.Join(inputDir, "legi_dump.zip"), map[string]string{
		"texts/LEGITEXT01.xml": `<TEXTE><CID>LEGITEXT01</CID><TITREFULL>Code fiscal</TITREFULL>` +
			`<DATE_PUBLICATION>2023-05-01</DATE_PUBLICATION><CONTENU>Article premier.</CONTENU></TEXTE>`,
		"texts/empty.xml":  `<TEXTE></TEXTE>`,
		"texts/readme.txt": "not xml",
	})

	outPath := filepath.Join(t.TempDir(), "legi.jsonl")
	stats, err := New("legi", inputDir, outPath).Run()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.RecordsOut)
	assert.Equal(t, 0, stats.SkippedFiles)

	recs := readRecords(t, outPath)
	require.Len(t, recs, 1)
	assert.Equal(t, "legi:LEGITEXT01", recs[0].RecordID)
	assert.Equal(t, "Code fiscal", recs[0].Title)
	assert.Equal(t, "2023-05-01", recs[0].Date)
	assert.Contains(t, recs[0].Text, "Article premier.")
	assert.Contains(t, recs[0].SourceFile, "::texts/LEGITEXT01.xml")
}

func TestRun_PathTreeSource(t *testing.T) {
	inputDir := t.TempDir()
	writeTgz(t, filepath.Join(inputDir, "bofip.tgz"), map[string]string{
		"bofip/TVA/liquidation/BOI-TVA-LIQ-10/2024-03-20/document.html": `<html><head>` +
			`<style>p{color:red}</style></head><body><script>var x=1;</script>` +
			`<p>Taux r&eacute;duit de TVA.</p></body></html>`,
	})

	outPath := filepath.Join(t.TempDir(), "bofip.jsonl")
	stats, err := New("bofip", inputDir, outPath).Run()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.RecordsOut)

	recs := readRecords(t, outPath)
	require.Len(t, recs, 1)
	assert.Equal(t, "bofip:BOI-TVA-LIQ-10", recs[0].RecordID)
	assert.Equal(t, "TVA liquidation BOI-TVA-LIQ-10", recs[0].Title)
	assert.Equal(t, "2024-03-20", recs[0].Date)
	assert.Equal(t, "Taux réduit de TVA.", recs[0].Text)
	assert.NotContains(t, recs[0].Text, "color")
	assert.NotContains(t, recs[0].Text, "var x")
}

func TestRun_WorkerCountDoesNotChangeOutput(t *testing.T) {
	inputDir := t.TempDir()
	for i := 0; i < 8; i++ {
		doc := fmt.Sprintf(`{"id":"doc-%d","texte":"contenu numero %d"}`, i, i)
		name := fmt.Sprintf("part_%d.json", i)
		require.NoError(t, os.WriteFile(filepath.Join(inputDir, name), []byte(doc), 0644))
	}

	outSeq := filepath.Join(t.TempDir(), "seq.jsonl")
	_, err := New("opendata", inputDir, outSeq).Run()
	require.NoError(t, err)

	outPar := filepath.Join(t.TempDir(), "par.jsonl")
	_, err = New("opendata", inputDir, outPar, WithWorkers(4)).Run()
	require.NoError(t, err)

	seq, err := os.ReadFile(outSeq)
	require.NoError(t, err)
	par, err := os.ReadFile(outPar)
	require.NoError(t, err)
	assert.Equal(t, seq, par)
	assert.NotEmpty(t, seq)
}

func TestRun_MalformedFileCountedSkipped(t *testing.T) {
	inputDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "bad.zip"), []byte("not a zip"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "good.json"), []byte(`{"id":"x","texte":"ok"}`), 0644))

	outPath := filepath.Join(t.TempDir(), "opendata.jsonl")
	stats, err := New("opendata", inputDir, outPath).Run()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.InputFiles)
	assert.Equal(t, 1, stats.RecordsOut)
	assert.Equal(t, 1, stats.SkippedFiles)
}

func TestRun_SkipsManifestFiles(t *testing.T) {
	inputDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "manifest_run.json"), []byte(`{"id":"m"}`), 0644))

	outPath := filepath.Join(t.TempDir(), "opendata.jsonl")
	stats, err := New("opendata", inputDir, outPath).Run()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.InputFiles)
	assert.Equal(t, 0, stats.RecordsOut)
}

func TestRegistry_CustomSource(t *testing.T) {
	reg := NewRegistry()
	reg.Register("custom", Extractor{
		Accept: func(path string) bool { return filepath.Ext(path) == ".txt" },
		Extract: func(path string, emit EmitFunc) error {
			payload, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			emit(path, DocFields{Text: string(payload)})
			return nil
		},
	})

	inputDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "note.txt"), []byte("plain text"), 0644))

	outPath := filepath.Join(t.TempDir(), "custom.jsonl")
	stats, err := New("custom", inputDir, outPath, WithRegistry(reg)).Run()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.RecordsOut)

	recs := readRecords(t, outPath)
	require.Len(t, recs, 1)
	assert.Equal(t, "custom:note.txt:0", recs[0].RecordID)
}
