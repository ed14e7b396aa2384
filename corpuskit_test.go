package corpuskit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/corpuskit/ai/mock"
	"github.com/poiesic/corpuskit/search"
	"github.com/poiesic/corpuskit/vecindex"
)

func setupRawSource(t *testing.T, rawDir string) {
	t.Helper()

	sourceDir := filepath.Join(rawDir, "opendata")
	require.NoError(t, os.MkdirAll(sourceDir, 0o755))

	docs := `[
		{"id": "1", "title": "Taux de TVA applicables", "text": "Le taux normal de la TVA est de 20%."},
		{"id": "2", "title": "Abattement forfaitaire", "text": "Un abattement de 10% est applique aux salaires."}
	]`
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, "fiches.json"), []byte(docs), 0o644))
}

func TestCorpusPipeline(t *testing.T) {
	rawDir := t.TempDir()
	processedDir := t.TempDir()
	setupRawSource(t, rawDir)

	corpus := New(rawDir, processedDir, WithEmbedder(mock.NewEmbedder()))

	desc, versionDir, err := corpus.Ingest()
	require.NoError(t, err)
	assert.Equal(t, 1, desc.FileCount)
	assert.DirExists(t, versionDir)

	latest, err := corpus.LatestVersionDir()
	require.NoError(t, err)
	assert.Equal(t, versionDir, latest)

	stats, err := corpus.Normalize("opendata", versionDir, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.RecordsOut)
	assert.Equal(t, 0, stats.SkippedFiles)

	hits, err := corpus.Search("TVA", search.Params{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "opendata:1", hits[0].RecordID)
	assert.Equal(t, "opendata", hits[0].Source)
}

func TestCorpusVectorFlow(t *testing.T) {
	rawDir := t.TempDir()
	processedDir := t.TempDir()
	indexDir := filepath.Join(t.TempDir(), "index")
	setupRawSource(t, rawDir)

	corpus := New(rawDir, processedDir, WithEmbedder(mock.NewEmbedder()))

	_, versionDir, err := corpus.Ingest()
	require.NoError(t, err)
	_, err = corpus.Normalize("opendata", versionDir, 1)
	require.NoError(t, err)

	ctx := context.Background()
	desc, err := corpus.BuildIndex(ctx, vecindex.BuildParams{OutDir: indexDir})
	require.NoError(t, err)
	assert.Equal(t, 2, desc.TotalRecords)

	query := "Taux de TVA applicables\nLe taux normal de la TVA est de 20%."
	hits, err := corpus.VectorSearch(ctx, query, indexDir, vecindex.SearchParams{Limit: 1})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "opendata:1", hits[0].RecordID)
}
