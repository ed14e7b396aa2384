package version

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/poiesic/corpuskit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRawTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, contents := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	}
	return root
}

func TestScan_EmptyTree(t *testing.T) {
	v := New(t.TempDir(), t.TempDir())
	_, err := v.Scan()
	assert.ErrorIs(t, err, core.ErrEmptyCorpus)
}

func TestScan_SkipsManifestFiles(t *testing.T) {
	root := writeRawTree(t, map[string]string{
		"bofip/doc.xml":           "<doc/>",
		"bofip/manifest_run.json": "{}",
	})

	v := New(root, t.TempDir())
	files, err := v.Scan()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(root, "bofip", "doc.xml"), files[0].Path)
	assert.Equal(t, int64(6), files[0].Bytes)
	assert.Len(t, files[0].Digest, 64)
}

func TestRun_VersionIDShapeAndStability(t *testing.T) {
	root := writeRawTree(t, map[string]string{
		"opendata/a.json": "0123456789", // 10 bytes
	})
	processed := t.TempDir()

	v := New(root, processed)
	desc, dir, err := v.Run()
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2}_[0-9a-f]{12}$`), desc.VersionID)
	assert.FileExists(t, filepath.Join(dir, ManifestName))
	assert.FileExists(t, filepath.Join(dir, DescriptorName))

	// Re-running with no raw changes reproduces the identical id.
	desc2, dir2, err := v.Run()
	require.NoError(t, err)
	assert.Equal(t, desc.VersionID, desc2.VersionID)
	assert.Equal(t, dir, dir2)
}

func TestRun_SensitiveToSingleByte(t *testing.T) {
	files := map[string]string{
		"opendata/a.json": "aaaa",
		"opendata/b.json": "bbbb",
	}
	root := writeRawTree(t, files)
	processed := t.TempDir()

	desc1, _, err := New(root, processed).Run()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "opendata", "b.json"), []byte("bbbc"), 0644))
	desc2, _, err := New(root, processed).Run()
	require.NoError(t, err)
	assert.NotEqual(t, desc1.VersionID, desc2.VersionID)

	require.NoError(t, os.Remove(filepath.Join(root, "opendata", "b.json")))
	desc3, _, err := New(root, processed).Run()
	require.NoError(t, err)
	assert.NotEqual(t, desc2.VersionID, desc3.VersionID)
}

func TestRun_DescriptorRoundTrip(t *testing.T) {
	root := writeRawTree(t, map[string]string{"legi/t.xml": "<a>x</a>"})
	processed := t.TempDir()

	desc, dir, err := New(root, processed).Run()
	require.NoError(t, err)

	loaded, err := ReadDescriptor(filepath.Join(dir, DescriptorName))
	require.NoError(t, err)
	assert.Equal(t, desc.VersionID, loaded.VersionID)
	assert.Equal(t, desc.CombinedDigest, loaded.CombinedDigest)
	assert.Equal(t, 1, loaded.FileCount)
}

func TestResolveInputs(t *testing.T) {
	processed := t.TempDir()

	t.Run("no versions", func(t *testing.T) {
		_, err := ResolveInputs("", processed, nil)
		assert.ErrorIs(t, err, core.ErrNoProcessedCorpus)
	})

	versionDir := filepath.Join(processed, "2026-08-31_000000000000")
	normalized := filepath.Join(versionDir, NormalizedDirName)
	require.NoError(t, os.MkdirAll(normalized, 0755))
	for _, name := range []string{"bofip.jsonl", "legi.jsonl", "opendata.jsonl"} {
		require.NoError(t, os.WriteFile(filepath.Join(normalized, name), nil, 0644))
	}

	t.Run("latest version all sources", func(t *testing.T) {
		paths, err := ResolveInputs("", processed, nil)
		require.NoError(t, err)
		require.Len(t, paths, 3)
		// Sorted by path, not scan order.
		assert.Equal(t, "bofip.jsonl", filepath.Base(paths[0]))
	})

	t.Run("source filter", func(t *testing.T) {
		paths, err := ResolveInputs("", processed, []string{"LEGI "})
		require.NoError(t, err)
		require.Len(t, paths, 1)
		assert.Equal(t, "legi.jsonl", filepath.Base(paths[0]))
	})

	t.Run("explicit file", func(t *testing.T) {
		file := filepath.Join(normalized, "legi.jsonl")
		paths, err := ResolveInputs(file, processed, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{file}, paths)
	})

	t.Run("explicit missing path", func(t *testing.T) {
		_, err := ResolveInputs(filepath.Join(processed, "nope.jsonl"), processed, nil)
		assert.ErrorIs(t, err, core.ErrNoProcessedCorpus)
	})

	t.Run("missing normalized dir", func(t *testing.T) {
		bare := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(bare, "2026-01-01_ffffffffffff"), 0755))
		_, err := ResolveInputs("", bare, nil)
		assert.ErrorIs(t, err, core.ErrNoProcessedCorpus)
	})

}
