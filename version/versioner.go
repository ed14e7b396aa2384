package version

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/corpuskit/core"
)

// manifestPrefix marks connector bookkeeping files that are not corpus
// content and must never influence a version id.
const manifestPrefix = "manifest_"

// Artifact names written under a version directory.
const (
	ManifestName   = "manifest.jsonl"
	DescriptorName = "corpus_version.json"
)

// Versioner assigns content-addressed version identities to raw corpus
// snapshots and writes the per-version manifest artifacts.
type Versioner struct {
	rawDir       string
	processedDir string
	logger       *slog.Logger
}

// Option configures a Versioner.
type Option func(*Versioner)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(v *Versioner) {
		if logger == nil {
			logger = slog.Default()
		}
		v.logger = logger
	}
}

// New creates a Versioner over the given raw input tree and processed
// output directory.
func New(rawDir, processedDir string, opts ...Option) *Versioner {
	v := &Versioner{
		rawDir:       rawDir,
		processedDir: processedDir,
		logger:       slog.Default().With("component", "versioner"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Scan walks the raw tree and fingerprints every corpus file. Digests are
// recomputed on every call; there is no cache. Returns core.ErrEmptyCorpus
// when the tree holds zero corpus files.
func (v *Versioner) Scan() ([]core.RawFile, error) {
	var files []core.RawFile

	err := filepath.WalkDir(v.rawDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), manifestPrefix) {
			return nil
		}

		meta, err := fingerprint(path)
		if err != nil {
			return err
		}
		files = append(files, meta)

		if len(files)%100 == 0 {
			v.logger.Debug("scanning raw corpus", "files", len(files))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, core.ErrEmptyCorpus
	}
	return files, nil
}

// Run scans the raw tree, derives the version id and writes the manifest
// and descriptor under a version-named directory. Re-running over an
// unchanged tree reproduces the same id and overwrites the same artifacts.
// Returns the descriptor and the version directory path.
func (v *Versioner) Run() (*core.VersionDescriptor, string, error) {
	files, err := v.Scan()
	if err != nil {
		return nil, "", err
	}

	date := time.Now().Format("2006-01-02")
	desc := &core.VersionDescriptor{
		VersionID:      core.VersionID(files, date),
		VersionDate:    date,
		FileCount:      len(files),
		CombinedDigest: core.CombinedDigest(files),
		GeneratedAtUTC: core.UTCNowISO(),
	}

	versionDir := filepath.Join(v.processedDir, desc.VersionID)
	if err := os.MkdirAll(versionDir, 0755); err != nil {
		return nil, "", err
	}
	if err := writeManifest(files, filepath.Join(versionDir, ManifestName)); err != nil {
		return nil, "", err
	}
	if err := writeDescriptor(desc, filepath.Join(versionDir, DescriptorName)); err != nil {
		return nil, "", err
	}

	v.logger.Info("corpus version created",
		"versionID", desc.VersionID, "files", desc.FileCount, "dir", versionDir)
	return desc, versionDir, nil
}

// fingerprint computes the RawFile metadata for one path.
func fingerprint(path string) (core.RawFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.RawFile{}, err
	}
	defer f.Close()

	digest, err := core.DigestReader(f)
	if err != nil {
		return core.RawFile{}, err
	}

	info, err := f.Stat()
	if err != nil {
		return core.RawFile{}, err
	}

	return core.RawFile{
		Path:     path,
		Digest:   digest,
		Bytes:    info.Size(),
		MTimeUTC: info.ModTime().UTC().Truncate(time.Second).Format(time.RFC3339),
	}, nil
}
