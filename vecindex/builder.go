// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package vecindex

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/corpuskit/ai"
	"github.com/poiesic/corpuskit/core"
	"github.com/poiesic/corpuskit/storage"
	badgerstore "github.com/poiesic/corpuskit/storage/badger"
	"github.com/poiesic/corpuskit/version"
)

// Build defaults.
const (
	DefaultBatchSize = 64
	DefaultMaxChars  = 4000
	DefaultLogEvery  = 5000

	// excerptChars bounds the excerpt stored per metadata row.
	excerptChars = 500
)

// BuildParams configures one index build.
type BuildParams struct {
	// InputPath is an explicit JSONL file or directory. Empty means the
	// normalized streams of the latest corpus version.
	InputPath string

	// Sources filters the latest version's streams by source name. The
	// filter is recorded in the descriptor.
	Sources []string

	// OutDir is the index directory to create.
	OutDir string

	// BatchSize is the number of records embedded per provider call.
	// <= 0 means DefaultBatchSize.
	BatchSize int

	// MaxChars bounds the combined title+text sent to the provider, in
	// bytes. <= 0 means DefaultMaxChars.
	MaxChars int

	// Overwrite allows replacing an existing index directory. Without it
	// a build against an existing index fails with core.ErrIndexExists.
	Overwrite bool

	// LogEvery is the progress report interval in records.
	// <= 0 means DefaultLogEvery.
	LogEvery int
}

func (p BuildParams) withDefaults() BuildParams {
	if p.BatchSize <= 0 {
		p.BatchSize = DefaultBatchSize
	}
	if p.MaxChars <= 0 {
		p.MaxChars = DefaultMaxChars
	}
	if p.LogEvery <= 0 {
		p.LogEvery = DefaultLogEvery
	}
	return p
}

// Builder turns normalized record streams into an on-disk vector index.
type Builder struct {
	processedDir string
	embedder     ai.Embedder
	model        string
	progressOut  io.Writer
	logger       *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithProgressWriter directs human-readable build progress to w.
// Default is no progress output.
func WithProgressWriter(w io.Writer) BuilderOption {
	return func(b *Builder) {
		b.progressOut = w
	}
}

// WithBuilderLogger sets a custom logger.
// Default is slog.Default().
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
	}
}

// NewBuilder creates a Builder. model is the identifier of the embedding
// model behind embedder; it is recorded in the index descriptor so later
// queries can verify they use the same model.
func NewBuilder(processedDir string, embedder ai.Embedder, model string, opts ...BuilderOption) *Builder {
	b := &Builder{
		processedDir: processedDir,
		embedder:     embedder,
		model:        model,
		progressOut:  io.Discard,
		logger:       slog.Default().With("component", "vecindex_builder"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build streams the selected records in batches, embeds each batch, and
// appends unit-normalized vectors to the matrix together with one metadata
// row per record. Matrix and metadata writes commit batch by batch, so
// their row counts stay in lockstep. An embedding provider failure aborts
// the build; a half-built index never gets a descriptor and is rejected
// on load.
func (b *Builder) Build(ctx context.Context, p BuildParams) (*Descriptor, error) {
	p = p.withDefaults()

	paths, err := version.ResolveInputs(p.InputPath, b.processedDir, p.Sources)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, core.ErrNoRecords
	}

	// Counting pass. The matrix is pre-sized from this count; the build
	// pass parses records the same way, so the counts agree.
	total, err := core.CountRecords(paths)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, core.ErrNoRecords
	}

	if err := b.prepareOutDir(p.OutDir, p.Overwrite); err != nil {
		return nil, err
	}

	backend, err := badgerstore.OpenBackend(filepath.Join(p.OutDir, MetaDirName), false)
	if err != nil {
		return nil, err
	}
	rowStore, err := badgerstore.NewRowStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	defer rowStore.Close()

	b.logger.Info("building vector index",
		"records", total, "files", len(paths), "model", b.model, "batch_size", p.BatchSize)

	state := &buildState{
		builder:  b,
		params:   p,
		total:    total,
		rowStore: rowStore,
		progress: newProgressTracker(b.progressOut, total, p.LogEvery),
	}
	defer func() {
		if state.matrix != nil && !state.matrixClosed {
			state.matrix.Close()
		}
	}()

	for _, path := range paths {
		if err := state.indexFile(ctx, path); err != nil {
			return nil, err
		}
	}
	if err := state.flush(ctx); err != nil {
		return nil, err
	}

	if state.matrix == nil {
		return nil, core.ErrNoRecords
	}
	state.matrixClosed = true
	if err := state.matrix.Close(); err != nil {
		return nil, err
	}
	state.progress.finish()

	desc := &Descriptor{
		Model:        b.model,
		VectorDim:    state.dim,
		TotalRecords: total,
		Sources:      p.Sources,
		CreatedAtUTC: core.UTCNowISO(),
	}
	if err := writeDescriptor(p.OutDir, desc); err != nil {
		return nil, err
	}

	b.logger.Info("vector index built", "records", state.indexed, "dim", state.dim, "dir", p.OutDir)
	return desc, nil
}

// prepareOutDir refuses to clobber an existing index unless overwrite is
// set. Only the overwrite path removes anything; a directory without index
// artifacts is built into as-is.
func (b *Builder) prepareOutDir(outDir string, overwrite bool) error {
	if _, err := os.Stat(outDir); err == nil {
		hasArtifact := false
		for _, name := range []string{MatrixName, MetaDirName, DescriptorName} {
			if _, err := os.Stat(filepath.Join(outDir, name)); err == nil {
				hasArtifact = true
				break
			}
		}
		if hasArtifact {
			if !overwrite {
				return fmt.Errorf("%s: %w", outDir, core.ErrIndexExists)
			}
			for _, name := range []string{MatrixName, MetaDirName, DescriptorName} {
				if err := os.RemoveAll(filepath.Join(outDir, name)); err != nil {
					return err
				}
			}
		}
	}
	return os.MkdirAll(outDir, 0755)
}

// buildState carries the per-build accumulators through the streaming pass.
type buildState struct {
	builder  *Builder
	params   BuildParams
	total    int
	rowStore storage.RowStore
	progress *progressTracker

	matrix       *MatrixWriter
	matrixClosed bool
	dim          int
	indexed      int

	batchTexts []string
	batchRows  []*core.IndexRow
}

func (s *buildState) indexFile(ctx context.Context, path string) error {
	stem := fileStem(path)
	s.builder.logger.Debug("indexing file", "path", path)

	var flushErr error
	err := core.EachRecord(path, func(rec *core.CanonicalRecord) bool {
		text := rec.CombinedText(s.params.MaxChars)
		s.batchTexts = append(s.batchTexts, text)
		s.batchRows = append(s.batchRows, indexRow(rec, text, path, stem))
		if len(s.batchTexts) >= s.params.BatchSize {
			if flushErr = s.flush(ctx); flushErr != nil {
				return false
			}
		}
		return true
	})
	if flushErr != nil {
		return flushErr
	}
	return err
}

// flush embeds the pending batch and appends matrix rows and metadata rows
// as one unit.
func (s *buildState) flush(ctx context.Context) error {
	if len(s.batchTexts) == 0 {
		return nil
	}

	vectors, err := s.builder.embedder.EmbedTexts(ctx, s.batchTexts)
	if err != nil {
		return fmt.Errorf("embedding provider: %w", err)
	}
	if len(vectors) != len(s.batchTexts) {
		return fmt.Errorf("embedding provider returned %d vectors for %d texts", len(vectors), len(s.batchTexts))
	}

	if s.matrix == nil {
		s.dim = len(vectors[0])
		matrix, err := CreateMatrix(filepath.Join(s.params.OutDir, MatrixName), s.total, s.dim)
		if err != nil {
			return err
		}
		s.matrix = matrix
	}

	normalized := make([][]float32, len(vectors))
	for i, vec := range vectors {
		normalized[i] = NormalizeVector(vec)
	}

	if err := s.matrix.Append(normalized); err != nil {
		return err
	}
	if err := s.rowStore.AppendRows(ctx, uint64(s.indexed), s.batchRows); err != nil {
		return err
	}

	s.indexed += len(vectors)
	s.progress.increment(len(vectors))
	s.batchTexts = s.batchTexts[:0]
	s.batchRows = s.batchRows[:0]
	return nil
}

// indexRow builds the metadata row for one record, falling back to the
// stream's file name for fields older streams may lack.
func indexRow(rec *core.CanonicalRecord, text, path, stem string) *core.IndexRow {
	source := rec.Source
	if source == "" {
		source = stem
	}
	sourceFile := rec.SourceFile
	if sourceFile == "" {
		sourceFile = path
	}
	return &core.IndexRow{
		Source:     source,
		RecordID:   rec.RecordID,
		Title:      rec.Title,
		Date:       rec.Date,
		URL:        rec.URL,
		SourceFile: sourceFile,
		RawIndex:   rec.RawIndex,
		Excerpt:    strings.TrimSpace(core.Truncate(text, excerptChars)),
	}
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
