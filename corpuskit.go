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


// Package corpuskit is the high-level entry point to the corpus pipeline:
// versioning a raw document tree, normalizing each source into canonical
// record streams, and querying those streams lexically or through a dense
// vector index.
package corpuskit

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/poiesic/corpuskit/ai"
	"github.com/poiesic/corpuskit/ai/openai"
	"github.com/poiesic/corpuskit/core"
	"github.com/poiesic/corpuskit/normalize"
	"github.com/poiesic/corpuskit/search"
	"github.com/poiesic/corpuskit/vecindex"
	"github.com/poiesic/corpuskit/version"
)

// Corpus is a handle over one corpus workspace: a raw tree of per-source
// subtrees and a processed directory of immutable version snapshots.
type Corpus struct {
	rawDir       string
	processedDir string
	aiConfig     *ai.Config
	embedder     ai.Embedder
	progressOut  io.Writer
	logger       *slog.Logger
}

// Option configures a Corpus.
type Option func(*Corpus)

// WithAIConfig sets the embedding provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) Option {
	return func(c *Corpus) {
		if cfg != nil {
			c.aiConfig = cfg
		}
	}
}

// WithEmbedder sets an explicit embedder, bypassing the OpenAI-compatible
// client construction. Intended for tests.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(c *Corpus) {
		c.embedder = embedder
	}
}

// WithProgressWriter sets where index builds report progress.
// Default is no progress output.
func WithProgressWriter(w io.Writer) Option {
	return func(c *Corpus) {
		c.progressOut = w
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Corpus) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// New creates a Corpus over a raw tree and a processed directory.
func New(rawDir, processedDir string, opts ...Option) *Corpus {
	c := &Corpus{
		rawDir:       rawDir,
		processedDir: processedDir,
		aiConfig:     ai.DefaultConfig(),
		logger:       slog.Default().With("component", "corpus"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ingest fingerprints the raw tree and materializes a new version
// directory with its manifest and descriptor. Returns the descriptor and
// the version directory path.
func (c *Corpus) Ingest() (*core.VersionDescriptor, string, error) {
	v := version.New(c.rawDir, c.processedDir, version.WithLogger(c.logger))
	return v.Run()
}

// LatestVersionDir returns the most recent version directory under the
// processed root.
func (c *Corpus) LatestVersionDir() (string, error) {
	return version.LatestDir(c.processedDir)
}

// Normalize turns the raw subtree of one source into the canonical record
// stream of a version directory. workers <= 1 runs sequentially.
func (c *Corpus) Normalize(source, versionDir string, workers int) (core.NormalizeStats, error) {
	outputPath := filepath.Join(versionDir, version.NormalizedDirName, source+".jsonl")
	nz := normalize.New(source, filepath.Join(c.rawDir, source), outputPath,
		normalize.WithWorkers(workers),
		normalize.WithLogger(c.logger),
	)
	return nz.Run()
}

// Search runs a lexical query over normalized record streams.
func (c *Corpus) Search(query string, p search.Params) ([]core.ScoredHit, error) {
	return search.New(c.processedDir, search.WithLogger(c.logger)).Search(query, p)
}

// BuildIndex builds a vector index over normalized record streams using
// the configured embedding provider.
func (c *Corpus) BuildIndex(ctx context.Context, p vecindex.BuildParams) (*vecindex.Descriptor, error) {
	embedder, err := c.newEmbedder()
	if err != nil {
		return nil, err
	}
	builderOpts := []vecindex.BuilderOption{vecindex.WithBuilderLogger(c.logger)}
	if c.progressOut != nil {
		builderOpts = append(builderOpts, vecindex.WithProgressWriter(c.progressOut))
	}
	builder := vecindex.NewBuilder(c.processedDir, embedder, c.aiConfig.EmbeddingModel, builderOpts...)
	return builder.Build(ctx, p)
}

// VectorSearch runs a nearest-neighbor query against a built index.
func (c *Corpus) VectorSearch(ctx context.Context, query, indexDir string, p vecindex.SearchParams) ([]core.ScoredHit, error) {
	embedder, err := c.newEmbedder()
	if err != nil {
		return nil, err
	}
	searcher := vecindex.NewSearcher(indexDir, embedder, c.aiConfig.EmbeddingModel,
		vecindex.WithSearcherLogger(c.logger))
	return searcher.Search(ctx, query, p)
}

func (c *Corpus) newEmbedder() (ai.Embedder, error) {
	if c.embedder != nil {
		return c.embedder, nil
	}
	return openai.NewEmbedder(c.aiConfig)
}
