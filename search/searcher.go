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


package search

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/poiesic/corpuskit/core"
	"github.com/poiesic/corpuskit/version"
)

// Defaults applied by Params.withDefaults.
const (
	DefaultLimit        = 5
	DefaultScanChars    = 20000
	DefaultSnippetChars = 240
)

// Params configures one lexical search.
type Params struct {
	// InputPath is an explicit JSONL file or directory of JSONL files.
	// Empty means the normalized streams of the latest corpus version.
	InputPath string

	// Sources filters the latest version's streams by source name.
	// Ignored when InputPath names a single file.
	Sources []string

	// Limit bounds the number of returned hits. <= 0 means DefaultLimit.
	Limit int

	// Match is the qualification mode. Empty means MatchAny.
	Match MatchMode

	// ScanChars bounds how much of each record is scored, in bytes.
	// 0 means DefaultScanChars; negative means no bound.
	ScanChars int

	// SnippetChars is the snippet window size in runes. 0 means
	// DefaultSnippetChars; negative disables snippets.
	SnippetChars int
}

func (p Params) withDefaults() Params {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Match == "" {
		p.Match = MatchAny
	}
	if p.ScanChars == 0 {
		p.ScanChars = DefaultScanChars
	}
	switch {
	case p.SnippetChars == 0:
		p.SnippetChars = DefaultSnippetChars
	case p.SnippetChars < 0:
		p.SnippetChars = 0
	}
	return p
}

// Searcher answers free-text queries against normalized record streams.
type Searcher struct {
	processedDir string
	logger       *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// New creates a Searcher over the processed corpus directory.
func New(processedDir string, opts ...Option) *Searcher {
	s := &Searcher{
		processedDir: processedDir,
		logger:       slog.Default().With("component", "lexical_search"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search scores every candidate record against the query in one streaming
// pass and returns the top hits by descending score. A query with no
// usable tokens or phrases returns no hits and touches no files.
func (s *Searcher) Search(query string, p Params) ([]core.ScoredHit, error) {
	p = p.withDefaults()

	tokens, phrases := ParseQuery(query)
	if len(tokens) == 0 && len(phrases) == 0 {
		return nil, nil
	}

	files, err := version.ResolveInputs(p.InputPath, s.processedDir, p.Sources)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	top := newTopK(p.Limit)
	scanned := 0
	for _, path := range files {
		stem := fileStem(path)
		err := core.EachRecord(path, func(rec *core.CanonicalRecord) bool {
			scanned++
			score, snippet := scoreRecord(rec, tokens, phrases, p.Match, p.ScanChars, p.SnippetChars)
			if score > 0 {
				top.offer(score, recordHit(rec, score, snippet, path, stem))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}

	hits := top.ranked()
	s.logger.Debug("lexical search done",
		"files", len(files), "records", scanned, "hits", len(hits))
	return hits, nil
}

// recordHit builds the result for one matched record, falling back to the
// stream's file name for fields older streams may lack.
func recordHit(rec *core.CanonicalRecord, score float64, snippet, path, stem string) core.ScoredHit {
	source := rec.Source
	if source == "" {
		source = stem
	}
	sourceFile := rec.SourceFile
	if sourceFile == "" {
		sourceFile = path
	}
	return core.ScoredHit{
		Score:      score,
		Source:     source,
		RecordID:   rec.RecordID,
		Title:      rec.Title,
		Date:       rec.Date,
		URL:        rec.URL,
		SourceFile: sourceFile,
		RawIndex:   rec.RawIndex,
		Snippet:    snippet,
	}
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
