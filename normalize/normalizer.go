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


package normalize

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/corpuskit/core"
)

const manifestPrefix = "manifest_"

// Normalizer turns one source's raw input directory into a single canonical
// record stream.
type Normalizer struct {
	source     string
	inputDir   string
	outputPath string
	workers    int
	registry   *Registry
	logger     *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithWorkers sets the number of concurrent per-file workers.
// Default is 1 (sequential).
func WithWorkers(n int) Option {
	return func(nz *Normalizer) {
		if n < 1 {
			n = 1
		}
		nz.workers = n
	}
}

// WithRegistry sets a custom extractor registry.
func WithRegistry(r *Registry) Option {
	return func(nz *Normalizer) {
		if r != nil {
			nz.registry = r
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(nz *Normalizer) {
		if logger == nil {
			logger = slog.Default()
		}
		nz.logger = logger
	}
}

// New creates a Normalizer for one source.
func New(source, inputDir, outputPath string, opts ...Option) *Normalizer {
	nz := &Normalizer{
		source:     source,
		inputDir:   inputDir,
		outputPath: outputPath,
		workers:    1,
		registry:   NewRegistry(),
		logger:     slog.Default().With("component", "normalizer", "source", source),
	}
	for _, opt := range opts {
		opt(nz)
	}
	return nz
}

// partResult is the outcome of normalizing one input file into a part file.
type partResult struct {
	records int
	err     error
}

// Run normalizes every candidate input file of the source into the output
// stream. Files are processed independently (one worker task per file) into
// isolated part files, then concatenated in input sort order, so the output
// is byte-identical regardless of worker count. Failed files are counted
// as skipped; they never abort the run.
func (nz *Normalizer) Run() (core.NormalizeStats, error) {
	stats := core.NormalizeStats{Source: nz.source}

	paths, err := nz.collectInputs()
	if err != nil {
		return stats, err
	}
	stats.InputFiles = len(paths)
	if len(paths) == 0 {
		nz.logger.Info("no candidate input files", "dir", nz.inputDir)
	}

	if err := os.MkdirAll(filepath.Dir(nz.outputPath), 0755); err != nil {
		return stats, err
	}

	partDir, err := os.MkdirTemp("", "corpuskit_norm_"+nz.source+"_")
	if err != nil {
		return stats, err
	}
	defer os.RemoveAll(partDir)

	results := make([]partResult, len(paths))
	if nz.workers > 1 && len(paths) > 1 {
		nz.logger.Debug("normalizing with worker pool", "workers", nz.workers, "files", len(paths))
		pool, err := ants.NewPool(nz.workers)
		if err != nil {
			return stats, err
		}
		defer pool.Release()

		var wg sync.WaitGroup
		for i, path := range paths {
			wg.Add(1)
			i, path := i, path
			if err := pool.Submit(func() {
				defer wg.Done()
				results[i] = nz.normalizeFile(path, partPath(partDir, i))
			}); err != nil {
				results[i] = partResult{err: err}
				wg.Done()
			}
		}
		wg.Wait()
	} else {
		for i, path := range paths {
			results[i] = nz.normalizeFile(path, partPath(partDir, i))
		}
	}

	out, err := os.Create(nz.outputPath)
	if err != nil {
		return stats, err
	}
	defer out.Close()
	w := bufio.NewWriter(out)

	// Join in the pre-computed input order, never completion order.
	for i, path := range paths {
		if results[i].err != nil {
			stats.SkippedFiles++
			nz.logger.Warn("skipping input file", "path", path, "err", results[i].err)
			continue
		}
		if err := appendFile(w, partPath(partDir, i)); err != nil {
			return stats, err
		}
		stats.RecordsOut += results[i].records
		nz.logger.Debug("normalized input file", "path", path, "records", results[i].records)
	}
	if err := w.Flush(); err != nil {
		return stats, err
	}

	nz.logger.Info("normalization done",
		"files", stats.InputFiles, "records", stats.RecordsOut, "skipped", stats.SkippedFiles)
	return stats, nil
}

// collectInputs walks the input directory and returns the sorted candidate
// files for this source's extractor.
func (nz *Normalizer) collectInputs() ([]string, error) {
	extractor := nz.registry.Lookup(nz.source)

	var paths []string
	err := filepath.WalkDir(nz.inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), manifestPrefix) {
			return nil
		}
		if extractor.Accept(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// normalizeFile extracts one input file into a part file. A returned error
// marks the whole file as skipped.
func (nz *Normalizer) normalizeFile(path, partPath string) (res partResult) {
	defer func() {
		// Extraction is total from the caller's perspective: a panicking
		// parser downgrades to a skipped file.
		if r := recover(); r != nil {
			res = partResult{err: fmt.Errorf("extractor panic: %v", r)}
		}
	}()

	out, err := os.Create(partPath)
	if err != nil {
		return partResult{err: err}
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	extractor := nz.registry.Lookup(nz.source)
	rawIndex := 0
	var emitErr error
	err = extractor.Extract(path, func(sourceFile string, fields DocFields) {
		rec := nz.assemble(sourceFile, rawIndex, fields)
		if err := enc.Encode(rec); err != nil && emitErr == nil {
			emitErr = err
		}
		rawIndex++
	})
	if err != nil {
		return partResult{err: err}
	}
	if emitErr != nil {
		return partResult{err: emitErr}
	}
	if err := w.Flush(); err != nil {
		return partResult{err: err}
	}
	return partResult{records: rawIndex}
}

// assemble builds the canonical record for one extracted document.
func (nz *Normalizer) assemble(sourceFile string, rawIndex int, fields DocFields) core.CanonicalRecord {
	recordID := ""
	if fields.ID != "" {
		recordID = nz.source + ":" + fields.ID
	} else {
		recordID = fmt.Sprintf("%s:%s:%d", nz.source, memberName(sourceFile), rawIndex)
	}

	return core.CanonicalRecord{
		Source:     nz.source,
		SourceFile: sourceFile,
		RawIndex:   rawIndex,
		RecordID:   recordID,
		Title:      fields.Title,
		URL:        fields.URL,
		Date:       fields.Date,
		Text:       fields.Text,
	}
}

func partPath(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf("%06d.part.jsonl", i))
}

func appendFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
