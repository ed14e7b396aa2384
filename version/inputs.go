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


package version

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/poiesic/corpuskit/core"
)

// NormalizedDirName is the subdirectory of a version directory that holds
// the per-source normalized record streams.
const NormalizedDirName = "normalized"

// LatestDir returns the most recently modified version directory under
// processedDir, or core.ErrNoProcessedCorpus when none exist.
func LatestDir(processedDir string) (string, error) {
	entries, err := os.ReadDir(processedDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", core.ErrNoProcessedCorpus
		}
		return "", err
	}

	latest := ""
	var latestMTime int64
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().UnixNano() > latestMTime {
			latest = filepath.Join(processedDir, entry.Name())
			latestMTime = info.ModTime().UnixNano()
		}
	}
	if latest == "" {
		return "", core.ErrNoProcessedCorpus
	}
	return latest, nil
}

// ResolveInputs selects the normalized JSONL files to query or index.
//
// With a non-empty inputPath, that file or directory is used directly.
// Otherwise the normalized directory of the latest version under
// processedDir is used, filtered by source name (file stem) when sources
// is non-empty. Missing inputs are a fatal condition, not retried.
func ResolveInputs(inputPath, processedDir string, sources []string) ([]string, error) {
	if inputPath != "" {
		info, err := os.Stat(inputPath)
		if err != nil {
			return nil, fmt.Errorf("input path not found: %s: %w", inputPath, core.ErrNoProcessedCorpus)
		}
		if !info.IsDir() {
			return []string{inputPath}, nil
		}
		return globJSONL(inputPath, sources)
	}

	latest, err := LatestDir(processedDir)
	if err != nil {
		return nil, err
	}
	normalizedDir := filepath.Join(latest, NormalizedDirName)
	if _, err := os.Stat(normalizedDir); err != nil {
		return nil, fmt.Errorf("missing normalized dir %s: %w", normalizedDir, core.ErrNoProcessedCorpus)
	}
	return globJSONL(normalizedDir, sources)
}

func globJSONL(dir string, sources []string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	allow := make(map[string]bool, len(sources))
	for _, s := range sources {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			allow[s] = true
		}
	}
	if len(allow) == 0 {
		return paths, nil
	}

	filtered := paths[:0]
	for _, p := range paths {
		stem := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		if allow[strings.ToLower(stem)] {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}
