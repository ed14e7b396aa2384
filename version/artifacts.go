package version

import (
	"bufio"
	"encoding/json"
	"os"
	"sort"

	"github.com/poiesic/corpuskit/core"
)

// writeManifest writes one JSON line per raw file, ordered by path.
func writeManifest(files []core.RawFile, path string) error {
	sorted := make([]core.RawFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, meta := range sorted {
		if err := enc.Encode(meta); err != nil {
			return err
		}
	}
	return w.Flush()
}

// writeDescriptor writes the version descriptor as indented JSON.
func writeDescriptor(desc *core.VersionDescriptor, path string) error {
	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// ReadDescriptor loads a version descriptor from disk.
func ReadDescriptor(path string) (*core.VersionDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var desc core.VersionDescriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, err
	}
	return &desc, nil
}
