package normalize

import (
	"path/filepath"
	"strings"
)

// DocFields holds the metadata extracted from one logical document before
// canonical record assembly. Any field may be empty.
type DocFields struct {
	ID    string
	Title string
	URL   string
	Date  string
	Text  string
}

// EmitFunc receives one extracted document. sourceFile is the raw path, or
// "archive::member" for documents nested inside archives.
type EmitFunc func(sourceFile string, fields DocFields)

// Extractor is one source type's extraction variant.
type Extractor struct {
	// Accept reports whether a raw path is a candidate input for this
	// source. Non-candidates are ignored, not counted as skipped.
	Accept func(path string) bool

	// Extract parses one raw input file and emits its documents in file
	// order. Member-level malformations are skipped internally; a returned
	// error marks the whole file as skipped.
	Extract func(path string, emit EmitFunc) error
}

// Registry maps source names to extraction variants. Unregistered sources
// fall back to the generic JSON extractor.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry creates a registry with the built-in source types:
// "legi" (XML-in-archive) and "bofip" (path-encoded XML/HTML bundles).
func NewRegistry() *Registry {
	return &Registry{
		extractors: map[string]Extractor{
			"legi":  xmlArchiveExtractor(),
			"bofip": pathTreeExtractor(),
		},
	}
}

// Register adds or replaces the extractor for a source name.
func (r *Registry) Register(source string, e Extractor) {
	r.extractors[source] = e
}

// Lookup returns the extractor for a source, falling back to the generic
// JSON extractor for unregistered sources.
func (r *Registry) Lookup(source string) Extractor {
	if e, ok := r.extractors[source]; ok {
		return e
	}
	return jsonExtractor()
}

func isTarPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".tar") ||
		strings.HasSuffix(lower, ".tgz") ||
		strings.HasSuffix(lower, ".tar.gz")
}

func hasSuffixFold(path, suffix string) bool {
	return strings.HasSuffix(strings.ToLower(path), suffix)
}

// memberName returns the base name of a source file reference, looking past
// any "archive::member" prefix.
func memberName(sourceFile string) string {
	if i := strings.LastIndex(sourceFile, "::"); i >= 0 {
		sourceFile = sourceFile[i+2:]
	}
	return filepath.Base(sourceFile)
}

// cleanText collapses all interior whitespace to single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
