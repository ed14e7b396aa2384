package core

import (
	"time"
	"unicode/utf8"
)

// RawFile describes one file in the raw corpus tree.
// The digest is recomputed on every versioning run; nothing is cached.
type RawFile struct {
	Path     string `json:"path"`
	Digest   string `json:"digest"`
	Bytes    int64  `json:"bytes"`
	MTimeUTC string `json:"mtime_utc"`
}

// VersionDescriptor identifies an immutable corpus snapshot.
// Two runs over byte-identical raw trees produce the same VersionID.
type VersionDescriptor struct {
	VersionID      string `json:"version_id"`
	VersionDate    string `json:"version_date"`
	FileCount      int    `json:"file_count"`
	CombinedDigest string `json:"combined_digest"`
	GeneratedAtUTC string `json:"generated_at_utc"`
}

// CanonicalRecord is the normalized unit of retrieval. One JSON object per
// line in the per-source normalized streams; never mutated after being written.
type CanonicalRecord struct {
	Source     string `json:"source"`
	SourceFile string `json:"source_file"`
	RawIndex   int    `json:"raw_index"`
	RecordID   string `json:"record_id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Date       string `json:"date"`
	Text       string `json:"text"`
}

// NormalizeStats summarizes one normalization run for a source.
type NormalizeStats struct {
	Source       string `json:"source"`
	InputFiles   int    `json:"input_files"`
	RecordsOut   int    `json:"records_out"`
	SkippedFiles int    `json:"skipped_files"`
}

// ScoredHit is a transient query result shared by the lexical and vector
// engines. Scores are engine-specific and not comparable across engines.
type ScoredHit struct {
	Score      float64 `json:"score"`
	Source     string  `json:"source"`
	RecordID   string  `json:"record_id"`
	Title      string  `json:"title"`
	Date       string  `json:"date"`
	URL        string  `json:"url"`
	SourceFile string  `json:"source_file"`
	RawIndex   int     `json:"raw_index"`
	Snippet    string  `json:"snippet"`
}

// IndexRow holds the identifying fields stored alongside one embedding matrix
// row. The row id is the 0-based matrix row ordinal.
type IndexRow struct {
	Source     string
	RecordID   string
	Title      string
	Date       string
	URL        string
	SourceFile string
	RawIndex   int
	Excerpt    string
}

// Hit copies the row's identifying fields into a ScoredHit with the given
// score. The snippet is the stored excerpt truncated to snippetChars.
func (r *IndexRow) Hit(score float64, snippetChars int) ScoredHit {
	snippet := ""
	if snippetChars > 0 {
		snippet = Truncate(r.Excerpt, snippetChars)
	}
	return ScoredHit{
		Score:      score,
		Source:     r.Source,
		RecordID:   r.RecordID,
		Title:      r.Title,
		Date:       r.Date,
		URL:        r.URL,
		SourceFile: r.SourceFile,
		RawIndex:   r.RawIndex,
		Snippet:    snippet,
	}
}

// CombinedText joins title and text the way both engines score and embed
// records: title first, body after a newline. The result is truncated to
// maxChars bytes (at a rune boundary) when maxChars > 0, bounding the cost
// of scoring very long documents.
func (r *CanonicalRecord) CombinedText(maxChars int) string {
	combined := r.Title
	if r.Text != "" {
		combined = r.Title + "\n" + r.Text
	}
	return Truncate(combined, maxChars)
}

// Truncate shortens s to at most max bytes without splitting a UTF-8
// sequence. max <= 0 means no limit.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// UTCNowISO returns the current UTC time truncated to whole seconds in
// RFC 3339 form, the format used throughout manifests and descriptors.
func UTCNowISO() string {
	return time.Now().UTC().Truncate(time.Second).Format(time.RFC3339)
}
