// Package normalize turns per-source raw document dumps into canonical
// newline-delimited record streams.
//
// Each source name maps to one extractor in a registry: structured XML
// archives, path-encoded HTML/XML bundles, and generic JSON exports each
// have their own extraction function, all producing the same record shape.
// Record construction is total: malformed files or archive members are
// counted as skipped and the run continues.
//
// Normalization fans out one task per input file onto a worker pool; each
// task writes an isolated part file, and parts are concatenated in the
// pre-computed input sort order once all tasks complete. Output ordering is
// therefore deterministic and independent of worker count or completion
// order, which keeps rebuilt corpus versions reproducible.
package normalize
