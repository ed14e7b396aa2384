// Package search implements lexical retrieval over normalized record
// streams: token and phrase overlap scoring with a title bonus, accent and
// case folding for comparison, and snippet extraction around the earliest
// match. Selection is a single streaming pass holding a bounded top-k; the
// corpus is never fully sorted or loaded.
package search
