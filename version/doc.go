// Package version assigns immutable, content-addressed identities to raw
// corpus snapshots.
//
// A version id is a pure function of the multiset of (path, content) pairs
// in the raw tree: per-file BLAKE2b fingerprints are folded in path order,
// so two independent scans of byte-identical trees always agree, while any
// added, removed or modified byte anywhere changes the id.
//
// Each run writes a manifest (one line per raw file) and a small version
// descriptor under a directory named after the version id. Runs are
// idempotent: reproducing an existing id safely overwrites its artifacts.
package version
