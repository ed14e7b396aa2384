package core

import (
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"github.com/go-crypt/x/blake2b"
)

// digestSize is the BLAKE2b output length in bytes (256 bits).
const digestSize = 32

// versionPrefixLen is the number of hex characters of the combined digest
// kept in a version id.
const versionPrefixLen = 12

// copyBlockSize is the read block size used when digesting files.
const copyBlockSize = 1 << 20

// DigestReader computes the lowercase hex BLAKE2b-256 digest of everything
// readable from r, streaming in fixed-size blocks.
func DigestReader(r io.Reader) (string, error) {
	h, err := blake2b.New(digestSize, nil)
	if err != nil {
		return "", err
	}
	buf := make([]byte, copyBlockSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CombinedDigest folds the per-file digests of files into one digest.
// Files are ordered by path, not by digest or scan order, so the result is
// a pure function of the (path, content) multiset.
func CombinedDigest(files []RawFile) string {
	sorted := make([]RawFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	h, _ := blake2b.New(digestSize, nil)
	for _, f := range sorted {
		h.Write([]byte(f.Digest))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// VersionID derives the corpus version id for the given files and date.
// The id has the form "YYYY-MM-DD_<12 hex>".
func VersionID(files []RawFile, date string) string {
	return fmt.Sprintf("%s_%s", date, CombinedDigest(files)[:versionPrefixLen])
}
