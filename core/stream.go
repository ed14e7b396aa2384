package core

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"
)

// maxRecordLine bounds the in-memory size of one JSONL record. Normalized
// text fields can carry whole statutes, so this is generous; a longer line
// is treated as one more malformed record, not a fatal scan error.
const maxRecordLine = 16 << 20

// EachRecord streams the canonical records of one JSONL file to fn in file
// order. Blank, malformed and oversized lines are skipped silently; fn
// returning false stops the scan early.
func EachRecord(path string, fn func(rec *CanonicalRecord) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := bufio.NewReaderSize(f, 64*1024)
	for {
		line, err := readRecordLine(reader)
		if len(line) > 0 {
			trimmed := strings.TrimSpace(string(line))
			if trimmed != "" {
				var rec CanonicalRecord
				if uerr := json.Unmarshal([]byte(trimmed), &rec); uerr == nil && !fn(&rec) {
					return nil
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// readRecordLine returns the next line, or nil for a line over
// maxRecordLine; the oversized remainder is consumed so the scan resumes
// at the following record.
func readRecordLine(r *bufio.Reader) ([]byte, error) {
	var buf []byte
	for {
		chunk, err := r.ReadSlice('\n')
		if len(buf)+len(chunk) > maxRecordLine {
			for err == bufio.ErrBufferFull {
				_, err = r.ReadSlice('\n')
			}
			return nil, err
		}
		buf = append(buf, chunk...)
		if err != bufio.ErrBufferFull {
			return buf, err
		}
	}
}

// CountRecords returns the number of parseable records across the given
// JSONL files. Used to pre-size the embedding matrix before a build pass;
// counting with the same parser the build pass uses keeps the two in step.
func CountRecords(paths []string) (int, error) {
	total := 0
	for _, path := range paths {
		err := EachRecord(path, func(*CanonicalRecord) bool {
			total++
			return true
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}
