package badger

import "encoding/binary"

// Key prefix for vector index metadata rows.
const rowKeyPrefix = "vecrow:"

// makeRowKey generates the key for a metadata row by matrix row id.
// The id is written in BigEndian order so lexicographic key order matches
// matrix row order.
func makeRowKey(id uint64) []byte {
	prefix := []byte(rowKeyPrefix)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], id)
	return buf
}
