package storage

import (
	"context"

	"github.com/poiesic/corpuskit/core"
)

// RowStore persists the metadata rows of a vector index, keyed by the
// 0-based matrix row id. Implementations must be safe for concurrent reads.
type RowStore interface {
	// AppendRows stores rows at consecutive ids starting at firstID,
	// committed as a single batch. The caller appends the matching matrix
	// rows in the same batch, which keeps the two stores in lockstep.
	AppendRows(ctx context.Context, firstID uint64, rows []*core.IndexRow) error

	// GetRow retrieves a single row by id.
	// Returns ErrNotFound if the row doesn't exist.
	GetRow(ctx context.Context, id uint64) (*core.IndexRow, error)

	// GetRows retrieves multiple rows, keyed by id. Missing ids are simply
	// absent from the result; no error is returned for them.
	GetRows(ctx context.Context, ids ...uint64) (map[uint64]*core.IndexRow, error)

	// Count returns the number of stored rows.
	Count(ctx context.Context) (int, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
