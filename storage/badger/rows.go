// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/corpuskit/core"
	"github.com/poiesic/corpuskit/storage"
)

// RowRepository implements storage.RowStore on a BadgerDB backend.
type RowRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.RowStore = (*RowRepository)(nil)

// NewRowStore creates a row store on the given backend. The store takes
// ownership of the backend; Close closes it.
//
// Returns the storage.RowStore interface to enforce abstraction.
func NewRowStore(backend *Backend) (storage.RowStore, error) {
	return &RowRepository{
		backend: backend,
		logger:  slog.Default().With("component", "row-store"),
	}, nil
}

// AppendRows stores rows at consecutive ids starting at firstID in one
// committed transaction.
func (r *RowRepository) AppendRows(ctx context.Context, firstID uint64, rows []*core.IndexRow) error {
	if len(rows) == 0 {
		return nil
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for i, row := range rows {
			if err := tx.Set(makeRowKey(firstID+uint64(i)), storage.MarshalIndexRow(row)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		r.logger.Error("failed to append rows", "first_id", firstID, "count", len(rows), "err", err)
		return err
	}

	r.logger.Debug("appended rows", "first_id", firstID, "count", len(rows))
	return nil
}

// GetRow retrieves a single row by id.
func (r *RowRepository) GetRow(ctx context.Context, id uint64) (*core.IndexRow, error) {
	var row *core.IndexRow

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRowKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			row, err = storage.UnmarshalIndexRow(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// GetRows retrieves multiple rows in one read transaction, keyed by id.
// Missing ids are absent from the result.
func (r *RowRepository) GetRows(ctx context.Context, ids ...uint64) (map[uint64]*core.IndexRow, error) {
	rows := make(map[uint64]*core.IndexRow, len(ids))

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			item, err := tx.Get(makeRowKey(id))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return err
			}
			err = item.Value(func(val []byte) error {
				row, err := storage.UnmarshalIndexRow(val)
				if err != nil {
					return err
				}
				rows[id] = row
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of stored rows.
func (r *RowRepository) Count(ctx context.Context) (int, error) {
	count := 0

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(rowKeyPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Close closes the underlying backend.
func (r *RowRepository) Close() error {
	return r.backend.Close()
}
