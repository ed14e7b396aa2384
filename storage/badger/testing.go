package badger

import "github.com/poiesic/corpuskit/storage"

// NewMemoryRowStore creates an in-memory row store for testing.
// Caller must close the store when done.
func NewMemoryRowStore() (storage.RowStore, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	store, err := NewRowStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return store, nil
}
