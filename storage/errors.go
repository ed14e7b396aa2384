package storage

import "errors"

var (
	// ErrNotFound indicates that the requested row was not found.
	ErrNotFound = errors.New("row not found")
)
