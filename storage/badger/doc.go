// Package badger implements storage.RowStore on BadgerDB.
//
// Row keys carry the matrix row id in BigEndian form so lexicographic key
// order matches matrix row order. Opened with an empty path and inMemory
// set, the backend runs entirely in memory, which is how tests use it.
package badger
