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


// Package storage provides the storage abstraction for vector index
// metadata.
//
// The vector index keeps its embedding matrix on disk as a flat file and
// its per-row metadata in a keyed store behind the RowStore interface.
// Decoupling the two lets the backend be swapped (BadgerDB in production,
// in-memory BadgerDB in tests) without touching index build or search
// logic.
//
// Public constructors return interfaces to prevent accidental coupling to
// the concrete backend:
//
//	store, err := badger.NewRowStore(backend)  // returns storage.RowStore
//
// Row values are serialized with the MUS format, which is compact and has
// no per-field tags; the field order in the serializer is therefore part
// of the stored format.
//
// All implementations must be safe for concurrent readers. Writers are
// single-threaded by construction: only the index builder appends rows.
package storage
