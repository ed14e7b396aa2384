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


package core

import "errors"

// Missing-prerequisite conditions. These are fatal and surfaced to the
// caller; they are never retried.
var (
	// ErrEmptyCorpus indicates the raw tree contains zero corpus files.
	ErrEmptyCorpus = errors.New("no files found in raw corpus")

	// ErrNoProcessedCorpus indicates no normalized corpus version exists.
	ErrNoProcessedCorpus = errors.New("no processed corpus found")

	// ErrNoRecords indicates the selected inputs contain zero records.
	ErrNoRecords = errors.New("no records to index")

	// ErrIndexIncomplete indicates a vector index directory is missing one
	// or more of its artifacts (matrix, metadata store, descriptor).
	ErrIndexIncomplete = errors.New("vector index incomplete or missing")

	// ErrIndexExists indicates an index build would overwrite an existing
	// index directory without explicit permission.
	ErrIndexExists = errors.New("vector index already exists")

	// ErrModelMismatch indicates the configured embedding model disagrees
	// with the model recorded in the index descriptor.
	ErrModelMismatch = errors.New("embedding model does not match index descriptor")
)
