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


// Package vecindex builds and queries the dense vector index over
// normalized record streams.
//
// An index directory holds three artifacts:
//
//   - embeddings.f32: the row-major float32 embedding matrix, pre-sized to
//     the record count established by a prior counting pass
//   - meta/: a BadgerDB store holding one metadata row per matrix row
//   - index.json: the descriptor recording model, dimensionality, record
//     count and source filter
//
// Matrix rows and metadata rows are appended batch by batch in lockstep,
// so the two stores' row counts never diverge. Search computes dot
// products (cosine similarity over unit vectors) against the matrix in
// fixed-size row chunks, keeping memory bounded regardless of corpus size,
// and fetches metadata only for the finally selected rows.
package vecindex
