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


package storage

import (
	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/corpuskit/core"
)

// IndexRowMUS is the MUS serializer for core.IndexRow. The field order is
// part of the stored format; changing it invalidates existing metadata
// stores.
var IndexRowMUS = indexRowSer{}

type indexRowSer struct{}

var _ mus.Serializer[core.IndexRow] = indexRowSer{}

func (indexRowSer) Marshal(r core.IndexRow, bs []byte) (n int) {
	n = ord.String.Marshal(r.Source, bs)
	n += ord.String.Marshal(r.RecordID, bs[n:])
	n += ord.String.Marshal(r.Title, bs[n:])
	n += ord.String.Marshal(r.Date, bs[n:])
	n += ord.String.Marshal(r.URL, bs[n:])
	n += ord.String.Marshal(r.SourceFile, bs[n:])
	n += varint.Int.Marshal(r.RawIndex, bs[n:])
	n += ord.String.Marshal(r.Excerpt, bs[n:])
	return n
}

func (indexRowSer) Unmarshal(bs []byte) (r core.IndexRow, n int, err error) {
	var n1 int
	if r.Source, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if r.RecordID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Date, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.URL, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.SourceFile, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.RawIndex, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	r.Excerpt, n1, err = ord.String.Unmarshal(bs[n:])
	return r, n + n1, err
}

func (indexRowSer) Size(r core.IndexRow) (size int) {
	size = ord.String.Size(r.Source)
	size += ord.String.Size(r.RecordID)
	size += ord.String.Size(r.Title)
	size += ord.String.Size(r.Date)
	size += ord.String.Size(r.URL)
	size += ord.String.Size(r.SourceFile)
	size += varint.Int.Size(r.RawIndex)
	size += ord.String.Size(r.Excerpt)
	return size
}

func (indexRowSer) Skip(bs []byte) (n int, err error) {
	var n1 int
	for i := 0; i < 6; i++ {
		if n1, err = ord.String.Skip(bs[n:]); err != nil {
			return n + n1, err
		}
		n += n1
	}
	if n1, err = varint.Int.Skip(bs[n:]); err != nil {
		return n + n1, err
	}
	n += n1
	n1, err = ord.String.Skip(bs[n:])
	return n + n1, err
}

// MarshalIndexRow serializes an IndexRow to bytes.
func MarshalIndexRow(r *core.IndexRow) []byte {
	buf := make([]byte, IndexRowMUS.Size(*r))
	IndexRowMUS.Marshal(*r, buf)
	return buf
}

// UnmarshalIndexRow deserializes an IndexRow from bytes.
func UnmarshalIndexRow(data []byte) (*core.IndexRow, error) {
	r, _, err := IndexRowMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
