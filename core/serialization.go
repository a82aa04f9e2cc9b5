// Copyright 2026 Brightpath Learning
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

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the core types. Vectors use raw float32 encoding
// (fixed 4 bytes per element), everything else uses varint where possible.
var (
	IDMUS              = idMUS{}
	EmbeddingRecordMUS = embeddingRecordMUS{}

	vectorMUS    = ord.NewSliceSer[float32](raw.Float32)
	metadataMUS  = ord.NewMapSer[string, string](ord.String, ord.String)
	timestampMUS = timeMUS{}
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

// timeMUS encodes a time.Time as UnixMicro. The zero time maps to 0 so it
// round-trips as the zero time instead of a year-292269055 artifact.
type timeMUS struct{}

func (timeMUS) Marshal(t time.Time, bs []byte) int {
	var v int64
	if !t.IsZero() {
		v = t.UnixMicro()
	}
	return varint.Int64.Marshal(v, bs)
}

func (timeMUS) Unmarshal(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil || v == 0 {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func (timeMUS) Size(t time.Time) int {
	var v int64
	if !t.IsZero() {
		v = t.UnixMicro()
	}
	return varint.Int64.Size(v)
}

func (timeMUS) Skip(bs []byte) (int, error) {
	return varint.Int64.Skip(bs)
}

type embeddingRecordMUS struct{}

func (embeddingRecordMUS) Marshal(r EmbeddingRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(r.Id, bs)
	n += varint.Uint64.Marshal(uint64(r.Course), bs[n:])
	n += ord.String.Marshal(r.Lesson, bs[n:])
	n += varint.Int.Marshal(r.Ordinal, bs[n:])
	n += ord.String.Marshal(r.Content, bs[n:])
	n += vectorMUS.Marshal(r.Vector, bs[n:])
	n += metadataMUS.Marshal(r.Metadata, bs[n:])
	n += timestampMUS.Marshal(r.InsertedAt, bs[n:])
	n += timestampMUS.Marshal(r.UpdatedAt, bs[n:])
	return n
}

func (embeddingRecordMUS) Unmarshal(bs []byte) (r EmbeddingRecord, n int, err error) {
	var n1 int
	r.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var course uint64
	course, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Course = CourseID(course)
	r.Lesson, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Ordinal, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Metadata, n1, err = metadataMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.InsertedAt, n1, err = timestampMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.UpdatedAt, n1, err = timestampMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (embeddingRecordMUS) Size(r EmbeddingRecord) (size int) {
	size = IDMUS.Size(r.Id)
	size += varint.Uint64.Size(uint64(r.Course))
	size += ord.String.Size(r.Lesson)
	size += varint.Int.Size(r.Ordinal)
	size += ord.String.Size(r.Content)
	size += vectorMUS.Size(r.Vector)
	size += metadataMUS.Size(r.Metadata)
	size += timestampMUS.Size(r.InsertedAt)
	size += timestampMUS.Size(r.UpdatedAt)
	return size
}

func (embeddingRecordMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	for _, skip := range []func([]byte) (int, error){
		varint.Uint64.Skip,
		ord.String.Skip,
		varint.Int.Skip,
		ord.String.Skip,
		vectorMUS.Skip,
		metadataMUS.Skip,
		timestampMUS.Skip,
		timestampMUS.Skip,
	} {
		n1, err = skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}
