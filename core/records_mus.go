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

import (
	"errors"
	"math"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

var (
	// ErrNegativeLength is returned when a decoded length prefix is negative.
	ErrNegativeLength = errors.New("negative length")

	// ErrLengthOutOfRange is returned when a decoded length prefix claims more
	// elements than the remaining bytes can hold.
	ErrLengthOutOfRange = errors.New("length out of range")
)

// IDMUS serializes ID values as varints.
var IDMUS = idMUS{}

// EntryMUS serializes Entry values.
var EntryMUS = entryMUS{}

// IndexManifestMUS serializes IndexManifest values.
var IndexManifestMUS = manifestMUS{}

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (s idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

// Timestamps are stored as Unix microseconds.
func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	us, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(us).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func marshalLength(l int, bs []byte) int {
	return varint.Int64.Marshal(int64(l), bs)
}

func unmarshalLength(bs []byte) (int, int, error) {
	l, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return 0, n, err
	}
	if l < 0 {
		return 0, n, ErrNegativeLength
	}
	return int(l), n, nil
}

// unmarshalCount decodes a length prefix for elements of at least minSize bytes
// each and rejects counts the rest of bs cannot hold.
func unmarshalCount(bs []byte, minSize int) (int, int, error) {
	l, n, err := unmarshalLength(bs)
	if err != nil {
		return 0, n, err
	}
	if l > (len(bs)-n)/minSize {
		return 0, n, ErrLengthOutOfRange
	}
	return l, n, nil
}

func sizeLength(l int) int {
	return varint.Int64.Size(int64(l))
}

func marshalVector(v []float32, bs []byte) (n int) {
	n = marshalLength(len(v), bs)
	for _, f := range v {
		n += varint.Uint32.Marshal(math.Float32bits(f), bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) (v []float32, n int, err error) {
	l, n, err := unmarshalCount(bs, 1)
	if err != nil {
		return nil, n, err
	}
	if l == 0 {
		return nil, n, nil
	}
	v = make([]float32, l)
	for i := range v {
		bits, m, err := varint.Uint32.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
		v[i] = math.Float32frombits(bits)
	}
	return v, n, nil
}

func sizeVector(v []float32) (size int) {
	size = sizeLength(len(v))
	for _, f := range v {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	return size
}

// Map keys are written in sorted order so equal maps encode identically.
func marshalMetadata(m map[string]string, bs []byte) (n int) {
	keys := sortedKeys(m)
	n = marshalLength(len(keys), bs)
	for _, k := range keys {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(m[k], bs[n:])
	}
	return n
}

func unmarshalMetadata(bs []byte) (m map[string]string, n int, err error) {
	// Each pair holds two length-prefixed strings.
	l, n, err := unmarshalCount(bs, 2)
	if err != nil {
		return nil, n, err
	}
	m = make(map[string]string, l)
	for i := 0; i < l; i++ {
		k, m1, err := ord.String.Unmarshal(bs[n:])
		n += m1
		if err != nil {
			return nil, n, err
		}
		v, m2, err := ord.String.Unmarshal(bs[n:])
		n += m2
		if err != nil {
			return nil, n, err
		}
		m[k] = v
	}
	return m, n, nil
}

func sizeMetadata(m map[string]string) (size int) {
	size = sizeLength(len(m))
	for k, v := range m {
		size += ord.String.Size(k) + ord.String.Size(v)
	}
	return size
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

type entryMUS struct{}

func (s entryMUS) Marshal(v Entry, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.ItemId, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += marshalVector(v.Vector, bs[n:])
	n += marshalMetadata(v.Metadata, bs[n:])
	n += IDMUS.Marshal(v.ContentHash, bs[n:])
	return n + marshalTime(v.InsertedAt, bs[n:])
}

func (s entryMUS) Unmarshal(bs []byte) (v Entry, n int, err error) {
	var m int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	v.ItemId, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Title, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Content, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Vector, m, err = unmarshalVector(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Metadata, m, err = unmarshalMetadata(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.ContentHash, m, err = IDMUS.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.InsertedAt, m, err = unmarshalTime(bs[n:])
	n += m
	return
}

func (s entryMUS) Size(v Entry) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.ItemId)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Content)
	size += sizeVector(v.Vector)
	size += sizeMetadata(v.Metadata)
	size += IDMUS.Size(v.ContentHash)
	return size + sizeTime(v.InsertedAt)
}

type manifestMUS struct{}

func (s manifestMUS) Marshal(v IndexManifest, bs []byte) (n int) {
	n = ord.String.Marshal(v.BuildId, bs)
	n += ord.String.Marshal(v.EmbeddingModel, bs[n:])
	n += marshalLength(v.Dimension, bs[n:])
	n += marshalLength(v.Count, bs[n:])
	return n + marshalTime(v.CreatedAt, bs[n:])
}

func (s manifestMUS) Unmarshal(bs []byte) (v IndexManifest, n int, err error) {
	var m int
	v.BuildId, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.EmbeddingModel, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Dimension, m, err = unmarshalLength(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.Count, m, err = unmarshalLength(bs[n:])
	n += m
	if err != nil {
		return
	}
	v.CreatedAt, m, err = unmarshalTime(bs[n:])
	n += m
	return
}

func (s manifestMUS) Size(v IndexManifest) (size int) {
	size = ord.String.Size(v.BuildId)
	size += ord.String.Size(v.EmbeddingModel)
	size += sizeLength(v.Dimension)
	size += sizeLength(v.Count)
	return size + sizeTime(v.CreatedAt)
}
