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
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/talkrag/core"
)

// entryFormat is written first so the layout can change without a migration tool.
const entryFormat = 1

// MarshalEntry serializes an IndexEntry to bytes.
func MarshalEntry(e *core.IndexEntry) []byte {
	buf := make([]byte, entrySize(e))
	n := varint.Int.Marshal(entryFormat, buf)
	n += ord.String.Marshal(e.ID, buf[n:])
	n += ord.String.Marshal(e.RecordID, buf[n:])
	n += ord.String.Marshal(e.Title, buf[n:])
	n += ord.String.Marshal(e.Speaker, buf[n:])
	n += ord.String.Marshal(e.ChunkText, buf[n:])
	n += varint.Int.Marshal(e.ChunkIndex, buf[n:])
	n += varint.Uint64.Marshal(uint64(e.Fingerprint), buf[n:])
	n += ord.String.Marshal(e.Model, buf[n:])
	n += varint.Int64.Marshal(timeToMicro(e.UpdatedAt), buf[n:])
	n += varint.Int.Marshal(len(e.Vector), buf[n:])
	for _, v := range e.Vector {
		n += raw.Float32.Marshal(v, buf[n:])
	}
	return buf[:n]
}

func entrySize(e *core.IndexEntry) int {
	size := varint.Int.Size(entryFormat)
	size += ord.String.Size(e.ID)
	size += ord.String.Size(e.RecordID)
	size += ord.String.Size(e.Title)
	size += ord.String.Size(e.Speaker)
	size += ord.String.Size(e.ChunkText)
	size += varint.Int.Size(e.ChunkIndex)
	size += varint.Uint64.Size(uint64(e.Fingerprint))
	size += ord.String.Size(e.Model)
	size += varint.Int64.Size(timeToMicro(e.UpdatedAt))
	size += varint.Int.Size(len(e.Vector))
	for _, v := range e.Vector {
		size += raw.Float32.Size(v)
	}
	return size
}

// UnmarshalEntry deserializes an IndexEntry from bytes.
func UnmarshalEntry(data []byte) (*core.IndexEntry, error) {
	r := &reader{data: data}
	format := r.readInt()
	if r.err == nil && format != entryFormat {
		return nil, fmt.Errorf("%w: unknown entry format %d", ErrSerializationFailed, format)
	}

	e := &core.IndexEntry{}
	e.ID = r.readString()
	e.RecordID = r.readString()
	e.Title = r.readString()
	e.Speaker = r.readString()
	e.ChunkText = r.readString()
	e.ChunkIndex = r.readInt()
	e.Fingerprint = core.Fingerprint(r.readUint64())
	e.Model = r.readString()
	e.UpdatedAt = microToTime(r.readInt64())
	count := r.readInt()
	if r.err == nil && (count < 0 || count*4 > len(data)-r.pos) {
		return nil, fmt.Errorf("%w: vector length %d", ErrTruncatedData, count)
	}
	if r.err == nil && count > 0 {
		e.Vector = make([]float32, count)
		for i := range e.Vector {
			e.Vector[i] = r.readFloat32()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return e, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(c *core.Checkpoint) []byte {
	at := timeToMicro(c.UpdatedAt)
	buf := make([]byte, ord.String.Size(c.Name)+varint.Int64.Size(c.Position)+varint.Int64.Size(at))
	n := ord.String.Marshal(c.Name, buf)
	n += varint.Int64.Marshal(c.Position, buf[n:])
	n += varint.Int64.Marshal(at, buf[n:])
	return buf[:n]
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	r := &reader{data: data}
	c := &core.Checkpoint{
		Name:     r.readString(),
		Position: r.readInt64(),
	}
	c.UpdatedAt = microToTime(r.readInt64())
	if r.err != nil {
		return nil, r.err
	}
	return c, nil
}

// reader decodes fields in sequence and keeps the first error.
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: at byte %d: %w", ErrSerializationFailed, r.pos, err)
	}
}

func (r *reader) readString() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.data[r.pos:])
	if err != nil {
		r.fail(err)
		return ""
	}
	r.pos += n
	return v
}

func (r *reader) readInt() int {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(r.data[r.pos:])
	if err != nil {
		r.fail(err)
		return 0
	}
	r.pos += n
	return v
}

func (r *reader) readInt64() int64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.data[r.pos:])
	if err != nil {
		r.fail(err)
		return 0
	}
	r.pos += n
	return v
}

func (r *reader) readUint64() uint64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(r.data[r.pos:])
	if err != nil {
		r.fail(err)
		return 0
	}
	r.pos += n
	return v
}

func (r *reader) readFloat32() float32 {
	if r.err != nil {
		return 0
	}
	if len(r.data)-r.pos < 4 {
		r.fail(ErrTruncatedData)
		return 0
	}
	v, n, err := raw.Float32.Unmarshal(r.data[r.pos:])
	if err != nil {
		r.fail(err)
		return 0
	}
	r.pos += n
	return v
}

func timeToMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func microToTime(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}
