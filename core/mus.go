package core

// Hand-written MUS serializers for records persisted in BadgerDB.
// Field order is part of the storage format; append new fields at the end.

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// IDMUS serializes IDs.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (id ID, n int, err error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) (size int) {
	return varint.Uint64.Size(uint64(id))
}

// timeMUS serializes timestamps as Unix microseconds.
type timeMUS struct{}

func (timeMUS) Marshal(t time.Time, bs []byte) (n int) {
	if t.IsZero() {
		return varint.Int64.Marshal(0, bs)
	}
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func (timeMUS) Unmarshal(bs []byte) (t time.Time, n int, err error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	if v == 0 {
		return time.Time{}, n, nil
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func (timeMUS) Size(t time.Time) (size int) {
	if t.IsZero() {
		return varint.Int64.Size(0)
	}
	return varint.Int64.Size(t.UnixMicro())
}

var timeSer = timeMUS{}

// vectorMUS serializes embedding vectors as a length-prefixed list of
// float32 bit patterns.
type vectorMUS struct{}

func (vectorMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += varint.Float32.Marshal(f, bs[n:])
	}
	return n
}

func (vectorMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]float32, length)
	for i := 0; i < length; i++ {
		var f float32
		var m int
		f, m, err = varint.Float32.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
		v[i] = f
	}
	return v, n, nil
}

func (vectorMUS) Size(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += varint.Float32.Size(f)
	}
	return size
}

var vectorSer = vectorMUS{}

// DocumentMUS serializes ledger Document records.
var DocumentMUS = documentMUS{}

type documentMUS struct{}

func (documentMUS) Marshal(d Document, bs []byte) (n int) {
	n = IDMUS.Marshal(d.Id, bs)
	n += ord.String.Marshal(d.SourceRef, bs[n:])
	n += varint.Int.Marshal(int(d.Status), bs[n:])
	n += varint.Int.Marshal(d.RetryCount, bs[n:])
	n += ord.String.Marshal(d.ErrorMessage, bs[n:])
	n += varint.Int.Marshal(d.ChunkCount, bs[n:])
	n += timeSer.Marshal(d.IndexedAt, bs[n:])
	n += timeSer.Marshal(d.EnqueuedAt, bs[n:])
	n += timeSer.Marshal(d.UpdatedAt, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (d Document, n int, err error) {
	var m int
	if d.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if d.SourceRef, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	var status int
	if status, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	d.Status = DocumentStatus(status)
	if d.RetryCount, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	if d.ErrorMessage, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	if d.ChunkCount, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	if d.IndexedAt, m, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	if d.EnqueuedAt, m, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	if d.UpdatedAt, m, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return d, n + m, err
	}
	n += m
	return d, n, nil
}

func (documentMUS) Size(d Document) (size int) {
	size = IDMUS.Size(d.Id)
	size += ord.String.Size(d.SourceRef)
	size += varint.Int.Size(int(d.Status))
	size += varint.Int.Size(d.RetryCount)
	size += ord.String.Size(d.ErrorMessage)
	size += varint.Int.Size(d.ChunkCount)
	size += timeSer.Size(d.IndexedAt)
	size += timeSer.Size(d.EnqueuedAt)
	size += timeSer.Size(d.UpdatedAt)
	return size
}

// EntryMetadataMUS serializes vector entry metadata.
var EntryMetadataMUS = entryMetadataMUS{}

type entryMetadataMUS struct{}

func (entryMetadataMUS) Marshal(md EntryMetadata, bs []byte) (n int) {
	n = IDMUS.Marshal(md.DocumentId, bs)
	n += ord.String.Marshal(md.SourceRef, bs[n:])
	n += ord.String.Marshal(md.Filename, bs[n:])
	n += timeSer.Marshal(md.UploadDate, bs[n:])
	n += varint.Int.Marshal(md.ChunkIndex, bs[n:])
	n += varint.Int.Marshal(md.TotalChunks, bs[n:])
	return n
}

func (entryMetadataMUS) Unmarshal(bs []byte) (md EntryMetadata, n int, err error) {
	var m int
	if md.DocumentId, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if md.SourceRef, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return md, n + m, err
	}
	n += m
	if md.Filename, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return md, n + m, err
	}
	n += m
	if md.UploadDate, m, err = timeSer.Unmarshal(bs[n:]); err != nil {
		return md, n + m, err
	}
	n += m
	if md.ChunkIndex, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return md, n + m, err
	}
	n += m
	if md.TotalChunks, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return md, n + m, err
	}
	n += m
	return md, n, nil
}

func (entryMetadataMUS) Size(md EntryMetadata) (size int) {
	size = IDMUS.Size(md.DocumentId)
	size += ord.String.Size(md.SourceRef)
	size += ord.String.Size(md.Filename)
	size += timeSer.Size(md.UploadDate)
	size += varint.Int.Size(md.ChunkIndex)
	size += varint.Int.Size(md.TotalChunks)
	return size
}

// IndexEntryMUS serializes vector store entries.
var IndexEntryMUS = indexEntryMUS{}

type indexEntryMUS struct{}

func (indexEntryMUS) Marshal(e IndexEntry, bs []byte) (n int) {
	n = ord.String.Marshal(e.Id, bs)
	n += vectorSer.Marshal(e.Vector, bs[n:])
	n += ord.String.Marshal(e.Text, bs[n:])
	n += EntryMetadataMUS.Marshal(e.Metadata, bs[n:])
	return n
}

func (indexEntryMUS) Unmarshal(bs []byte) (e IndexEntry, n int, err error) {
	var m int
	if e.Id, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if e.Vector, m, err = vectorSer.Unmarshal(bs[n:]); err != nil {
		return e, n + m, err
	}
	n += m
	if e.Text, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + m, err
	}
	n += m
	if e.Metadata, m, err = EntryMetadataMUS.Unmarshal(bs[n:]); err != nil {
		return e, n + m, err
	}
	n += m
	return e, n, nil
}

func (indexEntryMUS) Size(e IndexEntry) (size int) {
	size = ord.String.Size(e.Id)
	size += vectorSer.Size(e.Vector)
	size += ord.String.Size(e.Text)
	size += EntryMetadataMUS.Size(e.Metadata)
	return size
}
