// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package wal implements the write-ahead log record taxonomy and the
// append-only log itself, per spec.md §4.6.
package wal

import (
	"io"

	"github.com/kelindar/iostream"
)

// Kind tags one WAL record. The log knows only transaction boundaries,
// row-range appends/deletes/updates, and checkpoints; it has no page-update,
// add/drop-column or catalog-change record kinds.
type Kind uint8

const (
	KindBegin Kind = iota
	KindAppend
	KindDelete
	KindUpdate
	KindCommit
	KindRollback
	KindCheckpoint
)

// Record is one entry in the log: a transaction ID, a kind, and a
// payload whose shape depends on Kind (table name + row range for
// Append/Delete/Update, nothing for Begin/Commit/Rollback/Checkpoint).
type Record struct {
	TxnID     uint64
	Kind      Kind
	Table     string
	StartRow  uint64
	NumRows   uint32
	ColumnIdx uint32
	Payload   []byte
}

// WriteTo serializes the record using iostream, the teacher's own
// wire-framing library (commit/buffer_codec.go's WriteTo/ReadFrom
// pattern), generalized from a single column-delta buffer to a tagged
// WAL record.
func (r Record) WriteTo(dst io.Writer) (int64, error) {
	w := iostream.NewWriter(dst)
	if err := w.WriteUint64(r.TxnID); err != nil {
		return w.Offset(), err
	}
	if err := w.Write([]byte{byte(r.Kind)}); err != nil {
		return w.Offset(), err
	}
	if err := w.WriteString(r.Table); err != nil {
		return w.Offset(), err
	}
	if err := w.WriteUint64(r.StartRow); err != nil {
		return w.Offset(), err
	}
	if err := w.WriteUint32(r.NumRows); err != nil {
		return w.Offset(), err
	}
	if err := w.WriteUint32(r.ColumnIdx); err != nil {
		return w.Offset(), err
	}
	err := w.WriteBytes(r.Payload)
	return w.Offset(), err
}

// ReadFrom deserializes a record written by WriteTo.
func (r *Record) ReadFrom(src io.Reader) (int64, error) {
	rd := iostream.NewReader(src)
	var err error
	if r.TxnID, err = rd.ReadUint64(); err != nil {
		return rd.Offset(), err
	}

	var kindByte [1]byte
	if _, err = io.ReadFull(rd, kindByte[:]); err != nil {
		return rd.Offset(), err
	}
	r.Kind = Kind(kindByte[0])

	if r.Table, err = rd.ReadString(); err != nil {
		return rd.Offset(), err
	}
	if r.StartRow, err = rd.ReadUint64(); err != nil {
		return rd.Offset(), err
	}
	if r.NumRows, err = rd.ReadUint32(); err != nil {
		return rd.Offset(), err
	}
	if r.ColumnIdx, err = rd.ReadUint32(); err != nil {
		return rd.Offset(), err
	}
	r.Payload, err = rd.ReadBytes()
	return rd.Offset(), err
}
