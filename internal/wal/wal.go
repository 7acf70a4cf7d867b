// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package wal

import (
	"io"
	"os"
	"sync"

	"github.com/kelindar/iostream"
	"github.com/klauspost/compress/s2"
)

// WAL is the append-only write-ahead log, grounded directly on the
// teacher's commit.Log (commit/log.go: an s2-compressed iostream over a
// single read/write file handle), generalized from "column delta
// commits" to the tagged Record taxonomy of record.go.
type WAL struct {
	mu     sync.Mutex
	source io.ReadWriteSeeker
	writer *iostream.Writer
	reader *iostream.Reader
}

// Open wraps an existing read/write stream as a WAL.
func Open(source io.ReadWriteSeeker) *WAL {
	return &WAL{
		source: source,
		writer: iostream.NewWriter(s2.NewWriter(source)),
		reader: iostream.NewReader(s2.NewReader(source)),
	}
}

// OpenFile opens (creating if necessary) the WAL file at path.
func OpenFile(path string) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	return Open(file), nil
}

// Append durably writes one record to the log tail.
func (w *WAL) Append(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := rec.WriteTo(w.writer); err != nil {
		return err
	}
	return w.writer.Flush()
}

// Range replays every record in the log in order, stopping early if fn
// returns an error.
func (w *WAL) Range(fn func(Record) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for {
		var rec Record
		_, err := rec.ReadFrom(w.reader)
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

// Clear truncates the log, the point a successful checkpoint reaches
// once every record it covers has been durably applied to the main
// store, per spec.md §4.6.
func (w *WAL) Clear() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if f, ok := w.source.(*os.File); ok {
		if err := f.Truncate(0); err != nil {
			return err
		}
	}
	if _, err := w.source.Seek(0, io.SeekStart); err != nil {
		return err
	}
	w.writer = iostream.NewWriter(s2.NewWriter(w.source))
	w.reader = iostream.NewReader(s2.NewReader(w.source))
	return nil
}

// Close flushes and releases the underlying file handle if the source
// is an *os.File.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		return err
	}
	if f, ok := w.source.(*os.File); ok {
		return f.Close()
	}
	return nil
}
