// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package page implements fixed-size page file storage with a
// copy-on-write shadow-page checkpointing protocol, per spec.md §4.6.
package page

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Size is the fixed page size in bytes.
const Size = 1 << 16 // 64 KiB, matching the original's default page size

// File is a fixed-size-page-addressable file. Reads and writes target a
// page by index using pread/pwrite so concurrent page access never needs
// a shared file offset, generalizing the teacher's single-stream
// commit.Log (commit/log.go) to random page access. Grounded on
// `golang.org/x/sys/unix`, a teacher dependency (indirect, via
// klauspost/compress's build constraints) never exercised by the copied
// teacher code — this is exactly the file-offset-level component it was
// destined for.
type File struct {
	fd   int
	path string
}

// Open opens (creating if necessary) the page file at path.
func Open(path string) (*File, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0o644)
	if err != nil {
		return nil, fmt.Errorf("page: opening %s: %w", path, err)
	}
	return &File{fd: fd, path: path}, nil
}

// ReadPage reads page number idx into a freshly allocated Size-byte
// buffer.
func (f *File) ReadPage(idx uint64) ([]byte, error) {
	buf := make([]byte, Size)
	n, err := unix.Pread(f.fd, buf, int64(idx)*Size)
	if err != nil {
		return nil, fmt.Errorf("page: reading page %d: %w", idx, err)
	}
	return buf[:n], nil
}

// WritePage writes data (padded/truncated to Size) to page number idx.
func (f *File) WritePage(idx uint64, data []byte) error {
	buf := make([]byte, Size)
	copy(buf, data)
	if _, err := unix.Pwrite(f.fd, buf, int64(idx)*Size); err != nil {
		return fmt.Errorf("page: writing page %d: %w", idx, err)
	}
	return nil
}

// Sync fsyncs the underlying file descriptor, the durability point
// checkpointing relies on.
func (f *File) Sync() error {
	return unix.Fsync(f.fd)
}

// Close releases the file descriptor.
func (f *File) Close() error {
	return unix.Close(f.fd)
}

// Remove deletes the backing file from disk (used when discarding an
// aborted shadow file).
func (f *File) Remove() error {
	return os.Remove(f.path)
}
