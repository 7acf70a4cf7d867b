// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package page

import (
	"fmt"
	"sync"
)

// ShadowFile implements copy-on-write shadow paging, per spec.md §4.6:
// a dirty page is never overwritten in place; instead its new bytes are
// written to a free slot in a side shadow file, and a page-number →
// shadow-slot map records where it went. That map lives in memory only;
// it is not written to disk. ShadowFile.Apply replays that map into the
// main file during CheckpointInMemory.
type ShadowFile struct {
	mu      sync.Mutex
	shadow  *File
	mapping map[uint64]uint64 // main page idx -> shadow page idx
	nextSeg uint64
}

// OpenShadow opens (or creates) the shadow file alongside the main page
// file at path+".shadow".
func OpenShadow(mainPath string) (*ShadowFile, error) {
	f, err := Open(mainPath + ".shadow")
	if err != nil {
		return nil, fmt.Errorf("page: opening shadow file: %w", err)
	}
	return &ShadowFile{shadow: f, mapping: make(map[uint64]uint64)}, nil
}

// WriteShadow stages new bytes for mainPageIdx into a fresh shadow slot,
// without touching the main file.
func (s *ShadowFile) WriteShadow(mainPageIdx uint64, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := s.nextSeg
	s.nextSeg++
	if err := s.shadow.WritePage(slot, data); err != nil {
		return err
	}
	s.mapping[mainPageIdx] = slot
	return nil
}

// Flush fsyncs the shadow file; this is the durability barrier that must
// complete before Apply ever touches the main file, so a crash between
// the two never corrupts it.
func (s *ShadowFile) Flush() error {
	return s.shadow.Sync()
}

// Apply copies every staged shadow page into its real slot in main, then
// clears the in-memory mapping. Called only from within the checkpoint
// barrier (TransactionManager.checkpointNoLock), when no transaction can
// be concurrently reading the pages being overwritten.
func (s *ShadowFile) Apply(main *File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for mainIdx, shadowIdx := range s.mapping {
		data, err := s.shadow.ReadPage(shadowIdx)
		if err != nil {
			return err
		}
		if err := main.WritePage(mainIdx, data); err != nil {
			return err
		}
	}
	if err := main.Sync(); err != nil {
		return err
	}

	s.mapping = make(map[uint64]uint64)
	s.nextSeg = 0
	return nil
}

// Discard drops every staged shadow page without applying them, the
// rollback path: the main file is untouched, so nothing needs undoing
// there.
func (s *ShadowFile) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mapping = make(map[uint64]uint64)
	s.nextSeg = 0
}

// Close releases the shadow file's descriptor.
func (s *ShadowFile) Close() error {
	return s.shadow.Close()
}
