// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package wal

import "github.com/kelindar/graphdb/internal/page"

// Checkpointer drives the shadow-page-apply-then-truncate-WAL sequence
// spec.md §4.6 describes: flush every staged shadow page into the main
// file, fsync it, then clear the WAL now that the main file alone is
// sufficient to reconstruct state.
type Checkpointer struct {
	wal    *WAL
	shadow *page.ShadowFile
	main   *page.File
}

// NewCheckpointer wires a WAL, its shadow file, and the main page file
// together.
func NewCheckpointer(w *WAL, shadow *page.ShadowFile, main *page.File) *Checkpointer {
	return &Checkpointer{wal: w, shadow: shadow, main: main}
}

// Run performs one checkpoint: apply staged shadow pages to the main
// file, then truncate the WAL. Must only be called while the caller
// (TransactionManager.checkpointNoLock) holds the checkpoint barrier —
// no transaction may be active.
func (c *Checkpointer) Run() error {
	if err := c.shadow.Flush(); err != nil {
		return err
	}
	if err := c.shadow.Apply(c.main); err != nil {
		return err
	}
	return c.wal.Clear()
}

// Abort discards staged shadow pages without touching the main file,
// the rollback counterpart to Run.
func (c *Checkpointer) Abort() {
	c.shadow.Discard()
}
