// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package graphdb

import "sync"

// StartTransactionID is the first ID assigned to an in-flight
// transaction. IDs at or above this value are never confused with a
// committed timestamp, which always lies below it.
const StartTransactionID = uint64(1) << 62

// TransactionType distinguishes read-only snapshots from writers.
type TransactionType uint8

const (
	ReadOnly TransactionType = iota
	Write
)

// undoKind tags one entry in a transaction's undo buffer.
type undoKind uint8

const (
	undoInsert undoKind = iota
	undoDelete
)

// undoEntry is one vector-level insert/delete recorded for rollback, per
// spec.md §3 ("Transaction → list of UndoBuffer entries pointing into
// the above").
type undoEntry struct {
	kind      undoKind
	version   *VersionInfo
	vectorIdx uint32
	startRow  uint32
	numRows   uint32
}

// Transaction carries a unique id, a start timestamp, a commit timestamp
// (filled in at commit), a type, and an undo buffer, per spec.md §3.
type Transaction struct {
	mu       sync.Mutex
	id       uint64
	startTS  uint64
	commitTS uint64
	kind     TransactionType

	undo []undoEntry

	// shouldAppendToUndoBuffer is true for write transactions and false
	// for read-only ones.
	shouldAppendToUndoBuffer bool
}

// newTransaction constructs a transaction with the given identity. id
// must be >= StartTransactionID for in-flight transactions (enforced by
// TransactionManager.BeginTransaction).
func newTransaction(id uint64, startTS uint64, kind TransactionType) *Transaction {
	return &Transaction{
		id:                       id,
		startTS:                  startTS,
		kind:                     kind,
		shouldAppendToUndoBuffer: kind == Write,
	}
}

// ID returns the transaction's unique identifier.
func (t *Transaction) ID() uint64 { return t.id }

// StartTS returns the snapshot timestamp this transaction reads against.
func (t *Transaction) StartTS() uint64 { return t.startTS }

// CommitTS returns the commit timestamp, valid only after a successful
// commit of a write transaction.
func (t *Transaction) CommitTS() uint64 { return t.commitTS }

// IsReadOnly reports whether this is a read-only transaction.
func (t *Transaction) IsReadOnly() bool { return t.kind == ReadOnly }

// pushVectorInsert records an Append so it can be undone on rollback.
func (t *Transaction) pushVectorInsert(vi *VersionInfo, vectorIdx, startRow, numRows uint32) {
	t.mu.Lock()
	t.undo = append(t.undo, undoEntry{kind: undoInsert, version: vi, vectorIdx: vectorIdx, startRow: startRow, numRows: numRows})
	t.mu.Unlock()
}

// pushVectorDelete records a Delete so it can be undone on rollback.
func (t *Transaction) pushVectorDelete(vi *VersionInfo, vectorIdx, startRow, numRows uint32) {
	t.mu.Lock()
	t.undo = append(t.undo, undoEntry{kind: undoDelete, version: vi, vectorIdx: vectorIdx, startRow: startRow, numRows: numRows})
	t.mu.Unlock()
}

// Rollback undoes every recorded vector-level insert/delete in reverse
// order, per spec.md §4.6 ("StorageManager.prepareRollback").
func (t *Transaction) Rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		e := t.undo[i]
		switch e.kind {
		case undoInsert:
			e.version.RollbackInsertions(e.vectorIdx, e.startRow, e.numRows)
		case undoDelete:
			e.version.RollbackDeletions(e.vectorIdx, e.startRow, e.numRows)
		}
	}
	t.undo = t.undo[:0]
}

// UndoLen reports how many undo entries are currently buffered (used by
// tests asserting rollback actually clears state).
func (t *Transaction) UndoLen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.undo)
}
