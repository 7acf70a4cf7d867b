// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package graphdb

import (
	"sync"
	"time"
)

// threadSleepWhenWaitingMicros is the polling interval used while the
// checkpoint barrier waits for active transactions to leave, per
// spec.md §4.6/§5 ("bounded by checkpointWaitTimeoutInMicros").
const threadSleepWhenWaitingMicros = 100 * time.Microsecond

// Committer is the narrow interface the TransactionManager drives at
// commit/rollback/checkpoint time; StorageManager (in a full build) and
// the WAL implement it. Kept as an interface so this package does not
// hard-depend on internal/wal, matching the teacher's own separation of
// Collection (public API) from commit.Logger (pluggable sink).
type Committer interface {
	// PrepareCommit appends a COMMIT WAL record and flushes dirty chunks to
	// shadow pages for the given transaction.
	PrepareCommit(txn *Transaction) error
	// PrepareRollback undoes any storage-level state staged for txn.
	PrepareRollback(txn *Transaction) error
	// FlushAllPages is the durability point: every shadow page write is
	// fsynced before this returns.
	FlushAllPages() error
	// CheckpointInMemory freezes node-group state, promoting shadow
	// pages into the main file and dropping the WAL.
	CheckpointInMemory() error
	// ClearWAL truncates the write-ahead log after a successful
	// checkpoint or rollback.
	ClearWAL() error
}

// TransactionManagerOptions configures checkpoint and write-concurrency
// behavior, mirroring the closed option set of spec.md §6.
type TransactionManagerOptions struct {
	EnableMultiWrites           bool
	CheckpointWaitTimeout       time.Duration
	AutoCheckpoint              bool
	CheckpointThresholdWALBytes uint64
}

// TransactionManager issues timestamps, serializes commit/rollback and
// checkpointing, and enforces the single-write-transaction rule, per
// spec.md §4.9 and grounded directly on
// original_source/src/transaction/transaction_manager.cpp.
type TransactionManager struct {
	opts TransactionManagerOptions

	mtxForStartingNewTransactions   sync.Mutex
	mtxForSerializingPublicCalls    sync.Mutex

	lastTimestamp     uint64
	lastTransactionID uint64

	activeMu             sync.Mutex
	activeWriteTxnID     uint64 // 0 means none
	activeReadOnlyTxnIDs map[uint64]struct{}

	committer Committer
}

// NewTransactionManager creates a manager backed by committer (the
// storage/WAL layer) with the given options.
func NewTransactionManager(committer Committer, opts TransactionManagerOptions) *TransactionManager {
	if opts.CheckpointWaitTimeout == 0 {
		opts.CheckpointWaitTimeout = 5 * time.Second
	}
	return &TransactionManager{
		opts:                 opts,
		lastTransactionID:    StartTransactionID,
		committer:            committer,
		activeReadOnlyTxnIDs: make(map[uint64]struct{}),
	}
}

// BeginTransaction starts a new transaction of the given type. It takes
// only mtxForStartingNewTransactions, so a pending checkpoint (which
// holds that same lock while it drains active transactions, see
// stopNewTransactionsAndWait) always gets priority over new arrivals,
// while ordinary commits/rollbacks never block a transaction merely
// starting. It deliberately never also takes
// mtxForSerializingPublicCalls: Commit/Rollback/Checkpoint take that
// lock first and then, during a checkpoint, wait on
// mtxForStartingNewTransactions — taking both locks here in the
// opposite order would deadlock against a concurrent checkpoint.
func (m *TransactionManager) BeginTransaction(kind TransactionType) (*Transaction, error) {
	m.mtxForStartingNewTransactions.Lock()
	defer m.mtxForStartingNewTransactions.Unlock()

	if kind == Write && !m.opts.EnableMultiWrites && m.hasActiveWriteTransactionNoLock() {
		return nil, errActiveWriterLimit()
	}

	m.lastTransactionID++
	id := m.lastTransactionID
	startTS := m.lastTimestamp

	txn := newTransaction(id, startTS, kind)

	m.activeMu.Lock()
	if kind == Write {
		m.activeWriteTxnID = id
	} else {
		m.activeReadOnlyTxnIDs[id] = struct{}{}
	}
	m.activeMu.Unlock()

	return txn, nil
}

func (m *TransactionManager) hasActiveWriteTransactionNoLock() bool {
	m.activeMu.Lock()
	defer m.activeMu.Unlock()
	return m.activeWriteTxnID != 0
}

// Commit assigns a commit timestamp, durably appends the commit record,
// and (unless skipCheckpointing) attempts a checkpoint. Read-only
// transactions simply deregister.
func (m *TransactionManager) Commit(txn *Transaction, skipCheckpointing bool) error {
	m.mtxForSerializingPublicCalls.Lock()
	defer m.mtxForSerializingPublicCalls.Unlock()

	if txn.IsReadOnly() {
		m.clearActive(txn)
		return nil
	}

	m.lastTimestamp++
	txn.commitTS = m.lastTimestamp

	if err := m.committer.PrepareCommit(txn); err != nil {
		return err
	}
	if err := m.committer.FlushAllPages(); err != nil {
		return err
	}
	m.clearActive(txn)

	if !skipCheckpointing {
		return m.checkpointNoLock()
	}
	return nil
}

// Rollback undoes a write transaction's staged storage state and its
// undo buffer, flushes pages, then (unless skipCheckpointing) clears the
// WAL through the Committer.
func (m *TransactionManager) Rollback(txn *Transaction, skipCheckpointing bool) error {
	m.mtxForSerializingPublicCalls.Lock()
	defer m.mtxForSerializingPublicCalls.Unlock()

	if txn.IsReadOnly() {
		m.clearActive(txn)
		return nil
	}

	if err := m.committer.PrepareRollback(txn); err != nil {
		return err
	}
	txn.Rollback()
	m.clearActive(txn)

	if err := m.committer.FlushAllPages(); err != nil {
		return err
	}
	if !skipCheckpointing {
		return m.committer.ClearWAL()
	}
	return nil
}

// Checkpoint forces a checkpoint outside of any particular transaction's
// commit path.
func (m *TransactionManager) Checkpoint() error {
	m.mtxForSerializingPublicCalls.Lock()
	defer m.mtxForSerializingPublicCalls.Unlock()
	return m.checkpointNoLock()
}

func (m *TransactionManager) checkpointNoLock() error {
	if err := m.stopNewTransactionsAndWait(); err != nil {
		return err
	}
	defer m.allowReceivingNewTransactions()

	if err := m.committer.FlushAllPages(); err != nil {
		return err
	}
	if err := m.committer.CheckpointInMemory(); err != nil {
		return err
	}
	return m.committer.ClearWAL()
}

// stopNewTransactionsAndWait blocks new BeginTransaction calls and
// spin-waits (bounded by opts.CheckpointWaitTimeout) until no write or
// read-only transactions remain active.
func (m *TransactionManager) stopNewTransactionsAndWait() error {
	m.mtxForStartingNewTransactions.Lock()

	var waited time.Duration
	for !m.canCheckpointNoLock() {
		if waited > m.opts.CheckpointWaitTimeout {
			m.mtxForStartingNewTransactions.Unlock()
			return errCheckpointTimeout()
		}
		time.Sleep(threadSleepWhenWaitingMicros)
		waited += threadSleepWhenWaitingMicros
	}
	return nil
}

func (m *TransactionManager) allowReceivingNewTransactions() {
	m.mtxForStartingNewTransactions.Unlock()
}

func (m *TransactionManager) canCheckpointNoLock() bool {
	m.activeMu.Lock()
	defer m.activeMu.Unlock()
	return m.activeWriteTxnID == 0 && len(m.activeReadOnlyTxnIDs) == 0
}

func (m *TransactionManager) clearActive(txn *Transaction) {
	m.activeMu.Lock()
	defer m.activeMu.Unlock()
	if txn.IsReadOnly() {
		delete(m.activeReadOnlyTxnIDs, txn.id)
		return
	}
	if m.activeWriteTxnID == txn.id {
		m.activeWriteTxnID = 0
	}
}

// LastTimestamp returns the current monotonic commit-timestamp watermark
// (tests / diagnostics only).
func (m *TransactionManager) LastTimestamp() uint64 {
	m.activeMu.Lock()
	defer m.activeMu.Unlock()
	return m.lastTimestamp
}
