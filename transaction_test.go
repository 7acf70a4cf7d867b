// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package graphdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionRollbackClearsUndoBuffer(t *testing.T) {
	txn := newTransaction(StartTransactionID, 0, Write)
	vi := NewVersionInfo()

	vi.Append(txn, 0, 10)
	assert.Equal(t, 1, txn.UndoLen())
	assert.True(t, vi.IsInserted(txn, 5))

	txn.Rollback()
	assert.Equal(t, 0, txn.UndoLen())
	assert.False(t, vi.IsInserted(txn, 5))
}

func TestTransactionReadOnlyHasNoUndoBuffer(t *testing.T) {
	txn := newTransaction(StartTransactionID+1, 3, ReadOnly)
	assert.True(t, txn.IsReadOnly())
	assert.False(t, txn.shouldAppendToUndoBuffer)
}

type fakeCommitter struct {
	committed, rolledBack, flushed, checkpointed, cleared int
}

func (f *fakeCommitter) PrepareCommit(txn *Transaction) error   { f.committed++; return nil }
func (f *fakeCommitter) PrepareRollback(txn *Transaction) error { f.rolledBack++; return nil }
func (f *fakeCommitter) FlushAllPages() error                   { f.flushed++; return nil }
func (f *fakeCommitter) CheckpointInMemory() error              { f.checkpointed++; return nil }
func (f *fakeCommitter) ClearWAL() error                        { f.cleared++; return nil }

func TestTransactionManagerBeginCommit(t *testing.T) {
	c := &fakeCommitter{}
	tm := NewTransactionManager(c, TransactionManagerOptions{})

	txn, err := tm.BeginTransaction(Write)
	assert.NoError(t, err)
	assert.NotNil(t, txn)

	assert.NoError(t, tm.Commit(txn, true))
	assert.Equal(t, 1, c.committed)
	assert.Equal(t, 1, c.flushed)
	assert.Equal(t, uint64(1), tm.LastTimestamp())
}

func TestTransactionManagerRejectsSecondWriter(t *testing.T) {
	c := &fakeCommitter{}
	tm := NewTransactionManager(c, TransactionManagerOptions{})

	txn1, err := tm.BeginTransaction(Write)
	assert.NoError(t, err)
	assert.NotNil(t, txn1)

	_, err = tm.BeginTransaction(Write)
	assert.Error(t, err)

	assert.NoError(t, tm.Commit(txn1, true))

	txn2, err := tm.BeginTransaction(Write)
	assert.NoError(t, err)
	assert.NotNil(t, txn2)
}

func TestTransactionManagerMultiWritesAllowed(t *testing.T) {
	c := &fakeCommitter{}
	tm := NewTransactionManager(c, TransactionManagerOptions{EnableMultiWrites: true})

	txn1, err := tm.BeginTransaction(Write)
	assert.NoError(t, err)
	txn2, err := tm.BeginTransaction(Write)
	assert.NoError(t, err)
	assert.NotEqual(t, txn1.ID(), txn2.ID())
}

func TestTransactionManagerRollback(t *testing.T) {
	c := &fakeCommitter{}
	tm := NewTransactionManager(c, TransactionManagerOptions{})

	txn, err := tm.BeginTransaction(Write)
	assert.NoError(t, err)

	assert.NoError(t, tm.Rollback(txn, true))
	assert.Equal(t, 1, c.rolledBack)

	// The writer slot should be free again.
	_, err = tm.BeginTransaction(Write)
	assert.NoError(t, err)
}

func TestTransactionManagerCheckpoint(t *testing.T) {
	c := &fakeCommitter{}
	tm := NewTransactionManager(c, TransactionManagerOptions{CheckpointWaitTimeout: 0})

	assert.NoError(t, tm.Checkpoint())
	assert.Equal(t, 1, c.checkpointed)
	assert.Equal(t, 1, c.cleared)
}
