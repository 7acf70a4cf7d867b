// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package graphdb

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeGroupAppendAndScan(t *testing.T) {
	ng := NewNodeGroup()
	txn := newTransaction(StartTransactionID, 0, Write)
	col := NewColumnChunk[int64](UncompressedCodec[int64]{})

	_, groupIdx := Append(ng, txn, col, []int64{1, 2, 3})
	assert.Equal(t, 0, groupIdx)

	// A transaction that started before this insert should not see it.
	reader := newTransaction(StartTransactionID+1, 0, ReadOnly)
	var state ScanState
	result := ng.Scan(reader, &state)
	assert.Equal(t, uint32(0), result.NumRows)

	// The writer itself should see its own uncommitted insert.
	var ownState ScanState
	ownResult := ng.Scan(txn, &ownState)
	assert.Equal(t, uint32(3), ownResult.NumRows)
}

func TestNodeGroupSpillsToNewChunkedGroup(t *testing.T) {
	ng := NewNodeGroup()
	txn := newTransaction(StartTransactionID, 0, Write)
	col := NewColumnChunk[int64](UncompressedCodec[int64]{})

	values := make([]int64, ChunkCapacity)
	Append(ng, txn, col, values)
	assert.Equal(t, 1, ng.NumGroups())

	col2 := NewColumnChunk[int64](UncompressedCodec[int64]{})
	Append(ng, txn, col2, []int64{1})
	assert.Equal(t, 2, ng.NumGroups())
}

func TestNodeGroupConcurrentReserve(t *testing.T) {
	ng := NewNodeGroup()
	txn := newTransaction(StartTransactionID, 0, Write)

	var wg sync.WaitGroup
	starts := make([]uint64, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			col := NewColumnChunk[int64](UncompressedCodec[int64]{})
			start, _ := Append(ng, txn, col, []int64{int64(i)})
			starts[i] = start
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool, 100)
	for _, s := range starts {
		assert.False(t, seen[s], "row index %d reserved twice", s)
		seen[s] = true
	}
}

func TestNodeGroupCheckpointFlipsResidency(t *testing.T) {
	ng := NewNodeGroup()
	txn := newTransaction(StartTransactionID, 0, Write)
	col := NewColumnChunk[int64](UncompressedCodec[int64]{})
	Append(ng, txn, col, []int64{1, 2, 3})

	ng.Checkpoint(func(group *ChunkedNodeGroup) {
		// Caller owns per-column rewrite; nothing to compress since we
		// hold no reference to the column chunk from the node group in
		// this test, so just assert the group we're given is the right
		// one.
		assert.Equal(t, InMemory, group.Residency)
	})
	assert.Equal(t, OnDisk, ng.GroupAt(0).Residency)
}
