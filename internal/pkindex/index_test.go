// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package pkindex

import (
	"context"
	"fmt"
	"testing"

	"github.com/kelindar/xxrand"
	"github.com/stretchr/testify/assert"
)

func TestIndexInsertAndLookup(t *testing.T) {
	keys := map[uint64]string{0: "alice", 1: "bob", 2: "carol"}
	idx := New(func(row uint64, key any) bool {
		return keys[row] == key.(string)
	})

	for row, key := range keys {
		idx.Insert(HashString(key), row)
	}

	row, found := idx.Lookup(HashString("bob"), "bob")
	assert.True(t, found)
	assert.Equal(t, uint64(1), row)

	_, found = idx.Lookup(HashString("dave"), "dave")
	assert.False(t, found)
}

func TestIndexDelete(t *testing.T) {
	idx := New(nil)
	idx.Insert(HashString("a"), 7)
	idx.Delete(HashString("a"))
	_, found := idx.Lookup(HashString("a"), "a")
	assert.False(t, found)
}

func TestBuilderParallelBuild(t *testing.T) {
	keys := make(map[uint64]string, 500)
	for i := 0; i < 500; i++ {
		keys[uint64(i)] = string(rune('a'+i%26)) + string(rune(i))
	}

	idx := New(func(row uint64, key any) bool {
		return keys[row] == key.(string)
	})
	builder := NewBuilder(idx, func(key any) uint64 {
		return HashString(key.(string))
	})

	rows := make(chan Row)
	go func() {
		defer close(rows)
		for row, key := range keys {
			rows <- Row{Key: key, Row: row}
		}
	}()

	err := builder.Build(context.Background(), rows, 8)
	assert.NoError(t, err)

	for row, key := range keys {
		got, found := idx.Lookup(HashString(key), key)
		assert.True(t, found)
		assert.Equal(t, row, got)
	}
}

// TestIndexRandomWorkload drives the index with a shuffled mix of
// inserts and lookups, the same xxrand-driven workload-generation idiom
// the teacher uses for its throwaway load-testing binaries, but here as
// a real correctness test instead of a benchmark scaffold.
func TestIndexRandomWorkload(t *testing.T) {
	const n = 256
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}

	idx := New(func(row uint64, key any) bool {
		return keys[row] == key.(string)
	})
	for row, key := range keys {
		idx.Insert(HashString(key), uint64(row))
	}

	for i := 0; i < n*4; i++ {
		row := xxrand.Uint32n(uint32(n))
		got, found := idx.Lookup(HashString(keys[row]), keys[row])
		assert.True(t, found)
		assert.Equal(t, uint64(row), got)
	}
}
