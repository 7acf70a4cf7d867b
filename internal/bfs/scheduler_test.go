// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package bfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// chainGraph is a simple 0-1-2-3-4-5 path used to exercise level-by-level
// expansion deterministically.
type chainGraph struct {
	edges map[uint64][]uint64
}

func (g chainGraph) Neighbors(offset uint64) []uint64 {
	return g.edges[offset]
}

func TestSchedulerFindsShortestPaths(t *testing.T) {
	g := chainGraph{edges: map[uint64][]uint64{
		0: {1},
		1: {0, 2},
		2: {1, 3},
		3: {2, 4},
		4: {3, 5},
		5: {4},
	}}

	m := NewMorsel(0, 5, 0, 10, 1)
	m.MarkDestination(5)

	s := New(g, 4)
	assert.NoError(t, s.RunBatch(context.Background(), []*Morsel{m}))

	results := m.Results()
	assert.Equal(t, int64(5), results[5])
}

func TestSchedulerRespectsUpperBound(t *testing.T) {
	g := chainGraph{edges: map[uint64][]uint64{
		0: {1}, 1: {0, 2}, 2: {1, 3}, 3: {2},
	}}

	m := NewMorsel(0, 3, 0, 2, 1)
	m.MarkDestination(3)

	s := New(g, 2)
	assert.NoError(t, s.RunBatch(context.Background(), []*Morsel{m}))

	results := m.Results()
	_, found := results[3]
	assert.False(t, found, "destination 3 rows beyond upperBound=2 should not be reported")
}

func TestSchedulerBatchOfIndependentMorsels(t *testing.T) {
	g := chainGraph{edges: map[uint64][]uint64{
		0: {1}, 1: {0, 2}, 2: {1},
	}}

	m1 := NewMorsel(0, 2, 0, 5, 1)
	m1.MarkDestination(2)
	m2 := NewMorsel(2, 2, 0, 5, 1)
	m2.MarkDestination(0)

	s := New(g, 4)
	assert.NoError(t, s.RunBatch(context.Background(), []*Morsel{m1, m2}))

	assert.Equal(t, int64(2), m1.Results()[2])
	assert.Equal(t, int64(2), m2.Results()[0])
}
