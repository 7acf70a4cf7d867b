// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package graphdb

import (
	"context"

	"github.com/kelindar/graphdb/internal/bfs"
)

// PathQuery describes a bounded variable-length traversal: find every
// destination in destinations reachable from source within
// [lowerBound, upperBound] hops, per spec.md §4.8.
type PathQuery struct {
	Source      uint64
	Destination []uint64
	LowerBound  int64
	UpperBound  int64
}

// PathResult maps a reached destination offset to its shortest distance
// from the query's source.
type PathResult map[uint64]int64

// RelationshipAdjacency adapts a relationship table's neighbor lookup to
// the internal BFS scheduler's AdjacencyLister contract.
type RelationshipAdjacency struct {
	Neighbor func(offset uint64) []uint64
}

// Neighbors implements bfs.AdjacencyLister.
func (a RelationshipAdjacency) Neighbors(offset uint64) []uint64 {
	return a.Neighbor(offset)
}

// RunPathQueries executes a batch of bounded-path queries concurrently
// over a shared worker pool, wiring internal/bfs's IFE scheduler to the
// public API, per spec.md §4.8.
func RunPathQueries(ctx context.Context, adj RelationshipAdjacency, queries []PathQuery, maxOffset int, numWorkers int) []PathResult {
	morsels := make([]*bfs.Morsel, len(queries))
	for i, q := range queries {
		m := bfs.NewMorsel(q.Source, maxOffset, q.LowerBound, q.UpperBound, int64(len(q.Destination)))
		for _, d := range q.Destination {
			m.MarkDestination(d)
		}
		morsels[i] = m
	}

	scheduler := bfs.New(adj, numWorkers)
	_ = scheduler.RunBatch(ctx, morsels)

	results := make([]PathResult, len(morsels))
	for i, m := range morsels {
		results[i] = m.Results()
	}
	return results
}
