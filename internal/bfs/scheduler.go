// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package bfs

import (
	"context"

	"github.com/kelindar/async"
	"github.com/kelindar/bitmap"
)

// MorselSize is the number of frontier offsets one worker claims per
// fetch_add, per spec.md §4.8.
const MorselSize = 64

// AdjacencyLister resolves a node offset's outgoing neighbor offsets.
// The storage layer (a NodeGroup-backed relationship table) implements
// this; kept as an interface so this package never depends upward on
// graphdb.
type AdjacencyLister interface {
	Neighbors(offset uint64) []uint64
}

// Scheduler runs the IFE level-synchronous BFS over a set of source
// Morsels concurrently, one level at a time, claiming frontier ranges
// via atomic fetch-add. Grounded on the teacher's own
// `async.Consume`-based worker pool idiom (collection_test.go), applied
// here to graph-frontier morsels instead of column-update tasks, and on
// `github.com/kelindar/bitmap` for tracking which sources in a batch
// have already finished their traversal.
type Scheduler struct {
	adj        AdjacencyLister
	numWorkers int
}

// New creates a scheduler with numWorkers concurrent frontier-claiming
// goroutines per level.
func New(adj AdjacencyLister, numWorkers int) *Scheduler {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Scheduler{adj: adj, numWorkers: numWorkers}
}

// RunBatch drives every morsel in morsels to completion, level by level,
// sharing one worker pool across the whole batch. done tracks which
// morsels (by index) have already finished so workers stop pulling work
// for them.
func (s *Scheduler) RunBatch(ctx context.Context, morsels []*Morsel) error {
	var done bitmap.Bitmap
	done.Grow(uint32(len(morsels)))

	work := make(chan async.Task)
	pool := async.Consume(ctx, s.numWorkers, work)
	defer pool.Cancel()

	for {
		remaining := 0
		for i, m := range morsels {
			if done.Contains(uint32(i)) {
				continue
			}
			if m.Done() {
				done.Set(uint32(i))
				continue
			}
			remaining++
			s.runLevel(ctx, work, m)
			if m.currentFrontierSize.Load() == 0 && m.nextFrontier.len.Load() == 0 {
				done.Set(uint32(i))
			} else {
				s.advanceLevel(m)
			}
		}
		if remaining == 0 {
			break
		}
	}
	return nil
}

// runLevel drains the current frontier of m via MorselSize-sized
// claims, dispatched across the shared worker pool, and blocks until
// every claim for this level has been processed.
func (s *Scheduler) runLevel(ctx context.Context, work chan<- async.Task, m *Morsel) {
	frontier := m.currentFrontier
	total := uint64(len(frontier))
	if total == 0 {
		return
	}
	m.nextFrontier.reset()

	results := make(chan struct{}, (total+MorselSize-1)/MorselSize)
	inFlight := 0
	for {
		start := m.nextScanStartIdx.Add(MorselSize) - MorselSize
		if start >= total {
			break
		}
		end := start + MorselSize
		if end > total {
			end = total
		}
		claim := frontier[start:end]
		inFlight++

		task := async.NewTask(func(ctx context.Context) (interface{}, error) {
			s.expand(m, claim)
			results <- struct{}{}
			return nil, nil
		})
		select {
		case work <- task:
		case <-ctx.Done():
			return
		}
	}
	for i := 0; i < inFlight; i++ {
		<-results
	}
}

// expand visits every neighbor of every offset in claim, CASing
// NOT_VISITED(_DST) to VISITED(_DST) and pushing winners onto the next
// frontier, per spec.md §4.8 step 2.
func (s *Scheduler) expand(m *Morsel, claim []uint64) {
	nextLevel := m.currentLevel.Load() + 1
	for _, offset := range claim {
		for _, v := range s.adj.Neighbors(offset) {
			won, isDst := m.tryVisit(v, nextLevel)
			if !won {
				continue
			}
			if isDst {
				m.numVisitedDst.Add(1)
			}
			m.nextFrontier.push(v)
		}
	}
}

// advanceLevel performs `initializeNextFrontierNoLock`: swap
// currentFrontier/nextFrontier, reset the claim cursor, bump the level.
func (s *Scheduler) advanceLevel(m *Morsel) {
	m.currentFrontier = append(m.currentFrontier[:0], m.nextFrontier.slice()...)
	m.currentFrontierSize.Store(uint64(len(m.currentFrontier)))
	m.nextScanStartIdx.Store(0)
	m.currentLevel.Add(1)
}
