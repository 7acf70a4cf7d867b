// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package pkindex

import (
	"context"
	"sync"

	"github.com/kelindar/async"
)

// Row is one (key, row) pair the builder consumes while scanning a
// table to (re)build its primary-key index, e.g. during bulk COPY or
// WAL-recovery replay.
type Row struct {
	Key any
	Row uint64
}

// HashFunc computes the partition hash for a key.
type HashFunc func(key any) uint64

// Builder runs a parallel producer/consumer pipeline over a stream of
// rows: producers hash each row's key and push it onto the owning
// partition's queue; a fixed worker pool drains queues into the
// Index's intmaps. Grounded on the teacher's own `async.Consume`
// worker-pool idiom (collection_test.go, snapshot_test.go), generalized
// from "apply each replayed commit" to "hash and insert each row".
type Builder struct {
	index  *Index
	hash   HashFunc
	queues [NumPartitions]partitionQueue
}

// NewBuilder creates a builder that will populate index, hashing keys
// with hash.
func NewBuilder(index *Index, hash HashFunc) *Builder {
	return &Builder{index: index, hash: hash}
}

// Build drains rows through numWorkers concurrent consumers and blocks
// until every row has been hashed, queued, and drained into the index.
func (b *Builder) Build(ctx context.Context, rows <-chan Row, numWorkers int) error {
	work := make(chan async.Task)
	pool := async.Consume(ctx, numWorkers, work)
	defer pool.Cancel()

	done := make(chan error, 1)
	var wg sync.WaitGroup
	go func() {
		for row := range rows {
			r := row
			hash := b.hash(r.Key)
			b.queues[Partition(hash)].push(entry{hash: hash, key: r.Key, row: r.Row})

			wg.Add(1)
			task := async.NewTask(func(ctx context.Context) (interface{}, error) {
				defer wg.Done()
				b.drainPartition(Partition(hash))
				return nil, nil
			})
			select {
			case work <- task:
			case <-ctx.Done():
				wg.Done()
				done <- ctx.Err()
				return
			}
		}
		wg.Wait()
		b.drainAll()
		done <- nil
	}()

	return <-done
}

// drainPartition opportunistically flushes whatever is currently queued
// for partition p into the index — it may race with concurrent pushes,
// in which case a later drain simply picks up what this one missed.
func (b *Builder) drainPartition(p int) {
	for _, e := range b.queues[p].drain() {
		b.index.Insert(e.hash, e.row)
	}
}

// drainAll flushes every partition once producers have stopped, so no
// queued entry is left stranded.
func (b *Builder) drainAll() {
	for p := range b.queues {
		b.drainPartition(p)
	}
}
