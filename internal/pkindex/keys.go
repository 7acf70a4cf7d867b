// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

// Package pkindex implements the primary-key hash index and its
// parallel producer/consumer build pipeline, per spec.md §4.5.
package pkindex

import "github.com/zeebo/xxh3"

// NumPartitions is the number of hash partitions the index is sharded
// into; each partition gets its own queue and its own intmap so builder
// goroutines never contend on a shared map, per spec.md §4.5's
// "per-hash-partition MPSC queues".
const NumPartitions = 64

// HashString hashes a string primary key, grounded on the teacher's own
// test-time use of xxh3 for key hashing (maps_test.go).
func HashString(key string) uint64 {
	return xxh3.HashString(key)
}

// HashBytes hashes a []byte primary key.
func HashBytes(key []byte) uint64 {
	return xxh3.Hash(key)
}

// Partition returns which of the NumPartitions shards a hash belongs
// to.
func Partition(hash uint64) int {
	return int(hash % uint64(NumPartitions))
}
