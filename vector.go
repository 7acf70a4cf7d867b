// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package graphdb

import "github.com/kelindar/bitmap"

// DefaultVectorCapacity is the fixed dense-batch size used throughout the
// storage core: value vectors and MVCC vector-version bands are sized
// (or banded) against it.
const DefaultVectorCapacity = 2048

// ChunkCapacity is the number of rows in one column chunk / chunked node
// group, a small multiple of DefaultVectorCapacity.
const ChunkCapacity = DefaultVectorCapacity

// NodeGroupSize is the maximum number of rows owned by one node group.
const NodeGroupSize = ChunkCapacity * 64

// Selection is a selection vector: an index list naming which positions
// of a value vector are live. A nil/empty Selection means "no filter, use
// every slot in [0, Len)".
type Selection []uint32

// Vector is the fixed-capacity dense column batch passed between
// operators, per spec.md §3. T is the element type (the column's logical
// Go type); vectors of length > DefaultVectorCapacity are never
// constructed by this package.
type Vector[T any] struct {
	Values []T
	Nulls  bitmap.Bitmap
	Sel    Selection
}

// NewVector allocates a vector with room for up to DefaultVectorCapacity
// values.
func NewVector[T any]() *Vector[T] {
	return &Vector[T]{
		Values: make([]T, 0, DefaultVectorCapacity),
	}
}

// Len returns the number of logical (unfiltered) slots currently filled.
func (v *Vector[T]) Len() int {
	return len(v.Values)
}

// Reset empties the vector so the backing arrays can be reused.
func (v *Vector[T]) Reset() {
	v.Values = v.Values[:0]
	v.Nulls.Clear()
	v.Sel = v.Sel[:0]
}

// IsNull reports whether the value at logical position i is null.
func (v *Vector[T]) IsNull(i uint32) bool {
	return v.Nulls.Contains(i)
}

// SetNull marks the value at logical position i as null.
func (v *Vector[T]) SetNull(i uint32) {
	v.Nulls.Set(i)
}

// Selected iterates the selection vector if one is set, otherwise every
// position in [0, Len).
func (v *Vector[T]) Selected(fn func(pos uint32)) {
	if len(v.Sel) > 0 {
		for _, pos := range v.Sel {
			fn(pos)
		}
		return
	}
	for i := 0; i < len(v.Values); i++ {
		fn(uint32(i))
	}
}
