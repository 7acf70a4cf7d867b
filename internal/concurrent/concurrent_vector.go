package concurrent

import "sync/atomic"

// block holds BLOCK_SIZE elements, indexed by blockIndex pages chained
// via nextIndex. Modelled after kuzu's common::ConcurrentVector: an
// initial contiguous block sized at construction, followed by a linked
// list of index pages each pointing to indexSize blocks of blockSize
// elements.
type block[T any] struct {
	data []T
}

type blockIndex[T any] struct {
	nextIndex LockedPtr[blockIndex[T]]
	blocks    []LockedPtr[block[T]]
	numBlocks atomic.Uint64
}

// Vector is a grow-but-never-move container: concurrent push_back by any
// number of goroutines coordinated via numElements.Add, lock-free once
// the target block already exists; any number of readers may run
// concurrently with a writer. Access to pre-existing elements is O(1);
// access to newly grown elements is O(pages traversed).
type Vector[T any] struct {
	numElements   atomic.Uint64
	initialBlock  []T
	initialSize   uint64
	blockSize     uint64
	indexSize     uint64
	firstIndex    LockedPtr[blockIndex[T]]
}

// NewVector creates a vector with an initial contiguous block of
// initialNumElements capacity, growing thereafter in blocks of blockSize
// elements indexed indexSize-per-page.
func NewVector[T any](initialNumElements, blockSize uint64) *Vector[T] {
	if blockSize == 0 {
		blockSize = 2048
	}
	return &Vector[T]{
		initialBlock: make([]T, initialNumElements),
		initialSize:  initialNumElements,
		blockSize:    blockSize,
		indexSize:    blockSize,
	}
}

// Size returns the number of elements logically present.
func (v *Vector[T]) Size() uint64 {
	return v.numElements.Load()
}

// Clear resets the logical size to zero without releasing memory.
func (v *Vector[T]) Clear() {
	v.numElements.Store(0)
}

// Resize raises numElements to at least newSize (racing concurrent
// resizers take the larger value) and lazily allocates blocks to cover
// it. Never shrinks and never deallocates.
func (v *Vector[T]) Resize(newSize uint64) {
	for {
		expected := v.numElements.Load()
		if expected >= newSize {
			break
		}
		if v.numElements.CompareAndSwap(expected, newSize) {
			break
		}
	}
	v.allocateBlocks(newSize)
}

// PushBack reserves the next index (atomically) and stores value there,
// allocating any blocks required to hold it.
func (v *Vector[T]) PushBack(value T) uint64 {
	index := v.numElements.Add(1) - 1
	v.allocateBlocks(index + 1)
	v.set(index, value)
	return index
}

// At returns a pointer to the element at position, for in-place mutation.
// The caller must ensure position < Size() (or has just been reserved via
// PushBack/Resize) before calling.
func (v *Vector[T]) At(position uint64) *T {
	if position < v.initialSize {
		return &v.initialBlock[position]
	}

	blockNum := (position - v.initialSize) / v.blockSize
	posInBlock := (position - v.initialSize) % v.blockSize
	indexNum := blockNum / v.indexSize

	idx := v.firstIndex.Get()
	for indexNum > 0 {
		idx = idx.nextIndex.Get()
		indexNum--
	}
	blk := idx.blocks[blockNum%v.indexSize].Get()
	return &blk.data[posInBlock]
}

func (v *Vector[T]) set(position uint64, value T) {
	*v.At(position) = value
}

// allocateBlocks ensures enough blocks exist to address newSize elements.
// Thread-safe; may race harmlessly with other callers doing the same.
func (v *Vector[T]) allocateBlocks(newSize uint64) {
	if newSize <= v.initialSize {
		return
	}

	if v.firstIndex.Get() == nil {
		v.firstIndex.Set(func() *blockIndex[T] {
			return &blockIndex[T]{blocks: make([]LockedPtr[block[T]], v.indexSize)}
		})
	}

	idx := v.firstIndex.Get()
	previousIndexSize := v.initialSize
	for previousIndexSize+idx.numBlocks.Load()*v.blockSize < newSize {
		if idx.numBlocks.Load() < v.indexSize {
			for idx.numBlocks.Load() < v.indexSize && previousIndexSize+idx.numBlocks.Load()*v.blockSize < newSize {
				pos := idx.numBlocks.Load()
				if pos < v.indexSize {
					if idx.blocks[pos].Set(func() *block[T] {
						return &block[T]{data: make([]T, v.blockSize)}
					}) {
						idx.numBlocks.Add(1)
					}
				}
			}
			continue
		}

		previousIndexSize += idx.numBlocks.Load() * v.blockSize
		if next := idx.nextIndex.Get(); next != nil {
			idx = next
		} else {
			idx.nextIndex.Set(func() *blockIndex[T] {
				return &blockIndex[T]{blocks: make([]LockedPtr[block[T]], v.indexSize)}
			})
			idx = idx.nextIndex.Get()
		}
	}
}
