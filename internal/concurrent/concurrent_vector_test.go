package concurrent

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorPushBackSequential(t *testing.T) {
	v := NewVector[int](4, 8)
	for i := 0; i < 100; i++ {
		idx := v.PushBack(i)
		assert.Equal(t, uint64(i), idx)
	}
	assert.Equal(t, uint64(100), v.Size())
	for i := 0; i < 100; i++ {
		assert.Equal(t, i, *v.At(uint64(i)))
	}
}

func TestVectorPushBackConcurrent(t *testing.T) {
	v := NewVector[int64](4, 8)
	const n = 5000
	var wg sync.WaitGroup
	seen := make([]int32, n)
	var seenMu sync.Mutex

	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < n/16; i++ {
				idx := v.PushBack(int64(worker))
				seenMu.Lock()
				seen[idx]++
				seenMu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, uint64((n/16)*16), v.Size())
	for _, c := range seen {
		assert.Equal(t, int32(1), c, "every index must be written exactly once")
	}
}

func TestVectorResize(t *testing.T) {
	v := NewVector[int](2, 4)
	v.Resize(20)
	assert.Equal(t, uint64(20), v.Size())
	*v.At(19) = 42
	assert.Equal(t, 42, *v.At(19))
}

func TestLockedPtrSingleInit(t *testing.T) {
	var p LockedPtr[int]
	var calls int32
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Set(func() *int {
				mu.Lock()
				calls++
				mu.Unlock()
				v := 7
				return &v
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls)
	assert.NotNil(t, p.Get())
	assert.Equal(t, 7, *p.Get())
}
