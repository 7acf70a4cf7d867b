// Package concurrent provides grow-but-never-move containers and one-shot
// initialization primitives shared by the storage and index-build layers.
package concurrent

import (
	"sync"
	"sync/atomic"
	"time"
)

// spinInterval is how long a reader busy-waits between checks of a
// LockedPtr that is still being initialized by another goroutine.
const spinInterval = 100 * time.Microsecond

// LockedPtr is a one-shot, concurrently-initialized owning pointer. The
// first caller to win the race runs its factory and publishes the result;
// every other caller blocks (via a short busy-wait, not a mutex hand-off)
// until the value appears. Once published, the pointer is stable for the
// life of the object.
type LockedPtr[T any] struct {
	ptr atomic.Pointer[T]
	mu  sync.Mutex
}

// Get returns the current pointer, which may be nil if nothing has been
// published yet.
func (p *LockedPtr[T]) Get() *T {
	return p.ptr.Load()
}

// Set races producers to initialize the pointer exactly once. The first
// goroutine to acquire the lock runs factory (which must return non-nil)
// and publishes it; losers spin on the pointer until it is published.
// Returns true if this call was the one that ran factory.
func (p *LockedPtr[T]) Set(factory func() *T) bool {
	if v := p.ptr.Load(); v != nil {
		return false
	}

	if p.mu.TryLock() {
		defer p.mu.Unlock()
		if p.ptr.Load() == nil {
			v := factory()
			if v == nil {
				panic("concurrent: LockedPtr factory returned nil")
			}
			p.ptr.Store(v)
			return true
		}
		return false
	}

	for p.ptr.Load() == nil {
		time.Sleep(spinInterval)
	}
	return false
}
