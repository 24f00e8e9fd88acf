// Package registry implements the copy-on-write array of registered
// worker deques that lets any worker pick a random victim and steal
// from it without holding a lock.
package registry

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Registry is a copy-on-write snapshot array of registered deque
// handles. Register and Unregister build a new array and CAS the
// published pointer until they win; readers (stealers) always see a
// complete, untorn snapshot.
type Registry[T any] struct {
	snapshot atomic.Pointer[[]T]
	_        cpu.CacheLinePad
}

// New returns an empty registry.
func New[T any]() *Registry[T] {
	r := &Registry[T]{}
	empty := make([]T, 0)
	r.snapshot.Store(&empty)
	return r
}

// Snapshot returns the currently published array. The caller must
// treat it as immutable; the registry never mutates a published slice
// in place.
func (r *Registry[T]) Snapshot() []T {
	return *r.snapshot.Load()
}

// Register appends handle to the registry, publishing a new array.
// The intended contract is "append at index len(old)" -- see
// DESIGN.md for the source's suspected off-by-one bug at this call
// site, which this implementation does not reproduce.
func (r *Registry[T]) Register(handle T) {
	for {
		old := r.snapshot.Load()
		grown := make([]T, len(*old)+1)
		copy(grown, *old)
		grown[len(*old)] = handle
		if r.snapshot.CompareAndSwap(old, &grown) {
			return
		}
	}
}

// Unregister removes the first entry for which matches returns true.
// If no entry matches, it is a no-op.
func (r *Registry[T]) Unregister(matches func(T) bool) {
	for {
		old := r.snapshot.Load()
		idx := -1
		for i, v := range *old {
			if matches(v) {
				idx = i
				break
			}
		}
		if idx == -1 {
			return
		}
		shrunk := make([]T, 0, len(*old)-1)
		shrunk = append(shrunk, (*old)[:idx]...)
		shrunk = append(shrunk, (*old)[idx+1:]...)
		if r.snapshot.CompareAndSwap(old, &shrunk) {
			return
		}
	}
}

// Len reports the length of the currently published snapshot.
func (r *Registry[T]) Len() int {
	return len(*r.snapshot.Load())
}
