package deque

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// ShrinkThreshold: the owner shrinks the backing array once size drops
// below capacity/ShrinkThreshold.
const ShrinkThreshold = 4

// Status reports the outcome of a Deque operation.
type Status int

const (
	// Success indicates an item was returned.
	Success Status = iota
	// Empty indicates the deque (or, for Steal, the visible window) held
	// nothing to take.
	Empty
	// Abort indicates a thief lost a race on the top CAS. Transient:
	// callers must retry or move to another victim, never treat it as
	// Empty.
	Abort
)

// Deque is a Chase-Lev lock-free work-stealing deque. The owner -- and
// only the owner -- may call PushBottom and PopBottom. Any other
// goroutine may call Steal concurrently. There is no compile-time
// enforcement of the ownership discipline; it is a runtime contract
// between the deque and whichever worker registers it (see
// internal/registry).
type Deque[T any] struct {
	// bottom is written only by the owner; top is advanced by the owner
	// (last-element race) and by thieves via CAS. Each gets its own
	// cache line so owner writes to bottom don't invalidate a thief's
	// cached top, and vice versa.
	bottom atomic.Int64
	_      cpu.CacheLinePad
	top    atomic.Int64
	_      cpu.CacheLinePad
	active atomic.Pointer[circularArray[T]]
}

// New returns an empty deque with the mandated initial capacity.
func New[T any]() *Deque[T] {
	d := &Deque[T]{}
	d.active.Store(newCircularArray[T](LogInitialSize))
	return d
}

// Size returns bottom-top. Not linearizable with concurrent steals; a
// best-effort reading for diagnostics and tests.
func (d *Deque[T]) Size() int64 {
	b := d.bottom.Load()
	t := d.top.Load()
	if b < t {
		return 0
	}
	return b - t
}

// Capacity returns the current backing array's capacity.
func (d *Deque[T]) Capacity() int64 {
	return d.active.Load().size()
}

// PushBottom appends item at the bottom. Owner-only.
func (d *Deque[T]) PushBottom(item T) {
	b := d.bottom.Load()
	t := d.top.Load()
	a := d.active.Load()

	if b-t >= a.size()-1 {
		a = a.grow(b, t)
		d.active.Store(a)
	}

	a.set(b, item)
	d.bottom.Store(b + 1)
}

// PopBottom removes and returns the item at the bottom. Owner-only.
func (d *Deque[T]) PopBottom() (item T, status Status) {
	a := d.active.Load()
	b := d.bottom.Load() - 1
	d.bottom.Store(b)
	t := d.top.Load()

	if b < t {
		// Deque was already empty; restore bottom to the canonical
		// empty position.
		d.bottom.Store(t)
		var zero T
		return zero, Empty
	}

	item = a.get(b)
	if b > t {
		d.maybeShrink(b, t)
		return item, Success
	}

	// b == t: this is the last element, racing against any thief
	// stealing the same slot.
	status = Success
	if !d.top.CompareAndSwap(t, t+1) {
		status = Empty
		var zero T
		item = zero
	}
	d.bottom.Store(t + 1)
	return item, status
}

// maybeShrink halves the backing array once the live window falls
// below capacity/ShrinkThreshold, preserving [t, b).
func (d *Deque[T]) maybeShrink(b, t int64) {
	a := d.active.Load()
	size := a.size()
	if size <= int64(1)<<LogInitialSize {
		return
	}
	if (b-t)*ShrinkThreshold >= size {
		return
	}
	newSize := size / 2
	if newSize < int64(1)<<LogInitialSize {
		return
	}
	d.active.Store(a.shrink(b, t))
}

// Steal removes and returns the item at the top. Safe to call from any
// goroutine other than the owner, including concurrently with other
// thieves.
func (d *Deque[T]) Steal() (item T, status Status) {
	t := d.top.Load()
	b := d.bottom.Load()
	a := d.active.Load()

	if b <= t {
		var zero T
		return zero, Empty
	}

	item = a.get(t)
	if !d.top.CompareAndSwap(t, t+1) {
		var zero T
		return zero, Abort
	}
	return item, Success
}
