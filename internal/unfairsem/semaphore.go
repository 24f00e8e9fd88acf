package unfairsem

import (
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sys/cpu"
	"github.com/zoobzio/clockz"
)

// spinLimitPerProcessor bounds phase-2 spinning before a thread gives
// up and blocks; the effective limit is divided down as more threads
// pile into the spin phase.
const spinLimitPerProcessor = 50

// Semaphore is the throttling primitive from spec.md §4.5: recent
// spinners are released in preference to kernel-blocked waiters, so a
// thread that just went to sleep is the first one woken back up --
// cache-hot and avoiding a kernel transition whenever possible.
type Semaphore struct {
	state atomic.Uint64
	_     cpu.CacheLinePad
	inner *kernelSemaphore
	clock clockz.Clock
}

// New returns a semaphore using clock as its time source for wait
// timeouts. Pass clockz.RealClock in production; tests can substitute
// a fake clock to exercise timeout paths without sleeping.
func New(clock clockz.Clock) *Semaphore {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Semaphore{
		inner: newKernelSemaphore(),
		clock: clock,
	}
}

func (s *Semaphore) load() packedState {
	return packedState(s.state.Load())
}

func (s *Semaphore) cas(old, next packedState) bool {
	assertInvariants(next)
	return s.state.CompareAndSwap(uint64(old), uint64(next))
}

// Wait attempts to acquire a permit, trying an uncontended fast path,
// then spinning, then blocking on the kernel semaphore for up to
// timeout. Returns true if a permit was acquired.
func (s *Semaphore) Wait(timeout time.Duration) bool {
	if ok, done := s.enterOrBecomeSpinner(); done {
		return ok
	}

	if ok, done := s.spin(); done {
		return ok
	}

	return s.block(timeout)
}

// enterOrBecomeSpinner is phase 1: try the fast path, and if it's not
// available, register as a spinner and fall through to phase 2.
func (s *Semaphore) enterOrBecomeSpinner() (acquired, done bool) {
	for {
		cur := s.load()
		sp, cfs, w, cfw := cur.unpack()

		if cfs > 0 {
			next := pack(sp, cfs-1, w, cfw)
			if s.cas(cur, next) {
				return true, true
			}
			continue
		}

		next := pack(sp+1, cfs, w, cfw)
		if s.cas(cur, next) {
			return false, false
		}
	}
}

// spin is phase 2: busy-wait (yielding the timeslice each iteration)
// until either a spinner credit appears or the per-processor spin
// budget is exhausted, at which point the thread demotes itself to a
// waiter and phase 3 takes over.
func (s *Semaphore) spin() (acquired, done bool) {
	numSpins := 0
	processorCount := runtime.GOMAXPROCS(0)
	if processorCount < 1 {
		processorCount = 1
	}

	for {
		cur := s.load()
		sp, cfs, w, cfw := cur.unpack()

		if cfs > 0 {
			next := pack(sp-1, cfs-1, w, cfw)
			if s.cas(cur, next) {
				return true, true
			}
			continue
		}

		divisor := int(sp) / processorCount
		if divisor < 1 {
			divisor = 1
		}
		spinLimit := (spinLimitPerProcessor + divisor/2) / divisor

		if numSpins >= spinLimit {
			next := pack(sp-1, cfs, w+1, cfw)
			if s.cas(cur, next) {
				return false, false
			}
			continue
		}

		runtime.Gosched()
		numSpins++
	}
}

// block is phase 3: wait on the kernel semaphore, then retire the
// waiter registration regardless of outcome.
func (s *Semaphore) block(timeout time.Duration) bool {
	acquired := s.inner.wait(s.clock, timeout)

	for {
		cur := s.load()
		sp, cfs, w, cfw := cur.unpack()
		newCfw := cfw
		if acquired {
			newCfw = cfw - 1
		}
		next := pack(sp, cfs, w-1, newCfw)
		if s.cas(cur, next) {
			return acquired
		}
	}
}

// Release makes n permits available, preferring to credit spinners
// (no kernel wake needed) before waking kernel-blocked waiters.
// Surplus beyond what's currently in either tier is banked in
// countForSpinners for whichever thread spins next.
func (s *Semaphore) Release(n int) {
	if n <= 0 {
		return
	}

	for {
		cur := s.load()
		sp, cfs, w, cfw := cur.unpack()

		spinnersToRelease := clamp(0, n, int(sp)-int(cfs))
		waitersToRelease := clamp(0, n-spinnersToRelease, int(w)-int(cfw))
		remaining := n - spinnersToRelease - waitersToRelease

		newCfs := int(cfs) + spinnersToRelease + remaining
		newCfw := int(cfw) + waitersToRelease

		next := pack(sp, uint16(newCfs), w, uint16(newCfw))
		if s.cas(cur, next) {
			if waitersToRelease > 0 {
				s.inner.release(waitersToRelease)
			}
			return
		}
	}
}

// Snapshot returns the current counters, for tests and diagnostics.
func (s *Semaphore) Snapshot() (spinners, countForSpinners, waiters, countForWaiters int) {
	sp, cfs, w, cfw := s.load().unpack()
	return int(sp), int(cfs), int(w), int(cfw)
}
