package unfairsem

import (
	"time"

	"github.com/zoobzio/clockz"
)

// kernelSemaphore is the "kernel semaphore" of spec.md §4.5 -- the
// primitive the unfair semaphore falls back to once a waiter has given
// up spinning. Go has no portable handle to an OS semaphore, so this
// uses the idiomatic Go equivalent: a buffered channel, whose capacity
// slots are the counting semaphore's permits (the same pattern
// `DanDo385-go-edu`'s semaphore demo documents: a send is an acquire,
// a receive is a release, buffer capacity is the permit count -- here
// inverted, since we want release-then-wait).
type kernelSemaphore struct {
	tokens chan struct{}
}

func newKernelSemaphore() *kernelSemaphore {
	return &kernelSemaphore{tokens: make(chan struct{}, MaxWorker)}
}

// wait blocks for up to timeout for a token, using clock as the source
// of the timeout's deadline so callers can substitute a fake clock in
// tests instead of sleeping real wall-clock time.
func (k *kernelSemaphore) wait(clock clockz.Clock, timeout time.Duration) bool {
	if timeout <= 0 {
		select {
		case <-k.tokens:
			return true
		default:
			return false
		}
	}
	select {
	case <-k.tokens:
		return true
	case <-clock.After(timeout):
		return false
	}
}

// release makes n tokens available. n is expected to never exceed the
// number of outstanding waiters that release() computed it for, so the
// buffered channel should never be full; the default branch exists
// only as a safety valve against a logic error upstream.
func (k *kernelSemaphore) release(n int) {
	for i := 0; i < n; i++ {
		select {
		case k.tokens <- struct{}{}:
		default:
		}
	}
}
