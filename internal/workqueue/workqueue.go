// Package workqueue combines the per-worker Chase-Lev deques, the
// shared injection queue, and the registry into the two-tier work
// queue of spec.md §4.6, plus the request-count / coalescing protocol
// that governs when a worker wakeup is warranted.
package workqueue

import (
	"sync/atomic"

	"github.com/go-foundations/dedicatedpool/internal/deque"
	"github.com/go-foundations/dedicatedpool/internal/injector"
	"github.com/go-foundations/dedicatedpool/internal/registry"
	"github.com/go-foundations/dedicatedpool/internal/unfairsem"
	"github.com/go-foundations/dedicatedpool/internal/xorshift"
)

// Status mirrors deque.Status. Dequeue itself reports only Success or
// Empty: a victim whose Steal returns Abort is skipped for the rest of
// that pass and counted in StealTally.Aborted.
type Status = deque.Status

const (
	Success = deque.Success
	Empty   = deque.Empty
	Abort   = deque.Abort
)

// Local is one worker's private view of the queue: its own deque and
// its steal-victim RNG. Owned exclusively by one worker goroutine.
type Local[T any] struct {
	Deque *deque.Deque[T]
	rng   *xorshift.RNG
}

// WorkQueue is the shared substrate every worker and every external
// submitter talks to.
type WorkQueue[T any] struct {
	injection *injector.Queue[T]
	registry  *registry.Registry[*deque.Deque[T]]
	sem       *unfairsem.Semaphore

	numRequestedWorkers         atomic.Int32
	hasOutstandingThreadRequest atomic.Bool
}

// New returns an empty work queue backed by sem for worker activation.
func New[T any](sem *unfairsem.Semaphore) *WorkQueue[T] {
	return &WorkQueue[T]{
		injection: injector.New[T](),
		registry:  registry.New[*deque.Deque[T]](),
		sem:       sem,
	}
}

// NewLocal creates and registers a worker-local deque, seeding its
// steal RNG from seed (typically derived from the worker's id so
// distinct workers never share xorshift state).
func (wq *WorkQueue[T]) NewLocal(seed uint64) *Local[T] {
	d := deque.New[T]()
	wq.registry.Register(d)
	return &Local[T]{Deque: d, rng: xorshift.New(seed)}
}

// Retire unregisters local's deque and transfers any items still on
// it to the injection queue, per spec.md §4.7 worker-exit cleanup.
func (wq *WorkQueue[T]) Retire(local *Local[T]) {
	wq.TransferLocalWork(local)
	wq.registry.Unregister(func(d *deque.Deque[T]) bool { return d == local.Deque })
}

// TransferLocalWork drains local's deque onto the injection queue.
// Called both on worker exit and, defensively, any time local work
// must survive past the owning worker.
func (wq *WorkQueue[T]) TransferLocalWork(local *Local[T]) {
	for {
		item, status := local.Deque.PopBottom()
		if status != Success {
			return
		}
		wq.injection.Enqueue(item)
	}
}

// EnqueueLocal pushes item onto local's own deque (bottom), then
// ensures a worker is awake to notice it.
func (wq *WorkQueue[T]) EnqueueLocal(local *Local[T], item T) {
	local.Deque.PushBottom(item)
	wq.EnsureThreadRequested()
}

// EnqueueGlobal pushes item onto the shared injection queue, then
// ensures a worker is awake to notice it. Used for submissions from
// outside any worker, and whenever force_global is requested.
func (wq *WorkQueue[T]) EnqueueGlobal(item T) {
	wq.injection.Enqueue(item)
	wq.EnsureThreadRequested()
}

// EnsureThreadRequested coalesces wake requests: only the goroutine
// that wins the 0->1 CAS on hasOutstandingThreadRequest releases the
// semaphore, so a burst of enqueues produces at most one pending
// release until a worker consumes it via MarkThreadRequestSatisfied.
func (wq *WorkQueue[T]) EnsureThreadRequested() {
	if wq.hasOutstandingThreadRequest.CompareAndSwap(false, true) {
		wq.RequestActiveWorker()
		wq.sem.Release(1)
	}
}

// MarkThreadRequestSatisfied clears the coalescing flag. A dispatching
// worker must call this before doing real work so later enqueues can
// again request a wakeup.
func (wq *WorkQueue[T]) MarkThreadRequestSatisfied() {
	wq.hasOutstandingThreadRequest.Store(false)
}

// RequestActiveWorker records one more pending activation slot.
func (wq *WorkQueue[T]) RequestActiveWorker() {
	wq.numRequestedWorkers.Add(1)
}

// TakeActiveWorkerRequest claims one pending activation slot if any
// remain, returning whether the caller now owns one.
func (wq *WorkQueue[T]) TakeActiveWorkerRequest() bool {
	for {
		cur := wq.numRequestedWorkers.Load()
		if cur <= 0 {
			return false
		}
		if wq.numRequestedWorkers.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}

// TryDequeueGlobal attempts a single pull from the injection queue
// only, without touching local deques or stealing.
func (wq *WorkQueue[T]) TryDequeueGlobal() (item T, ok bool) {
	return wq.injection.TryDequeue()
}

// StealTally reports how many steals in a Dequeue call's steal pass
// succeeded or aborted; victims found empty are not counted. Only
// populated once the local pop and injection-queue attempts have both
// come up empty.
type StealTally struct {
	Succeeded int
	Aborted   int
}

// Dequeue implements spec.md §4.6 dequeue(local_state): local pop,
// then injection queue, then one pass of victim stealing.
func (wq *WorkQueue[T]) Dequeue(local *Local[T]) (item T, status Status, steals StealTally) {
	if item, status = local.Deque.PopBottom(); status == Success {
		return item, Success, steals
	}

	if v, ok := wq.injection.TryDequeue(); ok {
		return v, Success, steals
	}

	victims := wq.registry.Snapshot()
	c := len(victims)
	if c == 0 {
		var zero T
		return zero, Empty, steals
	}

	start := local.rng.Intn(c)
	for i := 0; i < c; i++ {
		victim := victims[(start+i)%c]
		if victim == local.Deque {
			continue
		}
		v, st := victim.Steal()
		switch st {
		case Success:
			steals.Succeeded++
			return v, Success, steals
		case Abort:
			steals.Aborted++
			// This victim raced us; move to the next one in this same
			// pass rather than retrying it.
		}
	}

	var zero T
	return zero, Empty, steals
}

// Idle reports whether the queue currently holds no work anywhere:
// the injection queue is empty and every registered deque is empty.
// Best-effort, used by the shutdown drain loop to decide when to stop
// polling.
func (wq *WorkQueue[T]) Idle() bool {
	if wq.injection.Len() > 0 {
		return false
	}
	for _, d := range wq.registry.Snapshot() {
		if d.Size() > 0 {
			return false
		}
	}
	return true
}

// RegisteredCount reports how many worker deques are currently
// registered, for diagnostics.
func (wq *WorkQueue[T]) RegisteredCount() int {
	return wq.registry.Len()
}
