package dedicatedpool

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/go-foundations/dedicatedpool/internal/workqueue"
)

// worker is one OS-thread-backed (in Go, goroutine-backed) member of
// the pool's fixed population. id is stable for the worker's lifetime
// and never reused after retirement.
type worker struct {
	id    int
	pool  *Pool
	local *workqueue.Local[Runnable]
	tc    taskContext
}

// run is the outer loop of spec.md §4.7: wait on the semaphore, and
// while activation slots remain, dispatch repeatedly; on a timed-out
// wait past MinThreads, retire.
func (w *worker) run() {
	w.tc = taskContext{pool: w.pool, local: w.local}

	_ = w.pool.hooks.Emit(context.Background(), EventWorkerStarted, WorkerEvent{
		PoolName: w.pool.settings.Name,
		WorkerID: w.id,
	})

	for {
		if w.pool.shutdown.Load() {
			w.drain()
			w.retire()
			return
		}

		acquired := w.pool.sem.Wait(w.pool.settings.ThreadTimeout)
		if w.pool.shutdown.Load() {
			w.drain()
			w.retire()
			return
		}

		if !acquired {
			if int(w.pool.liveWorkers.Load()) > int(w.pool.settings.MinThreads) {
				w.retire()
				return
			}
			continue
		}

		for w.pool.wq.TakeActiveWorkerRequest() {
			if !w.dispatch() {
				break
			}
			if w.pool.shutdown.Load() {
				break
			}
			// Soften start/stop churn between successive dispatch
			// bursts.
			runtime.Gosched()
		}
	}
}

// dispatch implements spec.md §4.6 dispatch(): an initial
// injection-only attempt, then the full local -> global -> steal
// search, running items until the dispatch quantum elapses or no
// further work is found. Returns true if the worker should loop back
// for another activation (useful work was done), false if it found
// nothing and is now surplus.
func (w *worker) dispatch() bool {
	w.pool.wq.MarkThreadRequestSatisfied()

	item, ok := w.pool.wq.TryDequeueGlobal()
	if !ok {
		var status workqueue.Status
		var steals workqueue.StealTally
		item, status, steals = w.pool.wq.Dequeue(w.local)
		w.recordSteals(steals)
		if status != workqueue.Success {
			w.pool.wq.EnsureThreadRequested()
			return false
		}
	}
	// Either attempt found something: more work may exist, recruit peers.
	w.pool.wq.EnsureThreadRequested()

	start := w.pool.clock.Now()
	for {
		w.runTask(item)

		if w.pool.clock.Now().Sub(start) >= DispatchQuantum {
			return true
		}

		var status workqueue.Status
		var steals workqueue.StealTally
		item, status, steals = w.pool.wq.Dequeue(w.local)
		w.recordSteals(steals)
		if status != workqueue.Success {
			w.pool.wq.EnsureThreadRequested()
			return true
		}
	}
}

// recordSteals folds one Dequeue call's steal outcomes into the pool's
// metrics registry.
func (w *worker) recordSteals(steals workqueue.StealTally) {
	if steals.Succeeded > 0 {
		w.pool.metrics.Counter(MetricStealsSucceeded).Add(float64(steals.Succeeded))
	}
	if steals.Aborted > 0 {
		w.pool.metrics.Counter(MetricStealsAborted).Add(float64(steals.Aborted))
	}
}

// runTask executes one Runnable, recovering a panic so it never tears
// down the worker goroutine (spec.md §7: WorkerFault is reported, not
// fatal).
func (w *worker) runTask(item Runnable) {
	ctx, span := w.pool.tracer.StartSpan(context.Background(), SpanRunTask)
	span.SetTag(TagWorkerID, fmt.Sprintf("%d", w.id))

	faulted := false
	defer func() {
		if r := recover(); r != nil {
			faulted = true
			err := fmt.Errorf("panic: %v", r)
			w.pool.metrics.Counter(MetricTasksFaulted).Inc()
			_ = w.pool.faults.Emit(ctx, EventWorkerFault, WorkerFaultEvent{
				PoolName: w.pool.settings.Name,
				WorkerID: w.id,
				Err:      err,
			})
			w.pool.logger().Error("worker task panicked",
				"pool", w.pool.settings.Name, "worker", w.id, "error", err)
		}
		span.SetTag(TagFaulted, fmt.Sprintf("%t", faulted))
		span.Finish()
	}()

	item.Run(&w.tc)
	w.pool.metrics.Counter(MetricTasksExecuted).Inc()
}

// drain runs this worker's view of the shutdown drain: keep pulling
// and executing work until the whole queue looks idle. Several workers
// race to drain concurrently; that's fine, each item is delivered to
// exactly one dequeuer.
func (w *worker) drain() {
	for {
		item, status, steals := w.pool.wq.Dequeue(w.local)
		w.recordSteals(steals)
		if status != workqueue.Success {
			if w.pool.wq.Idle() {
				return
			}
			time.Sleep(time.Millisecond)
			continue
		}
		w.runTask(item)
	}
}

// retire unregisters the worker's deque, spills any remaining local
// work back to the injection queue, and reports the population drop.
func (w *worker) retire() {
	w.pool.wq.Retire(w.local)
	w.pool.liveWorkers.Add(-1)
	w.pool.metrics.Gauge(MetricWorkersLive).Set(float64(w.pool.liveWorkers.Load()))

	_ = w.pool.hooks.Emit(context.Background(), EventWorkerRetired, WorkerEvent{
		PoolName: w.pool.settings.Name,
		WorkerID: w.id,
	})
}
