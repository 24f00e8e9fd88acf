package dedicatedpool

import "github.com/go-foundations/dedicatedpool/internal/workqueue"

// Runnable is a unit of work executed for side effects; Run returns
// nothing. See WorkerFault for how a panic escaping Run is handled.
type Runnable interface {
	Run(tc TaskContext)
}

// RunnableFunc adapts a plain function to Runnable, the same way
// http.HandlerFunc adapts a function to http.Handler.
type RunnableFunc func(TaskContext)

// Run calls f(tc).
func (f RunnableFunc) Run(tc TaskContext) { f(tc) }

// TaskContext is handed to a Runnable's Run method and is the
// Go-native substitute for the source's thread-local caller-identity
// detection (spec.md §9, "Thread-local worker state"): rather than
// having Submit silently infer "is the calling goroutine a worker of
// this pool", a Runnable that wants fork/join behavior asks its
// TaskContext to submit follow-on work onto the worker that is
// currently running it. Outside of Run, there is no TaskContext to
// ask -- Pool.Submit is the only entry point, and it always takes the
// injection-queue path.
type TaskContext interface {
	// Submit pushes r onto the current worker's local deque (LIFO),
	// matching spec.md §4.6 enqueue with force_global=false.
	Submit(r Runnable) error
	// SubmitGlobal pushes r onto the shared injection queue regardless
	// of which worker is running, matching force_global=true.
	SubmitGlobal(r Runnable) error
}

// taskContext is the concrete TaskContext bound to one worker for its
// entire lifetime; the dispatch loop reuses it across every task that
// worker runs; it is never touched or returned outside that worker's
// own goroutine.
type taskContext struct {
	pool  *Pool
	local *workqueue.Local[Runnable]
}

func (tc *taskContext) Submit(r Runnable) error {
	return tc.pool.submitFrom(tc.local, r, false)
}

func (tc *taskContext) SubmitGlobal(r Runnable) error {
	return tc.pool.submitFrom(tc.local, r, true)
}
