package dedicatedpool

import (
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Metric keys. Out of scope per spec.md §1 ("logging, metrics" are
// collaborators, not core), but the ambient stack still wires a
// registry the way every connector in the pack does -- see DESIGN.md.
const (
	MetricTasksExecuted   = metricz.Key("dedicatedpool.tasks.executed.total")
	MetricTasksFaulted    = metricz.Key("dedicatedpool.tasks.faulted.total")
	MetricStealsSucceeded = metricz.Key("dedicatedpool.steals.succeeded.total")
	MetricStealsAborted   = metricz.Key("dedicatedpool.steals.aborted.total")
	MetricThreadRequests  = metricz.Key("dedicatedpool.thread_requests.total")
	MetricWorkersLive     = metricz.Key("dedicatedpool.workers.live")
)

// Span keys and tags for the worker's run-task and the pool's dispose
// drain.
const (
	SpanRunTask     = tracez.Key("dedicatedpool.run_task")
	SpanDisposeWait = tracez.Key("dedicatedpool.dispose_wait")

	TagWorkerID = tracez.Tag("dedicatedpool.worker_id")
	TagFaulted  = tracez.Tag("dedicatedpool.faulted")
)

// Hook event keys for worker lifecycle notifications.
const (
	EventWorkerStarted = hookz.Key("dedicatedpool.worker.started")
	EventWorkerRetired = hookz.Key("dedicatedpool.worker.retired")
	EventWorkerFault   = hookz.Key("dedicatedpool.worker.fault")
)

// WorkerEvent is emitted on EventWorkerStarted and EventWorkerRetired.
type WorkerEvent struct {
	PoolName string
	WorkerID int
}

// WorkerFaultEvent is emitted on EventWorkerFault.
type WorkerFaultEvent struct {
	PoolName string
	WorkerID int
	Err      error
}

func newMetrics() *metricz.Registry {
	reg := metricz.New()
	reg.Counter(MetricTasksExecuted)
	reg.Counter(MetricTasksFaulted)
	reg.Counter(MetricStealsSucceeded)
	reg.Counter(MetricStealsAborted)
	reg.Counter(MetricThreadRequests)
	reg.Gauge(MetricWorkersLive)
	return reg
}
