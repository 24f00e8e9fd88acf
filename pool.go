package dedicatedpool

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"

	"github.com/go-foundations/dedicatedpool/internal/unfairsem"
	"github.com/go-foundations/dedicatedpool/internal/workqueue"
)

// Pool is a dedicated, fixed-identity worker pool: MaxThreads workers
// are spawned eagerly at construction and own the pool for its entire
// lifetime (see DESIGN.md on why this pool does not grow or shrink
// its population beyond the ThreadTimeout retirement path).
type Pool struct {
	settings Settings
	clock    clockz.Clock

	wq  *workqueue.WorkQueue[Runnable]
	sem *unfairsem.Semaphore

	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[WorkerEvent]
	faults  *hookz.Hooks[WorkerFaultEvent]

	liveWorkers atomic.Int32
	nextID      atomic.Int32
	shutdown    atomic.Bool

	wg sync.WaitGroup
}

// New constructs and starts a pool from validated settings. Use
// NewSettings or DefaultSettings to obtain settings.
func New(settings Settings) *Pool {
	p := &Pool{
		settings: settings,
		clock:    clockz.RealClock,
		sem:      unfairsem.New(clockz.RealClock),
		metrics:  newMetrics(),
		tracer:   tracez.New(),
		hooks:    hookz.New[WorkerEvent](),
		faults:   hookz.New[WorkerFaultEvent](),
	}
	p.wq = workqueue.New[Runnable](p.sem)

	for i := uint32(0); i < settings.MaxThreads; i++ {
		p.spawnWorker()
	}

	return p
}

// NewPool validates settings via NewSettings and, on success,
// constructs a running pool.
func NewPool(settings Settings) (*Pool, error) {
	s, err := NewSettings(settings)
	if err != nil {
		return nil, err
	}
	return New(s), nil
}

func (p *Pool) spawnWorker() {
	id := int(p.nextID.Add(1))
	w := &worker{
		id:    id,
		pool:  p,
		local: p.wq.NewLocal(uint64(id)*0x9E3779B97F4A7C15 + 1),
	}
	p.liveWorkers.Add(1)
	p.metrics.Gauge(MetricWorkersLive).Set(float64(p.liveWorkers.Load()))

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		w.run()
	}()
}

// Submit enqueues r for execution. When forceGlobal is false and the
// call originates from outside any worker's Run method, it still goes
// onto the shared injection queue -- Submit is the pool's external
// entry point and has no worker identity to attach local work to; only
// a TaskContext obtained inside Run can reach the local-deque path.
// Returns a *ShutdownError if the pool has begun shutdown.
func (p *Pool) Submit(r Runnable, forceGlobal bool) error {
	return p.submitFrom(nil, r, forceGlobal)
}

// submitFrom is the shared path for both Pool.Submit and
// TaskContext.Submit/SubmitGlobal; local is nil when called from
// outside a worker.
func (p *Pool) submitFrom(local *workqueue.Local[Runnable], r Runnable, forceGlobal bool) error {
	if p.shutdown.Load() {
		return &ShutdownError{PoolName: p.settings.Name}
	}
	if local != nil && !forceGlobal {
		p.wq.EnqueueLocal(local, r)
	} else {
		p.wq.EnqueueGlobal(r)
	}
	p.metrics.Counter(MetricThreadRequests).Inc()
	return nil
}

// Dispose begins shutdown: no further Submit calls are accepted,
// pending work is drained to completion, every worker is woken and
// joined. Idempotent; safe to call more than once.
func (p *Pool) Dispose() {
	if !p.shutdown.CompareAndSwap(false, true) {
		p.wg.Wait()
		return
	}

	_, span := p.tracer.StartSpan(context.Background(), SpanDisposeWait)
	defer span.Finish()

	live := int(p.liveWorkers.Load())
	if live > 0 {
		p.sem.Release(live)
	}

	p.wg.Wait()
}

// Metrics exposes the pool's metric registry for scraping or
// assertions in tests.
func (p *Pool) Metrics() *metricz.Registry { return p.metrics }

// Tracer exposes the pool's tracer, primarily so callers can attach an
// exporter.
func (p *Pool) Tracer() *tracez.Tracer { return p.tracer }

// OnWorkerStarted registers a hook fired each time a worker's outer
// loop begins.
func (p *Pool) OnWorkerStarted(handler func(WorkerEvent) error) error {
	_, err := p.hooks.Hook(EventWorkerStarted, func(_ context.Context, e WorkerEvent) error {
		return handler(e)
	})
	return err
}

// OnWorkerRetired registers a hook fired when a worker exits, either
// after an idle ThreadTimeout or after draining during Dispose.
func (p *Pool) OnWorkerRetired(handler func(WorkerEvent) error) error {
	_, err := p.hooks.Hook(EventWorkerRetired, func(_ context.Context, e WorkerEvent) error {
		return handler(e)
	})
	return err
}

// OnWorkerFault registers a hook fired when a Runnable panics inside
// Run. The panic is always recovered; this hook is purely observational.
func (p *Pool) OnWorkerFault(handler func(WorkerFaultEvent) error) error {
	_, err := p.faults.Hook(EventWorkerFault, func(_ context.Context, e WorkerFaultEvent) error {
		return handler(e)
	})
	return err
}

// Stats is a point-in-time snapshot of pool occupancy, for tests and
// diagnostics.
type Stats struct {
	LiveWorkers int
	Registered  int
}

// Stats returns a snapshot of the pool's current worker population.
func (p *Pool) Stats() Stats {
	return Stats{
		LiveWorkers: int(p.liveWorkers.Load()),
		Registered:  p.wq.RegisteredCount(),
	}
}

func (p *Pool) logger() *slog.Logger {
	if p.settings.Logger != nil {
		return p.settings.Logger
	}
	return slog.Default()
}
