package dedicatedpool

import (
	"log/slog"
	"runtime"
	"time"
)

func defaultThreadCount() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}

// DispatchQuantumMs is the wall-clock budget, measured on the pool's
// clock (clockz.RealClock), a worker spends inside one dispatch() call
// before yielding back to its outer loop.
const DispatchQuantumMs = 30

// DispatchQuantum is DispatchQuantumMs as a time.Duration.
const DispatchQuantum = DispatchQuantumMs * time.Millisecond

// Settings configures a Pool. Use NewSettings to validate a custom
// configuration, or DefaultSettings for sensible defaults -- mirroring
// the teacher's Config/DefaultConfig split, since the source this spec
// is drawn from leaves DedicatedThreadPoolSettings validation
// unspecified (see DESIGN.md).
type Settings struct {
	// MinThreads is the floor the worker population shrinks to as idle
	// workers time out. Zero is valid: the pool may fully quiesce.
	MinThreads uint32
	// MaxThreads is the number of workers spawned at construction --
	// this pool does not grow beyond it (see DESIGN.md: dynamic pool
	// sizing is an explicit non-goal).
	MaxThreads uint32
	// ThreadTimeout bounds how long an idle worker waits on the
	// semaphore before considering retirement.
	ThreadTimeout time.Duration
	// Name identifies the pool in logs, hook events and ShutdownError.
	Name string
	// ThreadStackSize is accepted for interface parity with the
	// source's settings struct. Go goroutines do not take a fixed
	// stack size (they start small and grow); this field is a no-op,
	// documented rather than silently dropped.
	ThreadStackSize uint64
	// Logger receives worker lifecycle and fault events. Defaults to
	// slog.Default() when nil.
	Logger *slog.Logger
}

// DefaultSettings returns a pool sized to the host's logical CPU
// count, matching the common default of "one worker per core" for a
// CPU-bound dispatch loop.
func DefaultSettings() Settings {
	n := defaultThreadCount()
	return Settings{
		MinThreads:    1,
		MaxThreads:    uint32(n),
		ThreadTimeout: 20 * time.Second,
		Name:          "dedicatedpool",
	}
}

// NewSettings validates settings and returns a ValidationError unless
// MaxThreads >= 1, MaxThreads >= MinThreads and ThreadTimeout > 0. No
// numeric field is defaulted; an empty Name becomes "dedicatedpool" and
// a nil Logger becomes slog.Default().
func NewSettings(s Settings) (Settings, error) {
	if s.MaxThreads == 0 {
		return Settings{}, &ValidationError{Field: "MaxThreads", Reason: "must be >= 1"}
	}
	if s.MaxThreads < s.MinThreads {
		return Settings{}, &ValidationError{Field: "MaxThreads", Reason: "must be >= MinThreads"}
	}
	if s.ThreadTimeout <= 0 {
		return Settings{}, &ValidationError{Field: "ThreadTimeout", Reason: "must be > 0"}
	}
	if s.Name == "" {
		s.Name = "dedicatedpool"
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	return s, nil
}
