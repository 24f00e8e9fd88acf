package dedicatedpool

import "fmt"

// ErrShutdown is returned by Submit once the pool has been disposed.
// It wraps no further context; ShutdownError carries the pool name.
var ErrShutdown = fmt.Errorf("dedicatedpool: pool is shut down")

// ShutdownError is returned by Submit when the pool has already begun
// (or completed) shutdown. It wraps ErrShutdown so callers can match
// with errors.Is(err, ErrShutdown).
type ShutdownError struct {
	PoolName string
}

func (e *ShutdownError) Error() string {
	if e.PoolName == "" {
		return ErrShutdown.Error()
	}
	return fmt.Sprintf("dedicatedpool: pool %q is shut down", e.PoolName)
}

func (e *ShutdownError) Unwrap() error { return ErrShutdown }

// ValidationError reports an invalid Settings value.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("dedicatedpool: invalid setting %s: %s", e.Field, e.Reason)
}

// WorkerFault describes an error or panic that escaped a Runnable's
// Run method. The dispatcher does not let a fault tear down the
// worker goroutine (see §7 of the design notes); it is recovered,
// logged, and reported through Pool.OnWorkerFault.
type WorkerFault struct {
	WorkerID int
	Err      error
}

func (f WorkerFault) Error() string {
	return fmt.Sprintf("dedicatedpool: worker %d faulted: %v", f.WorkerID, f.Err)
}
