package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a synchronous operation is requested while
	// another stepping operation holds the engine.
	ErrBusy = errors.New("simulation is already engaged in a step")

	// ErrWaitTimeout is returned by Wait when the timeout elapses before
	// the in-flight steps complete.
	ErrWaitTimeout = errors.New("timed out waiting for steps to complete")
)

// ReporterError wraps a failure raised by a reporter during dispatch. The
// remaining reporters of that round are not invoked; step progress already
// made is retained.
type ReporterError struct {
	Index int
	Err   error
}

func (e *ReporterError) Error() string {
	return fmt.Sprintf("reporter %d failed: %v", e.Index, e.Err)
}

func (e *ReporterError) Unwrap() error { return e.Err }
