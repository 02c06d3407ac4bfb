package sim

import "time"

// StepFuture is a non-owning handle on a background stepping operation. It
// observes completion through a channel closed by the worker at exit; the
// future never keeps the worker alive or re-triggers it.
type StepFuture struct {
	done chan struct{}
	err  error // written by the worker before done closes
}

func newStepFuture() *StepFuture {
	return &StepFuture{done: make(chan struct{})}
}

// Done reports, without blocking, whether the background steps have
// completed (normally or with a fault).
func (f *StepFuture) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the background steps complete or timeout elapses. A
// timeout of 0 or less waits indefinitely. On completion it returns the
// run's outcome; on timeout it returns ErrWaitTimeout without cancelling
// anything.
func (f *StepFuture) Wait(timeout time.Duration) error {
	if timeout <= 0 {
		<-f.done
		return f.err
	}
	select {
	case <-f.done:
		return f.err
	case <-time.After(timeout):
		return ErrWaitTimeout
	}
}

// Err returns the run's outcome: nil for normal completion, the fault
// otherwise. Valid only after Done reports true.
func (f *StepFuture) Err() error { return f.err }

// finish records the outcome and releases all waiters.
func (f *StepFuture) finish(err error) {
	f.err = err
	close(f.done)
}
