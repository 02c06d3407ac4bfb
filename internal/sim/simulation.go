package sim

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/mdsim/internal/engine"
)

// stepChunk bounds how many steps are handed to the engine per call, so a
// cancellation check point exists between chunks even for very large
// requests. Not externally observable.
const stepChunk = 10

// Simulation owns the engine handles and composes the stepping scheduler
// with a single-flight guard: at most one stepping operation, synchronous
// or asynchronous, may hold the engine at a time.
type Simulation struct {
	eng engine.Engine

	mu   sync.Mutex  // held for the duration of an in-flight operation
	busy atomic.Bool // mirrors mu for non-blocking queries

	currentStep atomic.Int64
	reporters   []Reporter

	future atomic.Pointer[StepFuture]
	plans  []ReportPlan // scratch, reused across rounds
}

func New(eng engine.Engine) *Simulation {
	return &Simulation{eng: eng}
}

// CurrentStep returns the index of the current time step.
func (s *Simulation) CurrentStep() int64 { return s.currentStep.Load() }

// IsBusy reports whether a stepping operation is in flight.
func (s *Simulation) IsBusy() bool { return s.busy.Load() }

// tryAcquire admits at most one operation; admission is an atomic lock
// attempt, never a racy flag read.
func (s *Simulation) tryAcquire() bool {
	if !s.mu.TryLock() {
		return false
	}
	s.busy.Store(true)
	return true
}

func (s *Simulation) release() {
	s.busy.Store(false)
	s.mu.Unlock()
}

// AddReporter appends r to the dispatch order. Reconfiguring the reporter
// set while steps are in flight is not allowed.
func (s *Simulation) AddReporter(r Reporter) error {
	if !s.tryAcquire() {
		return ErrBusy
	}
	defer s.release()
	s.reporters = append(s.reporters, r)
	return nil
}

// Reporters returns the reporters in registration order.
func (s *Simulation) Reporters() []Reporter {
	out := make([]Reporter, len(s.reporters))
	copy(out, s.reporters)
	return out
}

// Engine returns the engine handle. Touching it while steps are in flight
// leads to undefined behavior; prefer WithEngine for a checked borrow.
func (s *Simulation) Engine() engine.Engine {
	if s.IsBusy() {
		logrus.Warn("accessing the engine before in-flight steps complete leads to undefined behavior")
	}
	return s.eng
}

// WithEngine lends the engine to fn under the single-flight guard. It
// returns ErrBusy when a stepping operation is in flight.
func (s *Simulation) WithEngine(fn func(engine.Engine) error) error {
	if !s.tryAcquire() {
		return ErrBusy
	}
	defer s.release()
	return fn(s.eng)
}

// Masses exposes the per-particle masses when the engine provides them.
// Reporters use this for system constants (degrees of freedom, total mass).
func (s *Simulation) Masses() []float64 {
	if mp, ok := s.eng.(engine.MassProvider); ok {
		return mp.Masses()
	}
	return nil
}

// MinimizeEnergy performs a local energy minimization on the engine. A
// maxIterations of 0 iterates until convergence with no cap. No stepping or
// reporting is involved; returns ErrBusy while steps are in flight.
func (s *Simulation) MinimizeEnergy(tolerance float64, maxIterations int) error {
	if !s.tryAcquire() {
		return ErrBusy
	}
	defer s.release()
	return s.eng.Minimize(tolerance, maxIterations)
}

// Step advances the simulation by the given number of steps on the calling
// goroutine, dispatching reports as they come due. It returns ErrBusy
// immediately if another stepping operation is in flight.
func (s *Simulation) Step(ctx context.Context, steps int64) error {
	if !s.tryAcquire() {
		return ErrBusy
	}
	defer s.release()
	return s.run(ctx, steps)
}

// AsyncStep advances the simulation on a background goroutine and returns a
// future for the operation. If another operation is already in flight it
// warns and blocks until that operation drains, then proceeds; requests are
// never dropped or queued. onComplete, when non-nil, is invoked after the
// run finishes, success or fault, before the busy flag clears.
func (s *Simulation) AsyncStep(ctx context.Context, steps int64, onComplete func()) *StepFuture {
	if !s.tryAcquire() {
		logrus.Warn("simulation cannot execute more than one asynchronous step at a time; " +
			"waiting for the previous call to finish (this might take a while)")
		s.mu.Lock()
		s.busy.Store(true)
	}
	f := newStepFuture()
	s.future.Store(f)
	go func() {
		var err error
		defer func() {
			s.release()
			f.finish(err)
		}()
		err = s.run(ctx, steps)
		if onComplete != nil {
			onComplete()
		}
	}()
	return f
}

// Wait blocks until the currently tracked asynchronous steps complete or
// timeout elapses; it is a no-op when none were started. A timeout of 0 or
// less waits indefinitely.
func (s *Simulation) Wait(timeout time.Duration) error {
	f := s.future.Load()
	if f == nil {
		return nil
	}
	return f.Wait(timeout)
}

// run is the scheduler loop. The caller must hold the guard. Each round it
// re-queries every reporter for its next due distance, advances the engine
// to the nearest checkpoint in bounded chunks, then serves all reporters
// due at that checkpoint from one shared snapshot.
func (s *Simulation) run(ctx context.Context, steps int64) error {
	if steps < 0 {
		return fmt.Errorf("cannot step by %d", steps)
	}
	target := s.currentStep.Load() + steps
	if cap(s.plans) < len(s.reporters) {
		s.plans = make([]ReportPlan, len(s.reporters))
	}
	plans := s.plans[:len(s.reporters)]

	for s.currentStep.Load() < target {
		remaining := target - s.currentStep.Load()
		next := remaining
		anyDue := false
		for i, r := range s.reporters {
			plans[i] = r.NextReport(s)
			if plans[i].Skip {
				continue
			}
			if plans[i].StepsUntilDue <= 0 {
				return fmt.Errorf("reporter %d returned non-positive due distance %d", i, plans[i].StepsUntilDue)
			}
			if plans[i].StepsUntilDue <= next {
				next = plans[i].StepsUntilDue
				anyDue = true
			}
		}

		if err := s.advance(ctx, next); err != nil {
			return err
		}

		if !anyDue {
			continue
		}
		req := engine.StateRequest{Wrap: s.eng.PeriodicBoundary()}
		for i := range plans {
			if !plans[i].Skip && plans[i].StepsUntilDue == next {
				req.Merge(plans[i].Needs)
			}
		}
		snap, err := s.eng.State(req)
		if err != nil {
			return fmt.Errorf("snapshot at step %d: %w", s.currentStep.Load(), err)
		}
		for i, r := range s.reporters {
			if plans[i].Skip || plans[i].StepsUntilDue != next {
				continue
			}
			if err := r.Report(s, snap); err != nil {
				return &ReporterError{Index: i, Err: err}
			}
		}
	}
	return nil
}

// advance drives the engine toward the checkpoint in bounded chunks,
// checking for cancellation between chunks. The step counter tracks chunks
// as they land so progress is never lost on an interrupted round.
func (s *Simulation) advance(ctx context.Context, n int64) error {
	for n > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk := n
		if chunk > stepChunk {
			chunk = stepChunk
		}
		if err := s.eng.Advance(int(chunk)); err != nil {
			return err
		}
		s.currentStep.Add(chunk)
		n -= chunk
	}
	return nil
}
