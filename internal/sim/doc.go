// Package sim drives a particle engine by discrete integration steps,
// interleaving periodic reports requested by independently configured
// reporters.
//
// A [Simulation] owns the engine handles and enforces single-flight
// stepping: at most one [Simulation.Step] or [Simulation.AsyncStep] may hold
// the engine at a time. Each scheduling round the minimum due distance
// across all reporters picks the next checkpoint, the engine advances there
// in bounded chunks (keeping long requests responsive to cancellation), and
// every reporter due at that checkpoint is served from one shared snapshot:
//
//	s := sim.New(system)
//	s.AddReporter(reporter)
//	future := s.AsyncStep(ctx, 100000, nil)
//	// ... other work ...
//	err := future.Wait(0)
//
// Reporters implement [Reporter]; the scheduler re-queries due distances
// every round, so an interval may depend on live state.
package sim
