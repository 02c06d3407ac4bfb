package sim

import "github.com/san-kum/mdsim/internal/engine"

// Reporter receives periodic state snapshots during a stepping run.
//
// NextReport is re-queried fresh at every scheduling round (a reporter's
// due distance may depend on updated state, so answers are never memoized)
// and must be free of side effects. Report may emit, plot or log, but must
// not touch the simulation's step counter or engine.
type Reporter interface {
	NextReport(s *Simulation) ReportPlan
	Report(s *Simulation, snap *engine.Snapshot) error
}

// ReportPlan describes when a reporter is next due and which state
// components it needs then.
//
// StepsUntilDue must be positive; a non-positive value with Skip unset is a
// contract violation and faults the run. A reporter that does not want to
// participate this round sets Skip instead of returning zero.
type ReportPlan struct {
	StepsUntilDue int64
	Skip          bool
	Needs         engine.StateRequest
}

// EveryN returns the plan of a reporter due every interval steps, computed
// from the simulation's current step.
func EveryN(s *Simulation, interval int64, needs engine.StateRequest) ReportPlan {
	return ReportPlan{
		StepsUntilDue: interval - s.CurrentStep()%interval,
		Needs:         needs,
	}
}
