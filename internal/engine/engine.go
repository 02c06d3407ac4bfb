package engine

// Engine is the capability set the stepping core consumes. Implementations
// integrate a particle system forward, minimize its energy locally, and
// produce read-only snapshots of the requested state components.
type Engine interface {
	// Advance integrates forward by exactly n steps.
	Advance(n int) error

	// Minimize performs a local energy minimization. A maxIterations of 0
	// means iterate until convergence with no cap.
	Minimize(tolerance float64, maxIterations int) error

	// State returns a snapshot satisfying req. Components not requested
	// are left nil/zero in the snapshot.
	State(req StateRequest) (*Snapshot, error)

	// PeriodicBoundary reports whether the system has a defined unit cell.
	PeriodicBoundary() bool
}

// MassProvider is an optional capability exposing per-particle masses.
// Reporters that need system constants (temperature, density) assert for it.
type MassProvider interface {
	Masses() []float64
}

// StateRequest aggregates the state components wanted from a snapshot.
// Reporters fill the component fields; the scheduler sets Wrap from the
// engine's boundary conditions.
type StateRequest struct {
	Positions  bool
	Velocities bool
	Forces     bool
	Energy     bool
	Wrap       bool
}

// Merge ORs another request's component needs into r. Wrap is not merged.
func (r *StateRequest) Merge(other StateRequest) {
	r.Positions = r.Positions || other.Positions
	r.Velocities = r.Velocities || other.Velocities
	r.Forces = r.Forces || other.Forces
	r.Energy = r.Energy || other.Energy
}

// Snapshot is an immutable view of system state as of a specific step.
// Component slices are nil unless requested; Kinetic and Potential are valid
// only when HasEnergy is true. Reporters share one snapshot per round and
// must not mutate it.
type Snapshot struct {
	Step int64
	Time float64

	Positions  []float64
	Velocities []float64
	Forces     []float64

	Kinetic   float64
	Potential float64
	HasEnergy bool

	Box [3]float64
}

// Total returns the total energy. Valid only when HasEnergy is true.
func (s *Snapshot) Total() float64 { return s.Kinetic + s.Potential }

// Volume returns the unit cell volume, or 0 for a non-periodic system.
func (s *Snapshot) Volume() float64 { return s.Box[0] * s.Box[1] * s.Box[2] }
