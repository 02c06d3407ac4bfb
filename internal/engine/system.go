package engine

import (
	"fmt"
	"math"
)

// System is a particle engine: flat position/velocity/force vectors, per
// particle masses, an optional periodic box and a set of Force terms.
// Advancement uses velocity Verlet integration.
type System struct {
	masses []float64
	pos    []float64
	vel    []float64
	frc    []float64

	box    [3]float64
	forces []Force
	dt     float64

	step     int64
	frcValid bool
}

// NewSystem creates a System with n particles of the given uniform mass,
// all at the origin and at rest. dt is the integration timestep.
func NewSystem(n int, mass, dt float64) (*System, error) {
	if n <= 0 {
		return nil, fmt.Errorf("system must have at least one particle, got %d", n)
	}
	if mass <= 0 {
		return nil, fmt.Errorf("mass must be positive, got %f", mass)
	}
	if dt <= 0 {
		return nil, fmt.Errorf("dt must be positive, got %f", dt)
	}
	masses := make([]float64, n)
	for i := range masses {
		masses[i] = mass
	}
	return &System{
		masses: masses,
		pos:    make([]float64, 3*n),
		vel:    make([]float64, 3*n),
		frc:    make([]float64, 3*n),
		dt:     dt,
	}, nil
}

func (s *System) Size() int           { return len(s.masses) }
func (s *System) Masses() []float64   { return s.masses }
func (s *System) Dt() float64         { return s.dt }
func (s *System) Step() int64         { return s.step }
func (s *System) AddForce(f Force)    { s.forces = append(s.forces, f); s.frcValid = false }
func (s *System) Box() [3]float64     { return s.box }
func (s *System) SetBox(b [3]float64) { s.box = b }

// SetPositions overwrites particle positions. The slice must be 3N long.
func (s *System) SetPositions(pos []float64) error {
	if len(pos) != len(s.pos) {
		return fmt.Errorf("expected %d coordinates, got %d", len(s.pos), len(pos))
	}
	copy(s.pos, pos)
	s.frcValid = false
	return nil
}

// SetVelocities overwrites particle velocities. The slice must be 3N long.
func (s *System) SetVelocities(vel []float64) error {
	if len(vel) != len(s.vel) {
		return fmt.Errorf("expected %d coordinates, got %d", len(s.vel), len(vel))
	}
	copy(s.vel, vel)
	return nil
}

func (s *System) PeriodicBoundary() bool {
	return s.box[0] > 0 && s.box[1] > 0 && s.box[2] > 0
}

// computeForces rebuilds the force vector, returning the potential energy.
func (s *System) computeForces() float64 {
	for i := range s.frc {
		s.frc[i] = 0
	}
	pot := 0.0
	for _, f := range s.forces {
		pot += f.Apply(s.pos, s.frc)
	}
	s.frcValid = true
	return pot
}

// Advance integrates forward by n velocity Verlet steps.
func (s *System) Advance(n int) error {
	if n < 0 {
		return fmt.Errorf("cannot advance by %d steps", n)
	}
	if !s.frcValid {
		s.computeForces()
	}
	halfDt := 0.5 * s.dt
	for k := 0; k < n; k++ {
		for i := range s.masses {
			inv := halfDt / s.masses[i]
			for d := 0; d < 3; d++ {
				s.vel[3*i+d] += inv * s.frc[3*i+d]
				s.pos[3*i+d] += s.dt * s.vel[3*i+d]
			}
		}
		s.computeForces()
		for i := range s.masses {
			inv := halfDt / s.masses[i]
			for d := 0; d < 3; d++ {
				s.vel[3*i+d] += inv * s.frc[3*i+d]
			}
		}
		s.step++
	}
	if !isFinite(s.pos) {
		return fmt.Errorf("integration diverged at step %d (NaN/Inf positions)", s.step)
	}
	return nil
}

// Minimize performs steepest-descent energy minimization with backtracking.
// Convergence is reached when the largest force component falls below
// tolerance. maxIterations of 0 iterates until convergence with no cap.
func (s *System) Minimize(tolerance float64, maxIterations int) error {
	if tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %f", tolerance)
	}
	if maxIterations < 0 {
		return fmt.Errorf("maxIterations must be non-negative, got %d", maxIterations)
	}
	energy := s.computeForces()
	alpha := 0.1 * s.dt * s.dt
	trial := make([]float64, len(s.pos))
	for iter := 0; maxIterations == 0 || iter < maxIterations; iter++ {
		if maxAbs(s.frc) < tolerance {
			break
		}
		saved := cloneVec(s.frc)
		for {
			for i := range trial {
				trial[i] = s.pos[i] + alpha*saved[i]
			}
			s.pos, trial = trial, s.pos
			next := s.computeForces()
			if next < energy {
				energy = next
				alpha *= 1.2
				break
			}
			// reject the move and shrink the step
			s.pos, trial = trial, s.pos
			s.frcValid = false
			alpha *= 0.5
			if alpha < 1e-16 {
				copy(s.frc, saved)
				s.frcValid = true
				return nil
			}
		}
	}
	if !s.frcValid {
		s.computeForces()
	}
	return nil
}

// State builds a snapshot of the requested components.
func (s *System) State(req StateRequest) (*Snapshot, error) {
	snap := &Snapshot{
		Step: s.step,
		Time: float64(s.step) * s.dt,
		Box:  s.box,
	}
	if req.Positions {
		snap.Positions = cloneVec(s.pos)
		if req.Wrap && s.PeriodicBoundary() {
			wrap(snap.Positions, s.box)
		}
	}
	if req.Velocities {
		snap.Velocities = cloneVec(s.vel)
	}
	if req.Forces {
		if !s.frcValid {
			s.computeForces()
		}
		snap.Forces = cloneVec(s.frc)
	}
	if req.Energy {
		snap.Kinetic = s.kineticEnergy()
		snap.Potential = s.computeForces()
		snap.HasEnergy = true
	}
	return snap, nil
}

func (s *System) kineticEnergy() float64 {
	ke := 0.0
	for i := range s.masses {
		v2 := 0.0
		for d := 0; d < 3; d++ {
			v := s.vel[3*i+d]
			v2 += v * v
		}
		ke += 0.5 * s.masses[i] * v2
	}
	return ke
}

// PotentialEnergy returns the current potential energy.
func (s *System) PotentialEnergy() float64 {
	return s.computeForces()
}

func wrap(pos []float64, box [3]float64) {
	for i := 0; i < len(pos); i += 3 {
		for d := 0; d < 3; d++ {
			pos[i+d] -= box[d] * math.Floor(pos[i+d]/box[d])
		}
	}
}
