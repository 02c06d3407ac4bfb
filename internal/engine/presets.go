package engine

import "math"

// Chain builds a linear chain of n unit-mass particles spaced along x and
// connected by harmonic bonds. A light initial stretch on the last bond
// keeps the dynamics non-trivial.
func Chain(n int, k, spacing, dt float64) (*System, error) {
	s, err := NewSystem(n, 1.0, dt)
	if err != nil {
		return nil, err
	}
	pos := make([]float64, 3*n)
	for i := 0; i < n; i++ {
		pos[3*i] = float64(i) * spacing
	}
	if n > 1 {
		pos[3*(n-1)] += 0.1 * spacing
	}
	if err := s.SetPositions(pos); err != nil {
		return nil, err
	}
	for i := 0; i < n-1; i++ {
		s.AddForce(&HarmonicBond{I: i, J: i + 1, K: k, R0: spacing})
	}
	return s, nil
}

// LJFluid builds n unit-mass Lennard-Jones particles on a cubic lattice
// inside a periodic box of the given edge length.
func LJFluid(n int, edge, dt float64) (*System, error) {
	s, err := NewSystem(n, 1.0, dt)
	if err != nil {
		return nil, err
	}
	s.SetBox([3]float64{edge, edge, edge})

	side := int(math.Ceil(math.Cbrt(float64(n))))
	cell := edge / float64(side)
	pos := make([]float64, 3*n)
	for i := 0; i < n; i++ {
		pos[3*i] = (float64(i%side) + 0.5) * cell
		pos[3*i+1] = (float64((i/side)%side) + 0.5) * cell
		pos[3*i+2] = (float64(i/(side*side)) + 0.5) * cell
	}
	if err := s.SetPositions(pos); err != nil {
		return nil, err
	}
	s.AddForce(&LennardJones{Epsilon: 1.0, Sigma: 1.0, Cutoff: edge / 2})
	return s, nil
}
