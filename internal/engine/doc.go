// Package engine provides a small molecular-dynamics engine: a particle
// [System] with pluggable pairwise forces, velocity-Verlet integration,
// steepest-descent energy minimization, and snapshot extraction of
// positions, velocities, forces and energies on request.
package engine
