package engine

// Force contributes to the potential of a System. Apply accumulates the
// force on each particle into frc (len 3N, already zeroed for the first
// force of a pass) and returns the potential energy contribution.
type Force interface {
	Apply(pos []float64, frc []float64) float64
}

// HarmonicBond is a spring between two particles:
// U = 0.5*k*(r-r0)^2.
type HarmonicBond struct {
	I, J int
	K    float64
	R0   float64
}

func (b *HarmonicBond) Apply(pos, frc []float64) float64 {
	r := Distance(pos, b.I, b.J)
	if r == 0 {
		return 0
	}
	f := -b.K * (r - b.R0) / r
	for d := 0; d < 3; d++ {
		diff := pos[3*b.I+d] - pos[3*b.J+d]
		frc[3*b.I+d] += f * diff
		frc[3*b.J+d] -= f * diff
	}
	dr := r - b.R0
	return 0.5 * b.K * dr * dr
}

// LennardJones is a pairwise 12-6 potential over all particle pairs:
// U = 4*eps*((sigma/r)^12 - (sigma/r)^6), truncated at Cutoff when > 0.
type LennardJones struct {
	Epsilon float64
	Sigma   float64
	Cutoff  float64
}

func (lj *LennardJones) Apply(pos, frc []float64) float64 {
	n := len(pos) / 3
	energy := 0.0
	cut2 := lj.Cutoff * lj.Cutoff
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := pos[3*i] - pos[3*j]
			dy := pos[3*i+1] - pos[3*j+1]
			dz := pos[3*i+2] - pos[3*j+2]
			r2 := dx*dx + dy*dy + dz*dz
			if r2 == 0 || (lj.Cutoff > 0 && r2 > cut2) {
				continue
			}
			sr2 := lj.Sigma * lj.Sigma / r2
			sr6 := sr2 * sr2 * sr2
			sr12 := sr6 * sr6
			energy += 4 * lj.Epsilon * (sr12 - sr6)
			f := 24 * lj.Epsilon * (2*sr12 - sr6) / r2
			frc[3*i] += f * dx
			frc[3*i+1] += f * dy
			frc[3*i+2] += f * dz
			frc[3*j] -= f * dx
			frc[3*j+1] -= f * dy
			frc[3*j+2] -= f * dz
		}
	}
	return energy
}

// Pulling applies a harmonic restraint on the distance between two end
// particles, biasing it toward a rest length that can be retuned mid-run.
type Pulling struct {
	I, J int
	K    float64
	r0   float64
}

func NewPulling(i, j int, k, r0 float64) *Pulling {
	return &Pulling{I: i, J: j, K: k, r0: r0}
}

func (p *Pulling) R0() float64 { return p.r0 }

// SetR0 retunes the rest length. Callers must not invoke this while a
// stepping operation is in flight.
func (p *Pulling) SetR0(r0 float64) { p.r0 = r0 }

func (p *Pulling) Apply(pos, frc []float64) float64 {
	r := Distance(pos, p.I, p.J)
	if r == 0 {
		return 0
	}
	f := -p.K * (r - p.r0) / r
	for d := 0; d < 3; d++ {
		diff := pos[3*p.I+d] - pos[3*p.J+d]
		frc[3*p.I+d] += f * diff
		frc[3*p.J+d] -= f * diff
	}
	dr := r - p.r0
	return 0.5 * p.K * dr * dr
}
