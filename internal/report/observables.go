package report

import (
	"fmt"
	"sort"

	"github.com/san-kum/mdsim/internal/engine"
	"github.com/san-kum/mdsim/internal/sim"
)

// kB in kJ/mol/K.
const boltzmann = 0.00831451

// ObservableFunc reduces a snapshot to a scalar. Functions read the
// simulation only for system constants (masses, particle count) and must
// not mutate it.
type ObservableFunc func(s *sim.Simulation, snap *engine.Snapshot) float64

// Observable is a tagged scalar quantity derived from snapshots.
type Observable struct {
	Key   string
	Label string
	Needs engine.StateRequest
	Func  ObservableFunc
}

// Registry maps keys to observables. New observable kinds are added at
// configuration time; the scheduler core never sees concrete keys.
type Registry struct {
	entries map[string]Observable
}

// NewRegistry returns a registry holding the built-in observables.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]Observable)}
	energy := engine.StateRequest{Energy: true}
	builtins := []Observable{
		{Key: "kinetic", Label: "Kinetic Energy [kJ/mol]", Needs: energy,
			Func: func(_ *sim.Simulation, snap *engine.Snapshot) float64 { return snap.Kinetic }},
		{Key: "potential", Label: "Potential Energy [kJ/mol]", Needs: energy,
			Func: func(_ *sim.Simulation, snap *engine.Snapshot) float64 { return snap.Potential }},
		{Key: "total", Label: "Total Energy [kJ/mol]", Needs: energy,
			Func: func(_ *sim.Simulation, snap *engine.Snapshot) float64 { return snap.Total() }},
		{Key: "temperature", Label: "Temperature [K]", Needs: energy, Func: temperature},
		{Key: "volume", Label: "Volume [nm^3]", Needs: engine.StateRequest{},
			Func: func(_ *sim.Simulation, snap *engine.Snapshot) float64 { return snap.Volume() }},
		{Key: "density", Label: "Density [amu/nm^3]", Needs: engine.StateRequest{}, Func: density},
	}
	for _, o := range builtins {
		r.entries[o.Key] = o
	}
	return r
}

// Register adds a custom observable under o.Key.
func (r *Registry) Register(o Observable) error {
	if o.Key == "" {
		return fmt.Errorf("observable key must not be empty")
	}
	if o.Func == nil {
		return fmt.Errorf("observable %q has no function", o.Key)
	}
	if _, exists := r.entries[o.Key]; exists {
		return fmt.Errorf("observable %q is already registered", o.Key)
	}
	if o.Label == "" {
		o.Label = o.Key
	}
	r.entries[o.Key] = o
	return nil
}

// Keys returns the registered keys, sorted.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup resolves one key.
func (r *Registry) Lookup(key string) (Observable, error) {
	o, ok := r.entries[key]
	if !ok {
		return Observable{}, fmt.Errorf("%q is not a valid observable, choose from %v", key, r.Keys())
	}
	return o, nil
}

// Selection is an ordered set of observables with their merged state needs.
// Unknown keys fail here, at configuration time, not mid-run.
type Selection struct {
	obs   []Observable
	needs engine.StateRequest
}

func (r *Registry) Select(keys ...string) (*Selection, error) {
	sel := &Selection{}
	for _, k := range keys {
		o, err := r.Lookup(k)
		if err != nil {
			return nil, err
		}
		sel.obs = append(sel.obs, o)
		sel.needs.Merge(o.Needs)
	}
	return sel, nil
}

func (sel *Selection) Labels() []string {
	labels := make([]string, len(sel.obs))
	for i, o := range sel.obs {
		labels[i] = o.Label
	}
	return labels
}

func (sel *Selection) Needs() engine.StateRequest { return sel.needs }

// Evaluate computes every selected observable against one snapshot, in
// selection order.
func (sel *Selection) Evaluate(s *sim.Simulation, snap *engine.Snapshot) []float64 {
	values := make([]float64, len(sel.obs))
	for i, o := range sel.obs {
		values[i] = o.Func(s, snap)
	}
	return values
}

func temperature(s *sim.Simulation, snap *engine.Snapshot) float64 {
	dof := 0
	for _, m := range s.Masses() {
		if m > 0 {
			dof += 3
		}
	}
	if dof == 0 {
		return 0
	}
	return 2 * snap.Kinetic / (float64(dof) * boltzmann)
}

func density(s *sim.Simulation, snap *engine.Snapshot) float64 {
	vol := snap.Volume()
	if vol == 0 {
		return 0
	}
	total := 0.0
	for _, m := range s.Masses() {
		total += m
	}
	return total / vol
}

// Elongation is an observable measuring the distance between two particles,
// for pulling experiments.
func Elongation(i, j int) Observable {
	return Observable{
		Key:   fmt.Sprintf("elongation_%d_%d", i, j),
		Label: fmt.Sprintf("%d-%d Elongation [nm]", i, j),
		Needs: engine.StateRequest{Positions: true},
		Func: func(_ *sim.Simulation, snap *engine.Snapshot) float64 {
			return engine.Distance(snap.Positions, i, j)
		},
	}
}
