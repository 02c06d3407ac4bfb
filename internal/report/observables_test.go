package report

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/mdsim/internal/engine"
	"github.com/san-kum/mdsim/internal/sim"
)

func testSimulation(t *testing.T, n int) *sim.Simulation {
	t.Helper()
	system, err := engine.Chain(n, 100.0, 1.0, 0.001)
	if err != nil {
		t.Fatalf("chain: %v", err)
	}
	return sim.New(system)
}

func TestRegistryBuiltins(t *testing.T) {
	r := NewRegistry()
	for _, key := range []string{"kinetic", "potential", "total", "temperature", "volume", "density"} {
		if _, err := r.Lookup(key); err != nil {
			t.Errorf("missing builtin %q: %v", key, err)
		}
	}
}

func TestRegistryUnknownKey(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Lookup("enthalpy"); err == nil {
		t.Error("expected error for unknown observable")
	}
	if _, err := r.Select("kinetic", "enthalpy"); err == nil {
		t.Error("expected selection to fail at configuration time")
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(Observable{Key: "x", Func: nil}); err == nil {
		t.Error("expected nil function to be rejected")
	}
	if err := r.Register(Observable{Key: "", Func: func(*sim.Simulation, *engine.Snapshot) float64 { return 0 }}); err == nil {
		t.Error("expected empty key to be rejected")
	}

	custom := Observable{
		Key:   "half_kinetic",
		Needs: engine.StateRequest{Energy: true},
		Func:  func(_ *sim.Simulation, snap *engine.Snapshot) float64 { return snap.Kinetic / 2 },
	}
	if err := r.Register(custom); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := r.Register(custom); err == nil {
		t.Error("expected duplicate key to be rejected")
	}

	o, err := r.Lookup("half_kinetic")
	if err != nil {
		t.Fatal(err)
	}
	if o.Label != "half_kinetic" {
		t.Errorf("expected key as fallback label, got %q", o.Label)
	}
}

func TestSelectionMergesNeeds(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Elongation(0, 3)); err != nil {
		t.Fatal(err)
	}

	sel, err := r.Select("kinetic", "elongation_0_3")
	if err != nil {
		t.Fatal(err)
	}
	needs := sel.Needs()
	if !needs.Energy || !needs.Positions {
		t.Errorf("expected energy and positions, got %+v", needs)
	}
	if needs.Velocities || needs.Forces {
		t.Errorf("unexpected components requested: %+v", needs)
	}
}

func TestEvaluateEnergies(t *testing.T) {
	s := testSimulation(t, 4)
	snap := &engine.Snapshot{Kinetic: 3.0, Potential: 2.0, HasEnergy: true}

	sel, err := NewRegistry().Select("kinetic", "potential", "total")
	if err != nil {
		t.Fatal(err)
	}
	values := sel.Evaluate(s, snap)
	if values[0] != 3.0 || values[1] != 2.0 || values[2] != 5.0 {
		t.Errorf("unexpected values: %v", values)
	}
}

func TestTemperature(t *testing.T) {
	s := testSimulation(t, 4) // 4 unit masses, 12 degrees of freedom
	snap := &engine.Snapshot{Kinetic: 6.0, HasEnergy: true}

	sel, err := NewRegistry().Select("temperature")
	if err != nil {
		t.Fatal(err)
	}
	got := sel.Evaluate(s, snap)[0]
	want := 2 * 6.0 / (12 * boltzmann)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected temperature %.4f, got %.4f", want, got)
	}
}

func TestDensity(t *testing.T) {
	s := testSimulation(t, 8)
	snap := &engine.Snapshot{Box: [3]float64{2, 2, 2}}

	sel, err := NewRegistry().Select("density")
	if err != nil {
		t.Fatal(err)
	}
	got := sel.Evaluate(s, snap)[0]
	if math.Abs(got-1.0) > 1e-12 { // 8 unit masses in volume 8
		t.Errorf("expected density 1.0, got %.6f", got)
	}

	// non-periodic systems report zero rather than dividing by zero
	free := &engine.Snapshot{}
	if v := sel.Evaluate(s, free)[0]; v != 0 {
		t.Errorf("expected zero density without a box, got %.6f", v)
	}
}

func TestElongation(t *testing.T) {
	obs := Elongation(0, 1)
	snap := &engine.Snapshot{Positions: []float64{0, 0, 0, 3, 4, 0}}
	if d := obs.Func(nil, snap); math.Abs(d-5.0) > 1e-12 {
		t.Errorf("expected distance 5.0, got %.6f", d)
	}
	if !obs.Needs.Positions {
		t.Error("elongation must request positions")
	}
}

func TestStateReporterOutput(t *testing.T) {
	s := testSimulation(t, 4)
	sel, err := NewRegistry().Select("kinetic", "potential")
	if err != nil {
		t.Fatal(err)
	}

	var buf strings.Builder
	rep := NewStateReporter(&buf, 10, sel)

	plan := rep.NextReport(s)
	if plan.StepsUntilDue != 10 {
		t.Errorf("expected due in 10 steps, got %d", plan.StepsUntilDue)
	}
	if !plan.Needs.Energy {
		t.Error("expected energy requested")
	}

	snap := &engine.Snapshot{Step: 10, Time: 0.01, Kinetic: 1.5, Potential: 0.5, HasEnergy: true}
	if err := rep.Report(s, snap); err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if err := rep.Report(s, snap); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two rows, got %d lines", len(lines))
	}
	if lines[0] != "Step,Time,Kinetic Energy [kJ/mol],Potential Energy [kJ/mol]" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if lines[1] != "10,0.01,1.5,0.5" {
		t.Errorf("unexpected row: %s", lines[1])
	}
}

func TestSeriesReporter(t *testing.T) {
	s := testSimulation(t, 4)
	sel, err := NewRegistry().Select("total")
	if err != nil {
		t.Fatal(err)
	}
	rep := NewSeriesReporter(5, sel)

	for i := 1; i <= 3; i++ {
		snap := &engine.Snapshot{Step: int64(5 * i), Time: float64(i), Kinetic: float64(i), HasEnergy: true}
		if err := rep.Report(s, snap); err != nil {
			t.Fatal(err)
		}
	}

	samples := rep.Samples()
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if samples[2].Step != 15 {
		t.Errorf("expected last step 15, got %d", samples[2].Step)
	}
	col := rep.Column(0)
	if len(col) != 3 || col[0] != 1.0 || col[2] != 3.0 {
		t.Errorf("unexpected column: %v", col)
	}
}
