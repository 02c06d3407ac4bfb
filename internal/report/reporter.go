package report

import (
	"sync"

	"github.com/san-kum/mdsim/internal/engine"
	"github.com/san-kum/mdsim/internal/sim"
)

// Sample is one evaluated report row. Values aligns with the selection's
// Labels.
type Sample struct {
	Step   int64
	Time   float64
	Values []float64
}

// ObservableReporter evaluates a selection of observables every interval
// steps and hands the row to an emit function. It is the base of the
// series, web and terminal reporters.
type ObservableReporter struct {
	interval int64
	sel      *Selection
	emit     func(Sample) error
}

func NewObservableReporter(interval int64, sel *Selection, emit func(Sample) error) *ObservableReporter {
	return &ObservableReporter{interval: interval, sel: sel, emit: emit}
}

func (r *ObservableReporter) Labels() []string { return r.sel.Labels() }

func (r *ObservableReporter) NextReport(s *sim.Simulation) sim.ReportPlan {
	return sim.EveryN(s, r.interval, r.sel.needs)
}

func (r *ObservableReporter) Report(s *sim.Simulation, snap *engine.Snapshot) error {
	return r.emit(Sample{Step: snap.Step, Time: snap.Time, Values: r.sel.Evaluate(s, snap)})
}

// SeriesReporter accumulates samples in memory, for plotting and run
// persistence. Safe to read from another goroutine after the run drains.
type SeriesReporter struct {
	*ObservableReporter

	mu      sync.Mutex
	samples []Sample
}

func NewSeriesReporter(interval int64, selection *Selection) *SeriesReporter {
	sr := &SeriesReporter{}
	sr.ObservableReporter = NewObservableReporter(interval, selection, sr.append)
	return sr
}

func (sr *SeriesReporter) append(s Sample) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.samples = append(sr.samples, s)
	return nil
}

// Samples returns a copy of the accumulated rows.
func (sr *SeriesReporter) Samples() []Sample {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	out := make([]Sample, len(sr.samples))
	copy(out, sr.samples)
	return out
}

// Column returns the series of one observable by selection index.
func (sr *SeriesReporter) Column(i int) []float64 {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	col := make([]float64, 0, len(sr.samples))
	for _, s := range sr.samples {
		col = append(col, s.Values[i])
	}
	return col
}
