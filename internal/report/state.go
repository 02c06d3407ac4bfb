package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/san-kum/mdsim/internal/engine"
	"github.com/san-kum/mdsim/internal/sim"
)

// StateReporter writes periodic CSV rows of step, time and energies to a
// writer. The header is emitted on the first report.
type StateReporter struct {
	w        *csv.Writer
	interval int64
	sel      *Selection

	wroteHeader bool
}

func NewStateReporter(w io.Writer, interval int64, selection *Selection) *StateReporter {
	return &StateReporter{w: csv.NewWriter(w), interval: interval, sel: selection}
}

func (r *StateReporter) NextReport(s *sim.Simulation) sim.ReportPlan {
	return sim.EveryN(s, r.interval, r.sel.needs)
}

func (r *StateReporter) Report(s *sim.Simulation, snap *engine.Snapshot) error {
	if !r.wroteHeader {
		header := append([]string{"Step", "Time"}, r.sel.Labels()...)
		if err := r.w.Write(header); err != nil {
			return err
		}
		r.wroteHeader = true
	}
	row := make([]string, 0, 2+len(r.sel.obs))
	row = append(row,
		strconv.FormatInt(snap.Step, 10),
		strconv.FormatFloat(snap.Time, 'g', -1, 64))
	for _, v := range r.sel.Evaluate(s, snap) {
		row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
	}
	if err := r.w.Write(row); err != nil {
		return err
	}
	r.w.Flush()
	return r.w.Error()
}
