package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/mdsim/internal/report"
	"github.com/san-kum/mdsim/internal/sim"
)

const historyLimit = 240

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	chartStyle   = lipgloss.NewStyle().Padding(0, 1)
	captionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// NewReporter builds the reporter feeding a live view. Sends never block
// the scheduler: frames are dropped when the view lags behind.
func NewReporter(interval int64, selection *report.Selection) (*report.ObservableReporter, chan report.Sample) {
	ch := make(chan report.Sample, 64)
	rep := report.NewObservableReporter(interval, selection, func(s report.Sample) error {
		select {
		case ch <- s:
		default:
		}
		return nil
	})
	return rep, ch
}

type sampleMsg report.Sample

type doneMsg struct{ err error }

// Model renders live observable charts while an asynchronous step request
// runs in the background; it quits when the step future completes.
type Model struct {
	labels  []string
	samples <-chan report.Sample
	future  *sim.StepFuture

	series [][]float64
	step   int64
	time   float64
	width  int
	done   bool
	err    error
}

func NewModel(labels []string, samples <-chan report.Sample, future *sim.StepFuture) Model {
	return Model{
		labels:  labels,
		samples: samples,
		future:  future,
		series:  make([][]float64, len(labels)),
		width:   80,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.nextSample(), m.waitDone())
}

func (m Model) nextSample() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-m.samples
		if !ok {
			return nil
		}
		return sampleMsg(s)
	}
}

func (m Model) waitDone() tea.Cmd {
	return func() tea.Msg {
		return doneMsg{err: m.future.Wait(0)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case sampleMsg:
		m.step = msg.Step
		m.time = msg.Time
		for i, v := range msg.Values {
			m.series[i] = append(m.series[i], v)
			if len(m.series[i]) > historyLimit {
				m.series[i] = m.series[i][1:]
			}
		}
		return m, m.nextSample()
	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("mdsim live"))
	b.WriteString(statusStyle.Render(fmt.Sprintf("  step %d  t=%.3f", m.step, m.time)))
	b.WriteString("\n\n")

	plotWidth := m.width - 12
	if plotWidth < 20 {
		plotWidth = 20
	}
	for i, label := range m.labels {
		if len(m.series[i]) < 2 {
			continue
		}
		chart := asciigraph.Plot(m.series[i],
			asciigraph.Height(7),
			asciigraph.Width(plotWidth),
		)
		b.WriteString(captionStyle.Render(label))
		b.WriteString("\n")
		b.WriteString(chartStyle.Render(chart))
		b.WriteString("\n\n")
	}

	if m.done {
		if m.err != nil {
			b.WriteString(statusStyle.Render(fmt.Sprintf("run failed: %v", m.err)))
		} else {
			b.WriteString(statusStyle.Render("run complete"))
		}
	} else {
		b.WriteString(statusStyle.Render("q to quit"))
	}
	b.WriteString("\n")
	return b.String()
}
