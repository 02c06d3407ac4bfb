package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/engine"
	"github.com/san-kum/mdsim/internal/report"
	"github.com/san-kum/mdsim/internal/sim"
	"github.com/san-kum/mdsim/internal/storage"
	"github.com/san-kum/mdsim/internal/tui"
)

var (
	dataDir  string
	logLevel string

	configFile  string
	steps       int64
	dt          float64
	particles   int
	interval    int64
	observables []string
	outFile     string
	minimize    bool
	live        bool
	web         bool
	webAddr     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mdsim",
		Short: "stepped molecular dynamics with multiplexed reporting",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				logrus.Fatalf("invalid log level: %s", logLevel)
			}
			logrus.SetLevel(level)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mdsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().Int64Var(&steps, "steps", 0, "number of integration steps")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "timestep")
	runCmd.Flags().IntVar(&particles, "particles", 0, "number of particles")
	runCmd.Flags().Int64Var(&interval, "interval", 0, "report interval in steps")
	runCmd.Flags().StringSliceVar(&observables, "observables", nil, "observables to report")
	runCmd.Flags().StringVar(&outFile, "out", "", "write report rows as csv to this file")
	runCmd.Flags().BoolVar(&minimize, "minimize", false, "minimize energy before stepping")
	runCmd.Flags().BoolVar(&live, "live", false, "live terminal plot while stepping in the background")
	runCmd.Flags().BoolVar(&web, "web", false, "live browser plot over websockets")
	runCmd.Flags().StringVar(&webAddr, "web-addr", "", "address for the web reporter")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	observablesCmd := &cobra.Command{
		Use:   "observables",
		Short: "list available observables",
		Run: func(cmd *cobra.Command, args []string) {
			registry := report.NewRegistry()
			for _, key := range registry.Keys() {
				o, _ := registry.Lookup(key)
				fmt.Printf("  %-14s %s\n", key, o.Label)
			}
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, observablesCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		preset := config.GetPreset(args[0])
		if preset == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
		cfg = preset
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("particles") {
		cfg.Particles = particles
	}
	if cmd.Flags().Changed("interval") {
		cfg.Report.Interval = interval
	}
	if cmd.Flags().Changed("observables") {
		cfg.Report.Observables = observables
	}
	if cmd.Flags().Changed("minimize") {
		cfg.Minimize = minimize
	}
	if cmd.Flags().Changed("web-addr") {
		cfg.Report.WebAddr = webAddr
	}
	if outFile != "" {
		cfg.Report.File = outFile
	}
	return cfg, cfg.Validate()
}

func buildSystem(cfg *config.Config) (*engine.System, error) {
	switch cfg.System {
	case "chain":
		return engine.Chain(cfg.Particles, cfg.BondK, cfg.Spacing, cfg.Dt)
	case "lj-fluid":
		return engine.LJFluid(cfg.Particles, cfg.BoxEdge, cfg.Dt)
	default:
		return nil, fmt.Errorf("unknown system: %s", cfg.System)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	system, err := buildSystem(cfg)
	if err != nil {
		return err
	}

	registry := report.NewRegistry()
	selected := cfg.Report.Observables

	if cfg.Pulling.Enabled {
		last := system.Size() - 1
		r0 := cfg.Pulling.R0
		if r0 == 0 {
			snap, err := system.State(engine.StateRequest{Positions: true})
			if err != nil {
				return err
			}
			r0 = engine.Distance(snap.Positions, 0, last)
		}
		system.AddForce(engine.NewPulling(0, last, cfg.Pulling.K, r0))
		elong := report.Elongation(0, last)
		if err := registry.Register(elong); err != nil {
			return err
		}
		selected = append(selected, elong.Key)
	}

	selection, err := registry.Select(selected...)
	if err != nil {
		return err
	}

	simulation := sim.New(system)

	if cfg.Minimize {
		logrus.Infof("minimizing energy to tolerance %.3f", cfg.MinimizeTol)
		if err := simulation.MinimizeEnergy(cfg.MinimizeTol, 0); err != nil {
			return err
		}
	}

	series := report.NewSeriesReporter(cfg.Report.Interval, selection)
	if err := simulation.AddReporter(series); err != nil {
		return err
	}

	if cfg.Report.File != "" {
		f, err := os.Create(cfg.Report.File)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := simulation.AddReporter(report.NewStateReporter(f, cfg.Report.Interval, selection)); err != nil {
			return err
		}
	}

	if web {
		wr := report.NewWebReporter(cfg.Report.WebAddr, cfg.Report.Interval, selection)
		if err := wr.Start(); err != nil {
			return err
		}
		defer wr.Close()
		if err := simulation.AddReporter(wr); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logrus.Infof("running %s for %d steps (dt=%g, report every %d)",
		cfg.System, cfg.Steps, cfg.Dt, cfg.Report.Interval)
	start := time.Now()

	if live {
		liveRep, samples := tui.NewReporter(cfg.Report.Interval, selection)
		if err := simulation.AddReporter(liveRep); err != nil {
			return err
		}
		future := simulation.AsyncStep(ctx, cfg.Steps, nil)
		model := tui.NewModel(selection.Labels(), samples, future)
		if _, err := tea.NewProgram(model).Run(); err != nil {
			return err
		}
		if err := future.Wait(0); err != nil && err != context.Canceled {
			return err
		}
	} else {
		if err := simulation.Step(ctx, cfg.Steps); err != nil && err != context.Canceled {
			return err
		}
	}

	elapsed := time.Since(start)

	runID, err := st.Save(cfg.System, cfg.Dt, simulation.CurrentStep(), cfg.Report.Interval,
		selection.Labels(), series.Samples())
	if err != nil {
		return err
	}

	fmt.Printf("completed %d steps in %v\n", simulation.CurrentStep(), elapsed)
	fmt.Printf("run id: %s\n", runID)
	samples := series.Samples()
	if len(samples) > 0 {
		last := samples[len(samples)-1]
		fmt.Println("\nfinal observables:")
		for i, label := range selection.Labels() {
			fmt.Printf("  %s: %.6f\n", label, last.Values[i])
		}
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYSTEM\tSTEPS\tDT\tWHEN")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%g\t%s\n",
			run.ID, run.System, run.Steps, run.Dt, run.Timestamp.Format(time.RFC3339))
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	labels, samples, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return fmt.Errorf("run %s has too few samples to plot", args[0])
	}

	for i, label := range labels {
		col := make([]float64, len(samples))
		for j, s := range samples {
			col[j] = s.Values[i]
		}
		fmt.Println(label)
		fmt.Println(asciigraph.Plot(col, asciigraph.Height(10), asciigraph.Width(70)))
		fmt.Println()
	}
	return nil
}
