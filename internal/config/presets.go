package config

var Presets = map[string]*Config{
	"chain": {
		System: "chain", Particles: 16, Dt: 0.002, Steps: 10000,
		BondK: 100.0, Spacing: 1.0, MinimizeTol: 10.0,
		Report: ReportConfig{
			Interval:    100,
			Observables: []string{"potential", "kinetic", "total"},
			WebAddr:     DefaultWebAddr,
		},
	},
	"pulling": {
		System: "chain", Particles: 24, Dt: 0.001, Steps: 50000,
		BondK: 200.0, Spacing: 1.0, Minimize: true, MinimizeTol: 5.0,
		Pulling: PullingConfig{Enabled: true, K: 1000.0, R0: 0.0},
		Report: ReportConfig{
			Interval:    250,
			Observables: []string{"potential", "total"},
			WebAddr:     DefaultWebAddr,
		},
	},
	"lj-fluid": {
		System: "lj-fluid", Particles: 64, Dt: 0.001, Steps: 20000,
		BoxEdge: 6.0, Minimize: true, MinimizeTol: 50.0,
		Report: ReportConfig{
			Interval:    200,
			Observables: []string{"potential", "kinetic", "total", "temperature", "density"},
			WebAddr:     DefaultWebAddr,
		},
	},
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
