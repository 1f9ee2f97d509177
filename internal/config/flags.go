package config

import "flag"

var (
	flagConfig         = flag.String("config", "", "Path to config file")
	flagDebug          = flag.Bool("debug", false, "Enable debug logging")
	flagInterval       = flag.Float64("interval", 0, "Contour interval in elevation units")
	flagReference      = flag.Float64("reference", 0, "Reference elevation (waterline)")
	flagExaggeration   = flag.Float64("exaggeration", 0, "Vertical exaggeration factor")
	flagTargetPolygons = flag.Int("target-polygons", 0, "Triangle budget for the mesh grid")
	flagOut            = flag.String("out", "", "Output directory")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the positional arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagInterval > 0 {
		cfg.Contours.Interval = *flagInterval
	}
	if isFlagSet("reference") {
		ref := *flagReference
		cfg.Terrain.ReferenceElevation = &ref
	}
	if *flagExaggeration > 0 {
		cfg.Terrain.ZExaggeration = *flagExaggeration
	}
	if *flagTargetPolygons > 0 {
		cfg.Mesh.TargetPolygons = *flagTargetPolygons
	}
	if *flagOut != "" {
		cfg.Output.Dir = *flagOut
	}
}

// isFlagSet reports whether a flag was given explicitly. A zero reference
// elevation is a legitimate sea-level waterline, so the zero value can't mean unset.
func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
