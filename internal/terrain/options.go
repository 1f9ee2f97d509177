package terrain

import (
	"github.com/Faultbox/depthmesh/internal/config"
	"github.com/Faultbox/depthmesh/internal/terrain/work"
)

// Z-exaggeration limits.
const (
	MinZExaggeration = 1.0
	MaxZExaggeration = 10.0
)

// Options configures a Model. Zero chunk sizes fall back to the defaults.
type Options struct {
	ModelSize       float64
	TargetPolygons  int
	CPUDisplacement bool

	ReferenceElevation *float64 // nil selects the max valid elevation
	ZExaggeration      float64

	ContoursEnabled   bool
	ContourInterval   float64
	ContourKeepInSync bool
	ContourBudget     int
	ContourSimplify   float64
	ContourOffset     float64
	ContourDivisor    int

	NormalStrength float64
	NormalMaxDim   int

	VertexChunk   int
	TriangleChunk int
	RowChunk      int

	Progress work.ProgressFunc
}

// OptionsFromConfig maps the configuration file onto model options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ModelSize:          cfg.Mesh.ModelSize,
		TargetPolygons:     cfg.Mesh.TargetPolygons,
		CPUDisplacement:    cfg.Mesh.CPUDisplacement,
		ReferenceElevation: cfg.Terrain.ReferenceElevation,
		ZExaggeration:      cfg.Terrain.ZExaggeration,
		ContoursEnabled:    cfg.Contours.Enabled,
		ContourInterval:    cfg.Contours.Interval,
		ContourKeepInSync:  cfg.Contours.KeepInSync,
		ContourBudget:      cfg.Contours.MaxVertices,
		ContourSimplify:    cfg.Contours.SimplifyTolerance,
		ContourOffset:      cfg.Contours.HeightOffset,
		ContourDivisor:     cfg.Contours.GridDivisor,
		NormalStrength:     cfg.Normals.Strength,
		NormalMaxDim:       cfg.Normals.MaxDim,
		VertexChunk:        cfg.Work.VertexChunk,
		TriangleChunk:      cfg.Work.TriangleChunk,
		RowChunk:           cfg.Work.RowChunk,
	}
}

// DefaultOptions returns the options of the default configuration.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

func (o *Options) fillDefaults() {
	d := config.Default()
	if o.ModelSize <= 0 {
		o.ModelSize = d.Mesh.ModelSize
	}
	if o.TargetPolygons <= 0 {
		o.TargetPolygons = d.Mesh.TargetPolygons
	}
	if o.ContourDivisor < 1 {
		o.ContourDivisor = 1
	}
	if o.NormalStrength == 0 {
		o.NormalStrength = d.Normals.Strength
	}
	if o.NormalMaxDim <= 0 {
		o.NormalMaxDim = d.Normals.MaxDim
	}
	if o.VertexChunk <= 0 {
		o.VertexChunk = d.Work.VertexChunk
	}
	if o.TriangleChunk <= 0 {
		o.TriangleChunk = d.Work.TriangleChunk
	}
	if o.RowChunk <= 0 {
		o.RowChunk = d.Work.RowChunk
	}
	o.ZExaggeration = clampExaggeration(o.ZExaggeration)
}

func clampExaggeration(v float64) float64 {
	return min(max(v, MinZExaggeration), MaxZExaggeration)
}
