// Package contour extracts iso-elevation lines from the terrain with marching
// squares, chains them into polylines, simplifies them and enforces a global
// vertex budget.
package contour

import (
	"context"

	"go.uber.org/zap"

	"github.com/Faultbox/depthmesh/internal/logger"
	"github.com/Faultbox/depthmesh/internal/terrain/work"
	vmath "github.com/Faultbox/depthmesh/pkg/math"
)

// Options controls one generation run.
type Options struct {
	Reference         float64 // Waterline; thresholds step down from it
	MinElevation      float64 // Lowest valid elevation
	Interval          float64 // Elevation step between lines
	HeightScale       float64 // Model units per elevation unit
	HeightOffset      float64 // Lift along the surface normal
	SimplifyTolerance float64 // Douglas-Peucker tolerance in model units; 0 disables
	MaxVertices       int     // Global budget; 0 means unlimited
}

// Result is the flat line-segment output: every two XYZ triples form one
// segment. When Aborted is set the budget was exceeded and the geometry is
// incomplete; callers should discard it.
type Result struct {
	Segments    []float32
	VertexCount int
	Aborted     bool
	Thresholds  int // Thresholds fully processed
}

// Generator runs one threshold per step.
type Generator struct {
	field   *Field
	normals []vmath.Vec3
	count   int // Thresholds, derived one per step
	opts    Options
	result  Result
}

// NewGenerator derives thresholds and surface normals for f.
func NewGenerator(f *Field, opts Options) *Generator {
	return &Generator{
		field:   f,
		normals: SurfaceNormals(f, opts.HeightScale),
		count:   ThresholdCount(opts.Reference, opts.MinElevation, opts.Interval),
		opts:    opts,
	}
}

// ThresholdCount returns how many elevations this generator traces.
func (g *Generator) ThresholdCount() int {
	return g.count
}

// Threshold returns elevation k, shallowest first.
func (g *Generator) Threshold(k int) float64 {
	return ThresholdAt(g.opts.Reference, g.opts.Interval, k)
}

// Chunker returns a resumable scan, one threshold per step. It stops before
// the next threshold once the budget is exceeded.
func (g *Generator) Chunker() *work.Chunker {
	return work.NewChunker(work.StageContours, g.count, 1, func(lo, hi int) bool {
		for k := lo; k < hi; k++ {
			if !g.trace(g.Threshold(k)) {
				return false
			}
		}
		return true
	})
}

// Result returns the output accumulated so far.
func (g *Generator) Result() Result {
	return g.result
}

// trace adds one threshold and reports whether generation may continue.
func (g *Generator) trace(threshold float64) bool {
	raw := March(g.field, g.normals, threshold, g.opts.Reference, g.opts.HeightScale, g.opts.HeightOffset)
	lines := Chain(raw)

	emitted := 0
	for _, line := range lines {
		line = Simplify(line, g.opts.SimplifyTolerance)
		for k := 0; k+1 < len(line); k++ {
			g.result.Segments = appendPoint(g.result.Segments, line[k].Pos)
			g.result.Segments = appendPoint(g.result.Segments, line[k+1].Pos)
			emitted += 2
		}
	}
	g.result.VertexCount += emitted
	g.result.Thresholds++

	log := logger.Named("contour")
	log.Debug("threshold traced",
		zap.Float64("threshold", threshold),
		zap.Int("raw_segments", len(raw)),
		zap.Int("polylines", len(lines)),
		zap.Int("vertices", emitted))

	if g.opts.MaxVertices > 0 && g.result.VertexCount > g.opts.MaxVertices {
		g.result.Aborted = true
		log.Warn("vertex budget exceeded",
			zap.Int("vertices", g.result.VertexCount),
			zap.Int("budget", g.opts.MaxVertices),
			zap.Int("thresholds_done", g.result.Thresholds),
			zap.Int("thresholds_total", g.count))
		return false
	}
	return true
}

func appendPoint(buf []float32, p vmath.Vec3) []float32 {
	return append(buf, float32(p.X), float32(p.Y), float32(p.Z))
}

// Generate traces every threshold over f, or stops early on budget overrun.
func Generate(ctx context.Context, f *Field, opts Options, progress work.ProgressFunc) (Result, error) {
	g := NewGenerator(f, opts)
	if g.count == 0 {
		progress.Report(work.StageContours, 1)
		return Result{}, nil
	}
	if err := work.Run(ctx, g.Chunker(), progress); err != nil {
		return Result{}, err
	}
	return g.Result(), nil
}
