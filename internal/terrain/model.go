// Package terrain owns the elevation raster and keeps the derived mesh
// buffers and contour lines consistent with the reference elevation and
// vertical exaggeration.
//
// A Model is created from a decoded raster, built once, and then updated
// through its setters. Each setter re-derives exactly the outputs that depend
// on the changed state. Updates are serialized and a failed update leaves the
// previous outputs in place. Queries never wait on a running update, so a
// progress callback may read the model.
package terrain

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/depthmesh/internal/logger"
	"github.com/Faultbox/depthmesh/internal/terrain/contour"
	"github.com/Faultbox/depthmesh/internal/terrain/elevation"
	"github.com/Faultbox/depthmesh/internal/terrain/mesh"
	"github.com/Faultbox/depthmesh/internal/terrain/work"
)

// Model is the terrain orchestrator.
type Model struct {
	input   Input
	opts    Options
	sampler *elevation.Sampler
	stats   elevation.Stats
	bounds  [4]float64

	// Model rectangle, fixed at creation
	width, depth   float64
	realWorldScale float64

	// updateMu serializes Build and the setters and is held across progress
	// callbacks. Only its holder writes the fields below, and only while also
	// holding stateMu, so the holder reads them without stateMu.
	updateMu sync.Mutex
	stateMu  sync.RWMutex

	reference float64
	depthSpan mesh.DepthRange
	zExag     float64

	built   bool
	geom    *mesh.Geometry
	colors  []float32
	indices []uint32
	normals []float32 // Only with CPU displacement

	interval       float64
	budgetExceeded bool
	contours       contour.Result
}

// New validates in and analyzes the raster. The mesh is not built until Build.
func New(in Input, opts Options) (*Model, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	opts.fillDefaults()

	grid, err := elevation.NewGrid(in.Width, in.Height, in.Elevation)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	m := &Model{
		input:    in,
		opts:     opts,
		sampler:  elevation.NewSampler(grid, in.NoDataValue),
		bounds:   in.bounds(),
		zExag:    opts.ZExaggeration,
		interval: opts.ContourInterval,
	}
	m.stats = m.sampler.Analyze()

	geoW := m.bounds[2] - m.bounds[0]
	geoH := m.bounds[3] - m.bounds[1]
	m.width, m.depth = mesh.ModelExtent(opts.ModelSize, geoW/geoH)
	m.realWorldScale = geoW / m.width

	ref := 0.0
	if opts.ReferenceElevation != nil {
		ref = *opts.ReferenceElevation
	} else if m.stats.HasData() {
		ref = m.stats.Max
	}
	m.reference = ref
	m.depthSpan = m.depthRangeFor(ref)

	log := logger.Named("terrain")
	log.Debug("raster analyzed",
		zap.Int("width", in.Width),
		zap.Int("height", in.Height),
		zap.Int("valid", m.stats.Valid),
		zap.Float64("min", m.stats.Min),
		zap.Float64("max", m.stats.Max),
		zap.Float64("reference", m.reference))

	return m, nil
}

// depthRangeFor returns the colormap span below ref.
func (m *Model) depthRangeFor(ref float64) mesh.DepthRange {
	span := 1.0
	if m.stats.HasData() {
		span = max(1, math.Round(ref-m.stats.Min))
	}
	return mesh.DepthRange{Min: 0, Max: span}
}

func (m *Model) levelsFor(ref, zExag float64) mesh.Levels {
	return mesh.Levels{Reference: ref, Depth: m.depthRangeFor(ref), HeightScale: zExag / m.realWorldScale}
}

// heightScale needs stateMu or updateMu.
func (m *Model) heightScale() float64 {
	return m.zExag / m.realWorldScale
}

// Build plans the mesh grid, builds its geometry and derives colors, visible
// triangles and (when enabled) contours. Nothing is published on error.
func (m *Model) Build(ctx context.Context) error {
	m.updateMu.Lock()
	defer m.updateMu.Unlock()

	start := time.Now()
	gw, gh := mesh.PlanGrid(m.input.Width, m.input.Height, m.stats.ValidFraction(), m.opts.TargetPolygons)
	geom := mesh.BuildGeometry(gw, gh, m.width, m.depth)

	lv := m.levelsFor(m.reference, m.zExag)
	d, err := m.derive(ctx, geom, lv)
	if err != nil {
		return err
	}

	var res contour.Result
	if m.opts.ContoursEnabled {
		if res, err = m.traceContours(ctx, geom, m.reference, lv.HeightScale, m.interval); err != nil {
			return err
		}
	}

	m.stateMu.Lock()
	m.commit(d)
	if m.opts.ContoursEnabled {
		m.contours, m.budgetExceeded = res, res.Aborted
	}
	m.built = true
	m.stateMu.Unlock()

	logger.Named("terrain").Info("built",
		zap.Int("grid_width", gw),
		zap.Int("grid_height", gh),
		zap.Int("triangles", geom.TriangleCount()),
		zap.Int("visible", len(d.indices)/3),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// derived holds one consistent set of vertex outputs.
type derived struct {
	geom    *mesh.Geometry
	colors  []float32
	indices []uint32
	normals []float32
}

// commit publishes d. The caller holds both locks.
func (m *Model) commit(d derived) {
	m.geom = d.geom
	m.colors, m.indices, m.normals = d.colors, d.indices, d.normals
}

// derive recomputes colors and the filtered index buffer concurrently, then
// CPU displacement when enabled. geom is not modified; displacement works on
// a copy of its positions.
func (m *Model) derive(ctx context.Context, geom *mesh.Geometry, lv mesh.Levels) (derived, error) {
	d := derived{geom: geom}
	progress := work.Synchronized(m.opts.Progress)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.colors, err = mesh.ComputeColors(gctx, m.sampler, geom, lv, m.opts.VertexChunk, progress)
		return err
	})
	g.Go(func() error {
		var err error
		d.indices, err = mesh.FilterTriangles(gctx, m.sampler, geom, lv, m.opts.TriangleChunk, progress)
		return err
	})
	if err := g.Wait(); err != nil {
		return derived{}, fmt.Errorf("derive vertex buffers: %w", err)
	}

	if m.opts.CPUDisplacement {
		var err error
		d.geom, d.normals, err = m.displace(ctx, geom, lv)
		if err != nil {
			return derived{}, err
		}
	}
	return d, nil
}

func (m *Model) displace(ctx context.Context, geom *mesh.Geometry, lv mesh.Levels) (*mesh.Geometry, []float32, error) {
	moved := *geom
	moved.Positions = slices.Clone(geom.Positions)
	normals, err := mesh.Displace(ctx, m.sampler, &moved, lv, m.opts.VertexChunk, m.opts.Progress)
	if err != nil {
		return nil, nil, fmt.Errorf("displace vertices: %w", err)
	}
	return &moved, normals, nil
}

// regenerateContours traces contours at interval with the current levels,
// then publishes the interval, the result and whether the budget blocked it.
func (m *Model) regenerateContours(ctx context.Context, interval float64) error {
	res, err := m.traceContours(ctx, m.geom, m.reference, m.heightScale(), interval)
	if err != nil {
		return err
	}

	m.stateMu.Lock()
	m.interval = interval
	m.contours, m.budgetExceeded = res, res.Aborted
	m.stateMu.Unlock()
	return nil
}

// traceContours samples the contour field from the grid of geom reduced by
// the contour divisor and traces it.
func (m *Model) traceContours(ctx context.Context, geom *mesh.Geometry, ref, heightScale, interval float64) (contour.Result, error) {
	if !m.stats.HasData() {
		m.opts.Progress.Report(work.StageContours, 1)
		return contour.Result{}, nil
	}

	// The fraction is unknown until thresholds are counted
	m.opts.Progress.Indeterminate(work.StageContours)
	gw := max(geom.GridWidth/m.opts.ContourDivisor, 2)
	gh := max(geom.GridHeight/m.opts.ContourDivisor, 2)
	field := contour.NewField(m.sampler, gw, gh, m.width, m.depth)

	start := time.Now()
	res, err := contour.Generate(ctx, field, contour.Options{
		Reference:         ref,
		MinElevation:      m.stats.Min,
		Interval:          interval,
		HeightScale:       heightScale,
		HeightOffset:      m.opts.ContourOffset,
		SimplifyTolerance: m.opts.ContourSimplify,
		MaxVertices:       m.opts.ContourBudget,
	}, m.opts.Progress)
	if err != nil {
		return contour.Result{}, fmt.Errorf("generate contours: %w", err)
	}

	logger.Named("terrain").Debug("contours generated",
		zap.Float64("interval", interval),
		zap.Int("grid_width", gw),
		zap.Int("grid_height", gh),
		zap.Int("vertices", res.VertexCount),
		zap.Bool("aborted", res.Aborted),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}
