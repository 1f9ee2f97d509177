// Package elevation owns the raw elevation grid and answers bilinear and
// NoData-neighborhood queries against it.
package elevation

import (
	"fmt"
	"math"
)

const (
	// HoleThreshold marks samples at or above it as NoData. Downstream stages
	// inject holes with large sentinels rather than NaN.
	HoleThreshold = 1e5

	// DownsampleNoData is written for output cells whose interpolation
	// neighborhood touched NoData during downsampling.
	DownsampleNoData = 1e38
)

// Grid is a row-major elevation raster. Row 0 is north.
type Grid struct {
	Width  int
	Height int
	Data   []float64
}

// NewGrid validates dimensions and wraps data without copying.
func NewGrid(width, height int, data []float64) (*Grid, error) {
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("grid must be at least 2x2, got %dx%d", width, height)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("grid data length %d does not match %dx%d", len(data), width, height)
	}
	return &Grid{Width: width, Height: height, Data: data}, nil
}

// At returns the raw sample at column x, row y.
func (g *Grid) At(x, y int) float64 {
	return g.Data[y*g.Width+x]
}

// Sampler answers elevation queries over a Grid.
// The grid is replaced wholesale, never edited in place.
type Sampler struct {
	grid      *Grid
	noData    float64
	hasNoData bool
}

// NewSampler creates a sampler. noData may be nil when the raster declares
// no explicit NoData value.
func NewSampler(grid *Grid, noData *float64) *Sampler {
	if grid == nil {
		panic("elevation: nil grid")
	}
	s := &Sampler{grid: grid}
	if noData != nil {
		s.noData = *noData
		s.hasNoData = true
	}
	return s
}

// Grid returns the current grid.
func (s *Sampler) Grid() *Grid { return s.grid }

// Width returns the raster width in samples.
func (s *Sampler) Width() int { return s.grid.Width }

// Height returns the raster height in samples.
func (s *Sampler) Height() int { return s.grid.Height }

// NoDataValue returns the explicit NoData value, if any.
func (s *Sampler) NoDataValue() (float64, bool) {
	return s.noData, s.hasNoData
}

// IsNoData reports whether value marks a missing measurement.
func (s *Sampler) IsNoData(value float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return true
	}
	if value >= HoleThreshold {
		return true
	}
	return s.hasNoData && value == s.noData
}

// neighbors returns the four integer samples surrounding (u, v) and the
// fractional offsets within that cell. Order: top-left, top-right,
// bottom-left, bottom-right.
func (s *Sampler) neighbors(u, v float64) (q [4]float64, fx, fy float64) {
	w, h := s.grid.Width, s.grid.Height

	x := clampUnit(u) * float64(w-1)
	y := clampUnit(v) * float64(h-1)

	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x0 = min(max(x0, 0), w-1)
	y0 = min(max(y0, 0), h-1)
	x1 := min(x0+1, w-1)
	y1 := min(y0+1, h-1)

	q[0] = s.grid.At(x0, y0)
	q[1] = s.grid.At(x1, y0)
	q[2] = s.grid.At(x0, y1)
	q[3] = s.grid.At(x1, y1)
	return q, x - float64(x0), y - float64(y0)
}

// SampleBilinear returns the interpolated elevation at normalized raster
// coordinates (u, v), or NaN if any of the four neighbors is NoData.
func (s *Sampler) SampleBilinear(u, v float64) float64 {
	q, fx, fy := s.neighbors(u, v)
	for _, val := range q {
		if s.IsNoData(val) {
			return math.NaN()
		}
	}
	top := q[0]*(1-fx) + q[1]*fx
	bottom := q[2]*(1-fx) + q[3]*fx
	return top*(1-fy) + bottom*fy
}

// HasNearbyNoData reports whether any of the four samples a bilinear lookup
// at (u, v) touches is NoData. This mirrors what a GPU sampler reads, even
// where the scalar sample itself would be finite.
func (s *Sampler) HasNearbyNoData(u, v float64) bool {
	q, _, _ := s.neighbors(u, v)
	for _, val := range q {
		if s.IsNoData(val) {
			return true
		}
	}
	return false
}

// DownsampleToLimit resamples the grid so neither dimension exceeds maxDim.
// Output cells whose neighborhood touches NoData become DownsampleNoData, so
// holes are neither healed nor allowed to bleed into valid cells.
// It reports whether the grid was replaced.
func (s *Sampler) DownsampleToLimit(maxDim int) bool {
	w, h := s.grid.Width, s.grid.Height
	if maxDim < 2 || (w <= maxDim && h <= maxDim) {
		return false
	}

	scale := float64(maxDim) / float64(max(w, h))
	nw := max(2, min(maxDim, int(math.Round(float64(w)*scale))))
	nh := max(2, min(maxDim, int(math.Round(float64(h)*scale))))

	data := make([]float64, nw*nh)
	for y := range nh {
		v := float64(y) / float64(nh-1)
		for x := range nw {
			u := float64(x) / float64(nw-1)
			val := s.SampleBilinear(u, v)
			if math.IsNaN(val) {
				val = DownsampleNoData
			}
			data[y*nw+x] = val
		}
	}

	s.grid = &Grid{Width: nw, Height: nh, Data: data}
	return true
}

func clampUnit(x float64) float64 {
	if x < 0 || math.IsNaN(x) {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
