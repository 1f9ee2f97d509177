// Package normals generates a lighting normal raster from an elevation grid.
//
// The raster is independent of mesh topology: one pixel per elevation sample,
// RGB holding the normal remapped from [-1, 1] to [0, 255] and alpha marking
// NoData (0) versus valid (255) cells. +X points east, +Y points north (image
// up) and +Z points out of the surface.
package normals

import (
	"context"
	"image"
	"math"

	"github.com/Faultbox/depthmesh/internal/terrain/elevation"
	"github.com/Faultbox/depthmesh/internal/terrain/work"
	vmath "github.com/Faultbox/depthmesh/pkg/math"
)

// Params controls the slope computation.
type Params struct {
	CellSizeX float64 // Real-world width of one raster column
	CellSizeY float64 // Real-world height of one raster row
	Strength  float64 // Slope multiplier; 1 is physically scaled
	RowChunk  int     // Rows processed per cooperative step
}

// flat is the normal for NoData cells.
var flat = vmath.Vec3{X: 0, Y: 0, Z: 1}

// Normal returns the surface normal at column x, row y. NoData neighbors are
// replaced by the center value; a NoData center yields the flat normal and
// ok=false.
func Normal(s *elevation.Sampler, x, y int, p Params) (n vmath.Vec3, ok bool) {
	g := s.Grid()
	center := g.At(x, y)
	if s.IsNoData(center) {
		return flat, false
	}

	fetch := func(nx, ny int) float64 {
		if nx < 0 || ny < 0 || nx >= g.Width || ny >= g.Height {
			return center
		}
		v := g.At(nx, ny)
		if s.IsNoData(v) {
			return center
		}
		return v
	}

	left, right := fetch(x-1, y), fetch(x+1, y)
	top, bottom := fetch(x, y-1), fetch(x, y+1)

	dzdx := (right - left) / (2 * p.CellSizeX) * p.Strength
	// Rows grow southward; flip so +Y is north
	dzdy := (top - bottom) / (2 * p.CellSizeY) * p.Strength

	v := vmath.Vec3{X: -dzdx, Y: -dzdy, Z: 1}
	return v.Normalize(), true
}

// Generator produces the normal raster row by row.
type Generator struct {
	sampler *elevation.Sampler
	params  Params
	img     *image.NRGBA
}

// NewGenerator prepares a raster the size of the sampler's grid.
func NewGenerator(s *elevation.Sampler, p Params) *Generator {
	if s == nil {
		panic("normals: nil sampler")
	}
	if !(p.CellSizeX > 0) {
		p.CellSizeX = 1
	}
	if !(p.CellSizeY > 0) {
		p.CellSizeY = 1
	}
	if p.Strength == 0 {
		p.Strength = 1
	}
	return &Generator{
		sampler: s,
		params:  p,
		img:     image.NewNRGBA(image.Rect(0, 0, s.Width(), s.Height())),
	}
}

// Chunker returns a resumable scan over raster rows.
func (g *Generator) Chunker() *work.Chunker {
	return work.NewChunker(work.StageNormals, g.sampler.Height(), g.params.RowChunk, func(lo, hi int) bool {
		for y := lo; y < hi; y++ {
			g.row(y)
		}
		return true
	})
}

// Image returns the raster. Only complete once the chunker is done.
func (g *Generator) Image() *image.NRGBA {
	return g.img
}

func (g *Generator) row(y int) {
	w := g.sampler.Width()
	pix := g.img.Pix[y*g.img.Stride : y*g.img.Stride+4*w]
	for x := range w {
		n, ok := Normal(g.sampler, x, y, g.params)
		pix[4*x] = encode(n.X)
		pix[4*x+1] = encode(n.Y)
		pix[4*x+2] = encode(n.Z)
		if ok {
			pix[4*x+3] = 255
		} else {
			pix[4*x+3] = 0
		}
	}
}

// Generate builds the full raster.
func Generate(ctx context.Context, s *elevation.Sampler, p Params, progress work.ProgressFunc) (*image.NRGBA, error) {
	g := NewGenerator(s, p)
	if err := work.Run(ctx, g.Chunker(), progress); err != nil {
		return nil, err
	}
	return g.Image(), nil
}

// Decode maps an encoded pixel back to a unit normal.
func Decode(r, g, b uint8) vmath.Vec3 {
	v := vmath.Vec3{X: decode(r), Y: decode(g), Z: decode(b)}
	return v.Normalize()
}

func encode(c float64) uint8 {
	return uint8(math.Round(vmath.Clamp(c*0.5+0.5, 0, 1) * 255))
}

func decode(c uint8) float64 {
	return float64(c)/255*2 - 1
}
