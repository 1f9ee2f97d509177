package contour

import (
	"github.com/Faultbox/depthmesh/internal/terrain/elevation"
	vmath "github.com/Faultbox/depthmesh/pkg/math"
)

// Field is the elevation sampled on the contour grid, laid out like the mesh:
// centered on the origin in XZ, row 0 north.
type Field struct {
	Width  int // Grid columns
	Height int // Grid rows
	Values []float64
	X0, Z0 float64 // Model position of column 0, row 0
	Dx, Dz float64 // Model spacing between columns and rows
}

// NewField samples s on a gridWidth x gridHeight grid spanning a
// width x depth model rectangle. NoData samples are NaN.
func NewField(s *elevation.Sampler, gridWidth, gridHeight int, width, depth float64) *Field {
	if s == nil {
		panic("contour: nil sampler")
	}
	gridWidth = max(gridWidth, 2)
	gridHeight = max(gridHeight, 2)

	f := &Field{
		Width:  gridWidth,
		Height: gridHeight,
		Values: make([]float64, gridWidth*gridHeight),
		X0:     -width / 2,
		Z0:     -depth / 2,
		Dx:     width / float64(gridWidth-1),
		Dz:     depth / float64(gridHeight-1),
	}
	for j := range gridHeight {
		v := float64(j) / float64(gridHeight-1)
		for i := range gridWidth {
			u := float64(i) / float64(gridWidth-1)
			f.Values[j*gridWidth+i] = s.SampleBilinear(u, v)
		}
	}
	return f
}

// At returns the sampled elevation at column i, row j.
func (f *Field) At(i, j int) float64 {
	return f.Values[j*f.Width+i]
}

// Position returns the model-space XZ of grid vertex (i, j).
func (f *Field) Position(i, j int) vmath.Vec2 {
	return vmath.Vec2{X: f.X0 + float64(i)*f.Dx, Z: f.Z0 + float64(j)*f.Dz}
}
