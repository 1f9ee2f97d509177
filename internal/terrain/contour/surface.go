package contour

import (
	"math"

	vmath "github.com/Faultbox/depthmesh/pkg/math"
)

// SurfaceNormals returns a model-space normal per field vertex using central
// differences of the displaced surface. NaN neighbors fall back to the center
// value; NaN vertices get Up. The Y component is always positive.
func SurfaceNormals(f *Field, heightScale float64) []vmath.Vec3 {
	normals := make([]vmath.Vec3, len(f.Values))

	for j := range f.Height {
		for i := range f.Width {
			c := f.At(i, j)
			if math.IsNaN(c) {
				normals[j*f.Width+i] = vmath.Up
				continue
			}

			fetch := func(ni, nj int) float64 {
				ni = min(max(ni, 0), f.Width-1)
				nj = min(max(nj, 0), f.Height-1)
				v := f.At(ni, nj)
				if math.IsNaN(v) {
					return c
				}
				return v
			}

			il, ir := max(i-1, 0), min(i+1, f.Width-1)
			jt, jb := max(j-1, 0), min(j+1, f.Height-1)

			dhdx := (fetch(ir, j) - fetch(il, j)) * heightScale / (float64(ir-il) * f.Dx)
			dhdz := (fetch(i, jb) - fetch(i, jt)) * heightScale / (float64(jb-jt) * f.Dz)

			n := vmath.Vec3{X: -dhdx, Y: 1, Z: -dhdz}
			normals[j*f.Width+i] = n.Normalize()
		}
	}
	return normals
}
