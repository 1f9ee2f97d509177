package mesh

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/depthmesh/internal/terrain/elevation"
	"github.com/Faultbox/depthmesh/internal/terrain/work"
)

// VertexHeight returns the displaced Y of an elevation sample. NoData sits
// on the reference plane.
func VertexHeight(s *elevation.Sampler, elev float64, lv Levels) float32 {
	if math.IsNaN(elev) || s.IsNoData(elev) {
		return 0
	}
	return float32((elev - lv.Reference) * lv.HeightScale)
}

// Displace writes Y positions into g and recomputes vertex normals. It is the
// CPU stand-in for shader displacement and produces the same surface.
func Displace(ctx context.Context, s *elevation.Sampler, g *Geometry, lv Levels, chunk int, progress work.ProgressFunc) ([]float32, error) {
	if s == nil {
		panic("mesh: nil sampler")
	}
	err := work.Range(ctx, work.StageDisplace, g.VertexCount(), chunk, progress, func(i int) {
		u, v := g.SampleUV(i)
		g.Positions[3*i+1] = VertexHeight(s, s.SampleBilinear(u, v), lv)
	})
	if err != nil {
		return nil, err
	}
	return ComputeNormals(g), nil
}

// ComputeNormals returns area-weighted vertex normals for the full grid.
func ComputeNormals(g *Geometry) []float32 {
	n := g.VertexCount()
	acc := make([]mgl32.Vec3, n)

	pos := func(i uint32) mgl32.Vec3 {
		return mgl32.Vec3{g.Positions[3*i], g.Positions[3*i+1], g.Positions[3*i+2]}
	}

	for t := 0; t+2 < len(g.Indices); t += 3 {
		ia, ib, ic := g.Indices[t], g.Indices[t+1], g.Indices[t+2]
		a, b, c := pos(ia), pos(ib), pos(ic)
		// Unnormalized cross product weights each face by its area
		face := c.Sub(b).Cross(a.Sub(b))
		acc[ia] = acc[ia].Add(face)
		acc[ib] = acc[ib].Add(face)
		acc[ic] = acc[ic].Add(face)
	}

	normals := make([]float32, 3*n)
	for i, v := range acc {
		if v.Len() < 1e-12 {
			v = mgl32.Vec3{0, 1, 0}
		} else {
			v = v.Normalize()
		}
		copy(normals[3*i:3*i+3], v[:])
	}
	return normals
}
