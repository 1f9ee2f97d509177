package mesh

import (
	"context"
	"math"

	"github.com/Faultbox/depthmesh/internal/terrain/elevation"
	"github.com/Faultbox/depthmesh/internal/terrain/work"
)

// VertexColor returns the color for one elevation sample.
func VertexColor(s *elevation.Sampler, elev float64, lv Levels) [3]float32 {
	if math.IsNaN(elev) || s.IsNoData(elev) || elev >= lv.Reference {
		return NoDataColor
	}
	return ColorForDepth(lv.Reference-elev, lv.Depth)
}

// ColorChunker returns a resumable scan writing RGB colors into out, which
// must hold 3 floats per vertex.
func ColorChunker(s *elevation.Sampler, g *Geometry, lv Levels, out []float32, chunk int) *work.Chunker {
	if s == nil {
		panic("mesh: nil sampler")
	}
	return work.NewChunker(work.StageColors, g.VertexCount(), chunk, func(lo, hi int) bool {
		for i := lo; i < hi; i++ {
			u, v := g.SampleUV(i)
			c := VertexColor(s, s.SampleBilinear(u, v), lv)
			copy(out[3*i:3*i+3], c[:])
		}
		return true
	})
}

// ComputeColors colors every vertex of g.
func ComputeColors(ctx context.Context, s *elevation.Sampler, g *Geometry, lv Levels, chunk int, progress work.ProgressFunc) ([]float32, error) {
	out := make([]float32, 3*g.VertexCount())
	if err := work.Run(ctx, ColorChunker(s, g, lv, out, chunk), progress); err != nil {
		return nil, err
	}
	return out, nil
}
