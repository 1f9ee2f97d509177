package mesh

import (
	"context"
	"math"

	"github.com/Faultbox/depthmesh/internal/terrain/elevation"
	"github.com/Faultbox/depthmesh/internal/terrain/work"
)

// vertexClass flags, computed once per vertex before triangles are tested.
const (
	classNoData uint8 = 1 << iota
	classBelow
)

// Filter selects the visible subset of the original triangles.
type Filter struct {
	sampler *elevation.Sampler
	geom    *Geometry
	levels  Levels
	classes []uint8
	kept    []uint32
}

// NewFilter prepares a filter pass over g.
func NewFilter(s *elevation.Sampler, g *Geometry, lv Levels) *Filter {
	if s == nil {
		panic("mesh: nil sampler")
	}
	return &Filter{
		sampler: s,
		geom:    g,
		levels:  lv,
		classes: make([]uint8, g.VertexCount()),
		kept:    make([]uint32, 0, len(g.Indices)),
	}
}

// Chunker returns a resumable scan. Items [0, vertices) classify vertices,
// items after that test triangles, so classification always completes first.
func (f *Filter) Chunker(chunk int) *work.Chunker {
	nv := f.geom.VertexCount()
	total := nv + f.geom.TriangleCount()
	return work.NewChunker(work.StageFilter, total, chunk, func(lo, hi int) bool {
		for i := lo; i < hi; i++ {
			if i < nv {
				f.classify(i)
			} else {
				f.test(i - nv)
			}
		}
		return true
	})
}

// Indices returns the kept triangles. Only complete once the chunker is done.
func (f *Filter) Indices() []uint32 {
	return f.kept
}

func (f *Filter) classify(i int) {
	u, v := f.geom.SampleUV(i)
	elev := f.sampler.SampleBilinear(u, v)

	var c uint8
	if f.sampler.HasNearbyNoData(u, v) || math.IsNaN(elev) || math.IsInf(elev, 0) {
		c |= classNoData
	} else if elev < f.levels.Reference {
		c |= classBelow
	}
	f.classes[i] = c
}

// test keeps a triangle when none of its vertices is NoData and at least one
// lies below the reference.
func (f *Filter) test(t int) {
	tri := f.geom.Indices[3*t : 3*t+3]
	a, b, c := f.classes[tri[0]], f.classes[tri[1]], f.classes[tri[2]]

	if (a|b|c)&classNoData != 0 {
		return
	}
	if (a|b|c)&classBelow == 0 {
		return
	}
	f.kept = append(f.kept, tri...)
}

// FilterTriangles returns the visible triangles of g in original order.
func FilterTriangles(ctx context.Context, s *elevation.Sampler, g *Geometry, lv Levels, chunk int, progress work.ProgressFunc) ([]uint32, error) {
	f := NewFilter(s, g, lv)
	if err := work.Run(ctx, f.Chunker(chunk), progress); err != nil {
		return nil, err
	}
	return f.Indices(), nil
}
