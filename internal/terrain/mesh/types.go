// Package mesh builds the triangulated terrain grid and derives its per-vertex
// colors, visible triangle set and (when no shader displaces it) vertex heights.
package mesh

import "math"

// DepthRange is the [Min, Max] depth span mapped onto the colormap.
type DepthRange struct {
	Min float64
	Max float64
}

// Levels is the vertical state shared by coloring, filtering and displacement.
type Levels struct {
	Reference   float64    // Waterline; samples at or above it are not terrain
	Depth       DepthRange // Drives the colormap
	HeightScale float64    // Model units per elevation unit
}

// Bounds holds an axis-aligned bounding box in model space.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Geometry is the flat vertex grid. Positions are xyz, UVs are uv, and
// Indices covers every quad with two triangles. Y positions stay zero unless
// Displace writes them.
type Geometry struct {
	GridWidth  int
	GridHeight int
	Width      float64 // Model extent along X
	Depth      float64 // Model extent along Z
	Positions  []float32
	UVs        []float32
	Indices    []uint32
}

// VertexCount returns the number of grid vertices.
func (g *Geometry) VertexCount() int {
	return g.GridWidth * g.GridHeight
}

// TriangleCount returns the number of triangles in the original index buffer.
func (g *Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// SampleUV returns the raster coordinates for vertex i. The stored V runs
// south to north, the raster runs north to south, so V is flipped.
func (g *Geometry) SampleUV(i int) (u, v float64) {
	return float64(g.UVs[2*i]), 1 - float64(g.UVs[2*i+1])
}

// Bounds returns the bounding box of the current positions.
func (g *Geometry) Bounds() Bounds {
	b := Bounds{
		Min: [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
	for i := 0; i+2 < len(g.Positions); i += 3 {
		for k := range 3 {
			p := g.Positions[i+k]
			if p < b.Min[k] {
				b.Min[k] = p
			}
			if p > b.Max[k] {
				b.Max[k] = p
			}
		}
	}
	return b
}
