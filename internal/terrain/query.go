package terrain

import (
	"math"

	"github.com/Faultbox/depthmesh/internal/terrain/contour"
	"github.com/Faultbox/depthmesh/internal/terrain/elevation"
	"github.com/Faultbox/depthmesh/internal/terrain/mesh"
)

// Surface is the read-only view that tools use to query the terrain.
type Surface interface {
	SampleElevationAt(u, v float64) float64
	HeightAtLocalPosition(x, z float64) (float64, bool)
	LocalToGeo(x, z float64) (gx, gy float64)
	GeoToLocal(gx, gy float64) (x, z float64)
	ZExaggeration() float64
	RealWorldScale() float64
}

var _ Surface = (*Model)(nil)

// SampleElevationAt returns the bilinear elevation at raster coordinates
// (u, v) in [0,1], v=0 north. NaN means NoData.
func (m *Model) SampleElevationAt(u, v float64) float64 {
	return m.sampler.SampleBilinear(u, v)
}

// HeightAtLocalPosition returns the displaced Y of the surface under model
// position (x, z). ok is false outside the model or over NoData.
func (m *Model) HeightAtLocalPosition(x, z float64) (y float64, ok bool) {
	u := x/m.width + 0.5
	v := z/m.depth + 0.5
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return 0, false
	}
	elev := m.sampler.SampleBilinear(u, v)
	if math.IsNaN(elev) {
		return 0, false
	}

	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return (elev - m.reference) * m.heightScale(), true
}

// LocalToGeo converts a model XZ position to geographic coordinates.
func (m *Model) LocalToGeo(x, z float64) (gx, gy float64) {
	b := m.bounds
	gx = b[0] + (x/m.width+0.5)*(b[2]-b[0])
	gy = b[3] - (z/m.depth+0.5)*(b[3]-b[1])
	return gx, gy
}

// GeoToLocal converts geographic coordinates to a model XZ position.
func (m *Model) GeoToLocal(gx, gy float64) (x, z float64) {
	b := m.bounds
	x = ((gx-b[0])/(b[2]-b[0]) - 0.5) * m.width
	z = ((b[3]-gy)/(b[3]-b[1]) - 0.5) * m.depth
	return x, z
}

// ZExaggeration returns the current vertical exaggeration.
func (m *Model) ZExaggeration() float64 {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.zExag
}

// RealWorldScale returns real-world units per model unit.
func (m *Model) RealWorldScale() float64 {
	return m.realWorldScale
}

// HeightScale returns model units per elevation unit.
func (m *Model) HeightScale() float64 {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.heightScale()
}

// ReferenceElevation returns the current waterline.
func (m *Model) ReferenceElevation() float64 {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.reference
}

// DepthRange returns the depth span mapped onto the colormap.
func (m *Model) DepthRange() mesh.DepthRange {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.depthSpan
}

// Stats returns the raster statistics gathered at creation.
func (m *Model) Stats() elevation.Stats {
	return m.stats
}

// ModelExtent returns the model rectangle size along X and Z.
func (m *Model) ModelExtent() (width, depth float64) {
	return m.width, m.depth
}

// Buffers is everything a renderer needs to draw the mesh. Normals is nil
// unless vertices are displaced on the CPU; otherwise the renderer displaces
// Y itself with (elevation - Reference) * HeightScale.
type Buffers struct {
	Positions   []float32
	UVs         []float32
	Colors      []float32
	Indices     []uint32
	Normals     []float32
	Reference   float64
	HeightScale float64
}

// Buffers returns the current render buffers. They are replaced, never
// mutated, by later updates.
func (m *Model) Buffers() (Buffers, error) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	if !m.built {
		return Buffers{}, ErrNotBuilt
	}
	return Buffers{
		Positions:   m.geom.Positions,
		UVs:         m.geom.UVs,
		Colors:      m.colors,
		Indices:     m.indices,
		Normals:     m.normals,
		Reference:   m.reference,
		HeightScale: m.heightScale(),
	}, nil
}

// MeshStats summarizes the built mesh.
type MeshStats struct {
	GridWidth        int
	GridHeight       int
	Vertices         int
	Triangles        int
	VisibleTriangles int
	Bounds           mesh.Bounds
}

// MeshStats returns counts and bounds of the current mesh.
func (m *Model) MeshStats() (MeshStats, error) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	if !m.built {
		return MeshStats{}, ErrNotBuilt
	}
	return MeshStats{
		GridWidth:        m.geom.GridWidth,
		GridHeight:       m.geom.GridHeight,
		Vertices:         m.geom.VertexCount(),
		Triangles:        m.geom.TriangleCount(),
		VisibleTriangles: len(m.indices) / 3,
		Bounds:           m.geom.Bounds(),
	}, nil
}

// Contours returns the last generated contour result.
func (m *Model) Contours() (contour.Result, error) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	if !m.built {
		return contour.Result{}, ErrNotBuilt
	}
	return m.contours, nil
}

// ContourInterval returns the current contour spacing.
func (m *Model) ContourInterval() float64 {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.interval
}

// ContourBudgetExceeded reports whether the last run hit the vertex budget.
func (m *Model) ContourBudgetExceeded() bool {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.budgetExceeded
}
