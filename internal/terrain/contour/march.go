package contour

import (
	"math"

	vmath "github.com/Faultbox/depthmesh/pkg/math"
)

// Cell edges, clockwise from the top.
const (
	edgeTop = iota
	edgeRight
	edgeBottom
	edgeLeft
)

// edgePairs maps a corner code (bit 3 top-left, bit 2 top-right, bit 1
// bottom-right, bit 0 bottom-left; set when corner >= threshold) to the
// edge pairs that carry the line. Codes 0 and 15 have no crossing; the
// saddles 5 and 10 are resolved in cellSegments.
var edgePairs = [16][][2]int{
	1:  {{edgeLeft, edgeBottom}},
	2:  {{edgeBottom, edgeRight}},
	3:  {{edgeLeft, edgeRight}},
	4:  {{edgeTop, edgeRight}},
	6:  {{edgeTop, edgeBottom}},
	7:  {{edgeLeft, edgeTop}},
	8:  {{edgeLeft, edgeTop}},
	9:  {{edgeTop, edgeBottom}},
	11: {{edgeTop, edgeRight}},
	12: {{edgeLeft, edgeRight}},
	13: {{edgeBottom, edgeRight}},
	14: {{edgeLeft, edgeBottom}},
}

// Saddle resolutions, named after the two corners each pairing cuts off.
var (
	cutTLBR = [][2]int{{edgeLeft, edgeTop}, {edgeBottom, edgeRight}}
	cutTRBL = [][2]int{{edgeTop, edgeRight}, {edgeLeft, edgeBottom}}
)

// Point is a contour vertex. Edge identifies where it lies: the key of the
// grid edge it was interpolated on, or vertexKey when it falls exactly on a
// grid vertex. Two segments share an endpoint exactly when they share a key.
type Point struct {
	Pos  vmath.Vec3
	Edge int
}

// Segment is one raw marching-squares line piece.
type Segment struct {
	A, B Point
}

// marcher traces one threshold over a field.
type marcher struct {
	field     *Field
	normals   []vmath.Vec3
	threshold float64
	y         float64 // Displaced height of the threshold plane
	offset    float64

	// Vertex-to-vertex segments already emitted. A run of samples exactly at
	// the threshold is reached from the cells on both sides.
	onVertices map[[2]int]struct{}
}

// vertexKey is the endpoint key of grid vertex (i, j). It is negative so it
// never collides with an edge key.
func vertexKey(f *Field, i, j int) int {
	return -(j*f.Width + i + 1)
}

// March returns the raw segments of the iso-line at threshold. Points sit on
// the threshold plane (displaced by reference and heightScale) and are lifted
// by offset along the interpolated surface normal.
func March(f *Field, normals []vmath.Vec3, threshold, reference, heightScale, offset float64) []Segment {
	m := &marcher{
		field:     f,
		normals:   normals,
		threshold: threshold,
		y:         (threshold - reference) * heightScale,
		offset:    offset,
	}

	var segs []Segment
	for j := range f.Height - 1 {
		for i := range f.Width - 1 {
			segs = m.cell(segs, i, j)
		}
	}
	return segs
}

func (m *marcher) cell(segs []Segment, i, j int) []Segment {
	f := m.field
	tl, tr := f.At(i, j), f.At(i+1, j)
	br, bl := f.At(i+1, j+1), f.At(i, j+1)
	if math.IsNaN(tl) || math.IsNaN(tr) || math.IsNaN(br) || math.IsNaN(bl) {
		return segs
	}

	th := m.threshold
	code := 0
	if tl >= th {
		code |= 8
	}
	if tr >= th {
		code |= 4
	}
	if br >= th {
		code |= 2
	}
	if bl >= th {
		code |= 1
	}

	pairs := edgePairs[code]
	switch code {
	case 0, 15:
		return segs
	case 5:
		if (tl+tr+br+bl)/4 >= th {
			pairs = cutTLBR
		} else {
			pairs = cutTRBL
		}
	case 10:
		if (tl+tr+br+bl)/4 >= th {
			pairs = cutTRBL
		} else {
			pairs = cutTLBR
		}
	}

	for _, p := range pairs {
		a, b := m.crossing(i, j, p[0]), m.crossing(i, j, p[1])
		if a.Edge == b.Edge {
			continue
		}
		if a.Edge < 0 && b.Edge < 0 {
			key := [2]int{min(a.Edge, b.Edge), max(a.Edge, b.Edge)}
			if _, dup := m.onVertices[key]; dup {
				continue
			}
			if m.onVertices == nil {
				m.onVertices = make(map[[2]int]struct{})
			}
			m.onVertices[key] = struct{}{}
		}
		segs = append(segs, Segment{A: a, B: b})
	}
	return segs
}

// crossing interpolates the threshold along one edge of cell (i, j). Shared
// edges are always walked in the same direction (west to east, north to
// south) so neighbouring cells compute bit-identical points.
func (m *marcher) crossing(i, j, edge int) Point {
	f := m.field
	var ai, aj, bi, bj, key int
	switch edge {
	case edgeTop:
		ai, aj, bi, bj = i, j, i+1, j
		key = 2 * (j*f.Width + i)
	case edgeBottom:
		ai, aj, bi, bj = i, j+1, i+1, j+1
		key = 2 * ((j+1)*f.Width + i)
	case edgeLeft:
		ai, aj, bi, bj = i, j, i, j+1
		key = 2*(j*f.Width+i) + 1
	default:
		ai, aj, bi, bj = i+1, j, i+1, j+1
		key = 2*(j*f.Width+i+1) + 1
	}

	va, vb := f.At(ai, aj), f.At(bi, bj)
	t := 0.5
	if vb != va {
		t = vmath.Clamp((m.threshold-va)/(vb-va), 0, 1)
	}
	switch t {
	case 0:
		return m.vertex(ai, aj)
	case 1:
		return m.vertex(bi, bj)
	}

	pa, pb := f.Position(ai, aj), f.Position(bi, bj)
	na, nb := m.normals[aj*f.Width+ai], m.normals[bj*f.Width+bi]
	n := na.Lerp(nb, t).Normalize()

	pos := vmath.Vec3{
		X: vmath.Lerp(pa.X, pb.X, t),
		Y: m.y,
		Z: vmath.Lerp(pa.Z, pb.Z, t),
	}
	return Point{Pos: pos.Add(n.Scale(m.offset)), Edge: key}
}

// vertex places a crossing that falls exactly on grid vertex (i, j).
func (m *marcher) vertex(i, j int) Point {
	f := m.field
	p := f.Position(i, j)
	n := m.normals[j*f.Width+i].Normalize()
	pos := vmath.Vec3{X: p.X, Y: m.y, Z: p.Z}
	return Point{Pos: pos.Add(n.Scale(m.offset)), Edge: vertexKey(f, i, j)}
}
