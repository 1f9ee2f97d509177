package mesh

import (
	"context"
	"math"
	"testing"

	"github.com/Faultbox/depthmesh/internal/terrain/elevation"
)

func flatSampler(t *testing.T, w, h int, value float64) *elevation.Sampler {
	t.Helper()
	data := make([]float64, w*h)
	for i := range data {
		data[i] = value
	}
	g, err := elevation.NewGrid(w, h, data)
	if err != nil {
		t.Fatalf("failed to build grid: %v", err)
	}
	return elevation.NewSampler(g, nil)
}

func rampSampler(t *testing.T, w, h int, lo, hi float64) *elevation.Sampler {
	t.Helper()
	data := make([]float64, w*h)
	for y := range h {
		for x := range w {
			data[y*w+x] = lo + (hi-lo)*float64(x)/float64(w-1)
		}
	}
	g, err := elevation.NewGrid(w, h, data)
	if err != nil {
		t.Fatalf("failed to build grid: %v", err)
	}
	return elevation.NewSampler(g, nil)
}

func TestPlanGrid(t *testing.T) {
	tests := []struct {
		name         string
		ew, eh       int
		valid        float64
		target       int
		wantW, wantH int
	}{
		{"square fits budget", 1000, 1000, 1, 2 * 99 * 99, 100, 100},
		{"half valid doubles quads", 1000, 1000, 0.5, 2 * 70 * 70, 100, 100},
		{"clamped to raster", 50, 40, 1, 1_000_000, 50, 40},
		{"tiny budget", 500, 500, 1, 2, 2, 2},
		{"one percent valid follows the budget", 1000, 1000, 0.01, 2000, 317, 317},
		{"all nodata clamps to raster", 300, 300, 0, 1000, 300, 300},
		{"nan fraction clamps to raster", 300, 300, math.NaN(), 1000, 300, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := PlanGrid(tt.ew, tt.eh, tt.valid, tt.target)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("PlanGrid() = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestPlanGridKeepsAspectAndLimits(t *testing.T) {
	w, h := PlanGrid(4000, 1000, 0.8, 200_000)
	if w < 2 || h < 2 || w > 4000 || h > 1000 {
		t.Fatalf("grid %dx%d outside limits", w, h)
	}
	ratio := float64(w-1) / float64(h-1)
	if math.Abs(ratio-4) > 0.1 {
		t.Errorf("expected aspect ~4, got %v", ratio)
	}
}

func TestModelExtent(t *testing.T) {
	w, d := ModelExtent(2, 2)
	if w != 2 || d != 1 {
		t.Errorf("expected 2x1 for wide source, got %vx%v", w, d)
	}
	w, d = ModelExtent(2, 0.5)
	if w != 1 || d != 2 {
		t.Errorf("expected 1x2 for tall source, got %vx%v", w, d)
	}
}

func TestBuildGeometry(t *testing.T) {
	g := BuildGeometry(4, 3, 3, 2)

	if g.VertexCount() != 12 {
		t.Errorf("expected 12 vertices, got %d", g.VertexCount())
	}
	if g.TriangleCount() != 2*3*2 {
		t.Errorf("expected 12 triangles, got %d", g.TriangleCount())
	}
	for _, idx := range g.Indices {
		if int(idx) >= g.VertexCount() {
			t.Fatalf("index %d out of range", idx)
		}
	}

	// First vertex is the north-west corner
	if g.Positions[0] != -1.5 || g.Positions[2] != -1 {
		t.Errorf("expected first vertex at (-1.5, -1), got (%v, %v)", g.Positions[0], g.Positions[2])
	}
	if g.UVs[0] != 0 || g.UVs[1] != 1 {
		t.Errorf("expected first UV (0, 1), got (%v, %v)", g.UVs[0], g.UVs[1])
	}
	u, v := g.SampleUV(g.VertexCount() - 1)
	if u != 1 || v != 1 {
		t.Errorf("expected last vertex to sample raster (1, 1), got (%v, %v)", u, v)
	}

	b := g.Bounds()
	if b.Min[0] != -1.5 || b.Max[0] != 1.5 || b.Min[2] != -1 || b.Max[2] != 1 {
		t.Errorf("unexpected bounds %+v", b)
	}
}

func TestColorForDepthEndpoints(t *testing.T) {
	r := DepthRange{Min: 0, Max: 100}

	if got := ColorForDepth(0, r); got != ColormapEntry(ColormapSize-1) {
		t.Errorf("expected min depth at the high end, got %v", got)
	}
	if got := ColorForDepth(100, r); got != ColormapEntry(0) {
		t.Errorf("expected max depth at the low end, got %v", got)
	}
	if got := ColorForDepth(1000, r); got != ColormapEntry(0) {
		t.Errorf("expected depth beyond range to clamp, got %v", got)
	}
}

func TestColorChannelsInUnitRange(t *testing.T) {
	r := DepthRange{Min: 0, Max: 37}
	for d := -10.0; d <= 50; d += 0.37 {
		c := ColorForDepth(d, r)
		for _, ch := range c {
			if ch < 0 || ch > 1 || math.IsNaN(float64(ch)) {
				t.Fatalf("channel %v out of range at depth %v", ch, d)
			}
		}
	}
}

func TestComputeColors(t *testing.T) {
	s := rampSampler(t, 11, 5, 0, 100)
	g := BuildGeometry(11, 5, 1, 1)
	lv := Levels{Reference: 50, Depth: DepthRange{0, 50}}

	colors, err := ComputeColors(context.Background(), s, g, lv, 7, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(colors) != 3*g.VertexCount() {
		t.Fatalf("expected %d floats, got %d", 3*g.VertexCount(), len(colors))
	}

	at := func(i int) [3]float32 { return [3]float32{colors[3*i], colors[3*i+1], colors[3*i+2]} }

	// Column 0 is elevation 0: deepest, low end of the table
	if got := at(0); got != ColormapEntry(0) {
		t.Errorf("expected deepest color, got %v", got)
	}
	// Column 5 is exactly the reference: gray
	if got := at(5); got != NoDataColor {
		t.Errorf("expected gray at the reference, got %v", got)
	}
	// Column 10 is above the reference: gray
	if got := at(10); got != NoDataColor {
		t.Errorf("expected gray above the reference, got %v", got)
	}
}

func TestFilterFlatBelowKeepsAll(t *testing.T) {
	s := flatSampler(t, 6, 6, 10)
	g := BuildGeometry(6, 6, 1, 1)
	lv := Levels{Reference: 20, Depth: DepthRange{0, 20}}

	idx, err := FilterTriangles(context.Background(), s, g, lv, 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(idx) != len(g.Indices) {
		t.Errorf("expected all %d indices kept, got %d", len(g.Indices), len(idx))
	}
}

func TestFilterFlatAboveDropsAll(t *testing.T) {
	s := flatSampler(t, 6, 6, 20)
	g := BuildGeometry(6, 6, 1, 1)

	for _, ref := range []float64{20, 10} {
		idx, err := FilterTriangles(context.Background(), s, g, Levels{Reference: ref}, 5, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(idx) != 0 {
			t.Errorf("reference %v: expected no triangles, got %d indices", ref, len(idx))
		}
	}
}

func TestFilterIsTriangleSubsequence(t *testing.T) {
	s := rampSampler(t, 20, 20, 0, 100)
	grid := s.Grid()
	for y := 8; y < 12; y++ {
		for x := 3; x < 6; x++ {
			grid.Data[y*20+x] = math.NaN()
		}
	}
	g := BuildGeometry(15, 15, 1, 1)

	idx, err := FilterTriangles(context.Background(), s, g, Levels{Reference: 60}, 64, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(idx)%3 != 0 {
		t.Fatalf("expected length divisible by 3, got %d", len(idx))
	}
	if len(idx) == 0 || len(idx) == len(g.Indices) {
		t.Fatalf("expected a partial triangle set, got %d of %d", len(idx), len(g.Indices))
	}

	// Kept triangles appear in original order
	next := 0
	for k := 0; k < len(idx); k += 3 {
		found := false
		for ; next < len(g.Indices); next += 3 {
			if g.Indices[next] == idx[k] && g.Indices[next+1] == idx[k+1] && g.Indices[next+2] == idx[k+2] {
				found = true
				next += 3
				break
			}
		}
		if !found {
			t.Fatalf("triangle %d is not an in-order original triangle", k/3)
		}
	}
	for _, i := range idx {
		if int(i) >= g.VertexCount() {
			t.Fatalf("index %d out of range", i)
		}
	}
}

func TestFilterChunkSizeDoesNotChangeResult(t *testing.T) {
	s := rampSampler(t, 16, 9, -20, 40)
	g := BuildGeometry(12, 7, 1, 1)
	lv := Levels{Reference: 10}

	want, _ := FilterTriangles(context.Background(), s, g, lv, 1_000_000, nil)
	for _, chunk := range []int{1, 3, 17} {
		got, _ := FilterTriangles(context.Background(), s, g, lv, chunk, nil)
		if len(got) != len(want) {
			t.Fatalf("chunk %d: expected %d indices, got %d", chunk, len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("chunk %d: index %d differs", chunk, i)
			}
		}
	}
}

func TestDisplace(t *testing.T) {
	s := rampSampler(t, 5, 5, 0, 40)
	s.Grid().Data[0] = math.NaN()
	g := BuildGeometry(5, 5, 1, 1)
	lv := Levels{Reference: 40, HeightScale: 0.01}

	normals, err := Displace(context.Background(), s, g, lv, 4, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := g.Positions[1]; got != 0 {
		t.Errorf("expected NoData vertex at Y=0, got %v", got)
	}
	// Column 2 of row 2 is elevation 20: (20-40)*0.01
	if got := g.Positions[3*12+1]; math.Abs(float64(got)+0.2) > 1e-6 {
		t.Errorf("expected Y -0.2, got %v", got)
	}

	for i := 0; i < len(normals); i += 3 {
		l := math.Sqrt(float64(normals[i]*normals[i] + normals[i+1]*normals[i+1] + normals[i+2]*normals[i+2]))
		if math.Abs(l-1) > 1e-4 {
			t.Fatalf("normal %d not unit length: %v", i/3, l)
		}
		if normals[i+1] <= 0 {
			t.Fatalf("normal %d points down: %v", i/3, normals[i:i+3])
		}
	}
}

func TestComputeNormalsFlat(t *testing.T) {
	g := BuildGeometry(3, 3, 1, 1)
	normals := ComputeNormals(g)
	for i := 0; i < len(normals); i += 3 {
		if normals[i] != 0 || normals[i+1] != 1 || normals[i+2] != 0 {
			t.Fatalf("expected up normal at vertex %d, got %v", i/3, normals[i:i+3])
		}
	}
}
