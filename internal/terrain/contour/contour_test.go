package contour

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/Faultbox/depthmesh/internal/terrain/elevation"
	"github.com/Faultbox/depthmesh/internal/terrain/work"
	vmath "github.com/Faultbox/depthmesh/pkg/math"
)

// fieldFrom builds a unit-square field directly from a value function.
func fieldFrom(w, h int, fn func(i, j int) float64) *Field {
	f := &Field{
		Width:  w,
		Height: h,
		Values: make([]float64, w*h),
		X0:     -0.5,
		Z0:     -0.5,
		Dx:     1 / float64(w-1),
		Dz:     1 / float64(h-1),
	}
	for j := range h {
		for i := range w {
			f.Values[j*w+i] = fn(i, j)
		}
	}
	return f
}

func hill(i, j int) float64 {
	dx, dz := float64(i-10), float64(j-10)
	return 100 * math.Exp(-(dx*dx+dz*dz)/32)
}

func samplerFrom(t *testing.T, w, h int, fn func(x, y int) float64) *elevation.Sampler {
	t.Helper()
	data := make([]float64, w*h)
	for y := range h {
		for x := range w {
			data[y*w+x] = fn(x, y)
		}
	}
	g, err := elevation.NewGrid(w, h, data)
	if err != nil {
		t.Fatalf("failed to build grid: %v", err)
	}
	return elevation.NewSampler(g, nil)
}

// coordDegrees counts segment endpoints per exact XZ coordinate.
func coordDegrees(segs []Segment) map[string]int {
	deg := make(map[string]int)
	key := func(p Point) string { return fmt.Sprintf("%.12f,%.12f", p.Pos.X, p.Pos.Z) }
	for _, s := range segs {
		deg[key(s.A)]++
		deg[key(s.B)]++
	}
	return deg
}

func flatNormals(f *Field) []vmath.Vec3 {
	n := make([]vmath.Vec3, len(f.Values))
	for i := range n {
		n[i] = vmath.Up
	}
	return n
}

func TestThresholds(t *testing.T) {
	tests := []struct {
		name     string
		ref, min float64
		interval float64
		want     []float64
	}{
		{"ramp", 100, 0, 10, []float64{90, 80, 70, 60, 50, 40, 30, 20, 10}},
		{"partial step", 100, 73, 10, []float64{90, 80}},
		{"interval larger than range", 100, 95, 10, nil},
		{"flat", 50, 50, 5, nil},
		{"zero interval", 100, 0, 0, nil},
		{"negative elevations", -10, -45, 10, []float64{-20, -30, -40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Thresholds(tt.ref, tt.min, tt.interval)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("threshold %d: expected %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestThresholdCountTinyInterval(t *testing.T) {
	tests := []struct {
		name     string
		ref, min float64
		interval float64
		want     int
	}{
		{"nano interval", 100, 0, 1e-9, 99_999_999_999},
		{"capped", 1e300, 0, 1e-300, maxThresholds},
		{"infinite interval", 100, 0, math.Inf(1), 0},
		{"nan reference", math.NaN(), 0, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ThresholdCount(tt.ref, tt.min, tt.interval)
			if tt.want > 1000 && math.Abs(float64(got-tt.want)) > 1 {
				t.Errorf("expected about %d, got %d", tt.want, got)
			} else if tt.want <= 1000 && got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
			if got > 0 && !(ThresholdAt(tt.ref, tt.interval, got-1) > tt.min) {
				t.Errorf("expected last threshold above %v, got %v", tt.min, ThresholdAt(tt.ref, tt.interval, got-1))
			}
		})
	}
}

func TestGenerateTinyIntervalAbortsOnBudget(t *testing.T) {
	f := fieldFrom(21, 21, hill)
	done := make(chan Result, 1)
	go func() {
		res, err := Generate(context.Background(), f, Options{
			Reference: 100, MinElevation: 0, Interval: 1e-9, HeightScale: 0.01, MaxVertices: 100,
		}, nil)
		if err != nil {
			t.Error(err)
		}
		done <- res
	}()

	select {
	case res := <-done:
		if !res.Aborted {
			t.Errorf("expected budget abort, got %+v", res)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("expected generation to stop at the vertex budget")
	}
}

func TestThresholdsFractionalInterval(t *testing.T) {
	got := Thresholds(1, 0, 0.1)
	if len(got) != 9 {
		t.Fatalf("expected 9 thresholds, got %d: %v", len(got), got)
	}
	if math.Abs(got[8]-0.1) > 1e-9 {
		t.Errorf("expected last threshold 0.1, got %v", got[8])
	}
}

func TestMarchClosedHillHasDegreeTwo(t *testing.T) {
	f := fieldFrom(21, 21, hill)
	for _, th := range []float64{12.37, 48.91, 83.3} {
		segs := March(f, flatNormals(f), th, 100, 0.01, 0)
		if len(segs) == 0 {
			t.Fatalf("threshold %v: expected segments", th)
		}
		for k, d := range coordDegrees(segs) {
			if d != 2 {
				t.Errorf("threshold %v: endpoint %s has degree %d, want 2", th, k, d)
			}
		}
		for k, d := range Degrees(segs) {
			if d != 2 {
				t.Errorf("threshold %v: edge %d has degree %d, want 2", th, k, d)
			}
		}
	}
}

func TestMarchBoundaryDegrees(t *testing.T) {
	// Off-center hill clipped by the grid edge
	f := fieldFrom(15, 15, func(i, j int) float64 { return hill(i+6, j+3) })
	segs := March(f, flatNormals(f), 31.7, 100, 0.01, 0)
	if len(segs) == 0 {
		t.Fatal("expected segments")
	}

	ones := 0
	for k, d := range coordDegrees(segs) {
		if d < 1 || d > 2 {
			t.Errorf("endpoint %s has degree %d", k, d)
		}
		if d == 1 {
			ones++
		}
	}
	if ones == 0 {
		t.Error("expected open ends at the grid boundary")
	}
}

func TestMarchExactThresholdOnVertices(t *testing.T) {
	// Integer pyramid: the 95 contour runs through grid vertices
	f := fieldFrom(13, 13, func(i, j int) float64 {
		return 100 - math.Abs(float64(i-6)) - math.Abs(float64(j-6))
	})
	segs := March(f, SurfaceNormals(f, 0.01), 95, 100, 0.01, 0.001)
	if len(segs) == 0 {
		t.Fatal("expected segments")
	}

	for k, s := range segs {
		if s.A.Pos == s.B.Pos || s.A.Edge == s.B.Edge {
			t.Fatalf("segment %d has zero length", k)
		}
	}
	for k, d := range coordDegrees(segs) {
		if d != 2 {
			t.Errorf("endpoint %s has degree %d, want 2", k, d)
		}
	}
	for k, d := range Degrees(segs) {
		if d != 2 {
			t.Errorf("key %d has degree %d, want 2", k, d)
		}
	}

	// The diamond has 20 vertices at 95, joined corner to corner
	if len(segs) != 20 {
		t.Errorf("expected 20 segments, got %d", len(segs))
	}
	lines := Chain(segs)
	if len(lines) != 1 || !lines[0].Closed() {
		t.Errorf("expected a single closed loop, got %d lines", len(lines))
	}
}

func TestMarchRidgeAtThresholdIsTracedOnce(t *testing.T) {
	f := fieldFrom(6, 7, func(i, j int) float64 {
		if j == 3 {
			return 50
		}
		return 40
	})
	segs := March(f, flatNormals(f), 50, 50, 1, 0)
	if len(segs) != 5 {
		t.Fatalf("expected 5 ridge segments, got %d", len(segs))
	}

	deg := coordDegrees(segs)
	for k, d := range deg {
		if d > 2 {
			t.Errorf("endpoint %s has degree %d", k, d)
		}
	}
	lines := Chain(segs)
	if len(lines) != 1 || len(lines[0]) != 6 {
		t.Errorf("expected one open line of 6 points, got %v", len(lines))
	}
}

func TestMarchSkipsNaNCells(t *testing.T) {
	f := fieldFrom(3, 3, func(i, j int) float64 { return float64(i * 10) })
	f.Values[0] = math.NaN()

	segs := March(f, flatNormals(f), 5, 20, 1, 0)
	// Only the lower-left cell touches the crossing without NaN
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	for _, p := range []Point{segs[0].A, segs[0].B} {
		if math.IsNaN(p.Pos.X) || math.IsNaN(p.Pos.Y) || math.IsNaN(p.Pos.Z) {
			t.Fatalf("NaN in contour point %+v", p)
		}
	}
}

func TestSaddleResolution(t *testing.T) {
	// Top-left and bottom-right high, others low
	tests := []struct {
		name      string
		low       float64
		wantEdges [2][2]int
	}{
		// Center average 52.5 >= 50: high corners join, low corners are cut off
		{"center above", 5, [2][2]int{{edgeTop, edgeRight}, {edgeLeft, edgeBottom}}},
		// Center average 47.5 < 50: high corners are cut off
		{"center below", -5, [2][2]int{{edgeLeft, edgeTop}, {edgeBottom, edgeRight}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fieldFrom(2, 2, func(i, j int) float64 {
				if i == j {
					return 100
				}
				return tt.low
			})
			segs := March(f, flatNormals(f), 50, 100, 1, 0)
			if len(segs) != 2 {
				t.Fatalf("expected 2 segments, got %d", len(segs))
			}

			edgeOf := func(p Point) int {
				switch p.Edge {
				case 0:
					return edgeTop
				case 1:
					return edgeLeft
				case 4:
					return edgeBottom
				default:
					return edgeRight
				}
			}
			for k, s := range segs {
				got := [2]int{edgeOf(s.A), edgeOf(s.B)}
				if got != tt.wantEdges[k] {
					t.Errorf("segment %d: expected edges %v, got %v", k, tt.wantEdges[k], got)
				}
			}
		})
	}
}

func TestMarchNormalOffsetLiftsPoints(t *testing.T) {
	f := fieldFrom(21, 21, hill)
	normals := SurfaceNormals(f, 0.01)
	th, ref, hs := 40.0, 100.0, 0.01
	plane := (th - ref) * hs

	segs := March(f, normals, th, ref, hs, 0.005)
	for _, s := range segs {
		for _, p := range []Point{s.A, s.B} {
			if p.Pos.Y <= plane {
				t.Fatalf("expected point above the threshold plane %v, got %v", plane, p.Pos.Y)
			}
		}
	}
}

func TestSurfaceNormals(t *testing.T) {
	f := fieldFrom(5, 5, func(i, j int) float64 { return float64(i) * 10 })
	f.Values[12] = math.NaN()
	normals := SurfaceNormals(f, 0.1)

	if normals[12] != vmath.Up {
		t.Errorf("expected Up at NaN vertex, got %v", normals[12])
	}
	for i, n := range normals {
		if n.Y <= 0 {
			t.Errorf("normal %d has non-positive Y: %v", i, n)
		}
		if math.IsNaN(n.X) || math.IsNaN(n.Z) {
			t.Errorf("normal %d is NaN", i)
		}
	}
	// Rising eastward tilts normals west
	if normals[0].X >= 0 {
		t.Errorf("expected negative X on east-rising slope, got %v", normals[0])
	}
}

func TestChainClosedLoops(t *testing.T) {
	f := fieldFrom(21, 21, hill)
	segs := March(f, flatNormals(f), 55.5, 100, 0.01, 0)
	lines := Chain(segs)

	if len(lines) != 1 {
		t.Fatalf("expected one loop around the summit, got %d", len(lines))
	}
	if !lines[0].Closed() {
		t.Error("expected closed loop")
	}
	if first, last := lines[0][0].Pos, lines[0][len(lines[0])-1].Pos; first != last {
		t.Errorf("expected loop to end at its start, got %v and %v", first, last)
	}
	if len(lines[0]) != len(segs)+1 {
		t.Errorf("expected %d points, got %d", len(segs)+1, len(lines[0]))
	}
}

func TestChainOpenLineWalksBothWays(t *testing.T) {
	f := fieldFrom(8, 6, func(i, j int) float64 { return float64(i) })
	segs := March(f, flatNormals(f), 3.5, 10, 1, 0)

	// Start the walk from a middle segment
	mid := len(segs) / 2
	segs[0], segs[mid] = segs[mid], segs[0]

	lines := Chain(segs)
	if len(lines) != 1 {
		t.Fatalf("expected a single open line, got %d", len(lines))
	}
	if lines[0].Closed() {
		t.Error("expected open line")
	}
	if len(lines[0]) != 6 {
		t.Errorf("expected 6 points spanning the rows, got %d", len(lines[0]))
	}
}

func linePoints(xz ...[2]float64) Polyline {
	var line Polyline
	for i, p := range xz {
		line = append(line, Point{Pos: vmath.Vec3{X: p[0], Y: float64(i), Z: p[1]}, Edge: i})
	}
	return line
}

func TestSimplify(t *testing.T) {
	zigzag := linePoints([2]float64{0, 0}, [2]float64{1, 0.4}, [2]float64{2, -0.3}, [2]float64{3, 0.05}, [2]float64{4, 0})

	t.Run("zero tolerance is identity", func(t *testing.T) {
		got := Simplify(zigzag, 0)
		if len(got) != len(zigzag) {
			t.Fatalf("expected %d points, got %d", len(zigzag), len(got))
		}
		for i := range got {
			if got[i] != zigzag[i] {
				t.Errorf("point %d changed", i)
			}
		}
	})

	t.Run("huge tolerance keeps endpoints", func(t *testing.T) {
		got := Simplify(zigzag, 1e9)
		if len(got) != 2 || got[0] != zigzag[0] || got[1] != zigzag[len(zigzag)-1] {
			t.Errorf("expected the two endpoints, got %+v", got)
		}
	})

	t.Run("collinear collapses", func(t *testing.T) {
		var pts [][2]float64
		for i := range 50 {
			pts = append(pts, [2]float64{float64(i) * 0.1, float64(i) * 0.2})
		}
		line := linePoints(pts...)
		got := Simplify(line, 1e-6)
		if len(got) != 2 || got[0] != line[0] || got[1] != line[len(line)-1] {
			t.Errorf("expected collinear run to collapse to endpoints, got %d points", len(got))
		}
	})

	t.Run("moderate tolerance keeps big deviations", func(t *testing.T) {
		got := Simplify(zigzag, 0.1)
		if len(got) < 3 || len(got) > len(zigzag) {
			t.Fatalf("expected between 3 and %d points, got %d", len(zigzag), len(got))
		}
		if got[0] != zigzag[0] || got[len(got)-1] != zigzag[len(zigzag)-1] {
			t.Error("expected endpoints preserved")
		}
		// Heights travel with their points
		for _, p := range got {
			if p.Pos.Y != float64(p.Edge) {
				t.Errorf("height detached from point %d", p.Edge)
			}
		}
	})
}

func TestSimplifyClosedLoop(t *testing.T) {
	f := fieldFrom(21, 21, hill)
	loop := Chain(March(f, flatNormals(f), 20.2, 100, 0.01, 0))[0]

	got := Simplify(loop, 0.01)
	if len(got) < 4 || len(got) > len(loop) {
		t.Fatalf("expected a simplified loop, got %d of %d points", len(got), len(loop))
	}
	if got[0] != loop[0] || got[len(got)-1] != loop[len(loop)-1] {
		t.Error("expected loop endpoints preserved")
	}
}

func TestGenerateRampScenario(t *testing.T) {
	s := samplerFrom(t, 10, 10, func(x, y int) float64 { return float64(x) / 9 * 100 })
	f := NewField(s, 10, 10, 1, 1)

	g := NewGenerator(f, Options{Reference: 100, MinElevation: 0, Interval: 10, HeightScale: 0.01, HeightOffset: 0.001})
	if g.ThresholdCount() != 9 {
		t.Fatalf("expected 9 thresholds, got %d", g.ThresholdCount())
	}

	for k := range g.ThresholdCount() {
		th := g.Threshold(k)
		segs := March(f, g.normals, th, 100, 0.01, 0.001)
		if len(segs) == 0 {
			t.Fatalf("threshold %v: expected a contour", th)
		}
		x := segs[0].A.Pos.X
		for _, sg := range segs {
			if math.Abs(sg.A.Pos.X-x) > 1e-9 || math.Abs(sg.B.Pos.X-x) > 1e-9 {
				t.Fatalf("threshold %v: expected a line of constant X", th)
			}
		}
	}

	var events []work.Event
	res, err := Generate(context.Background(), f, Options{Reference: 100, MinElevation: 0, Interval: 10, HeightScale: 0.01}, func(ev work.Event) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Aborted || res.Thresholds != 9 {
		t.Errorf("expected 9 complete thresholds, got %+v", res)
	}
	if len(res.Segments) != 3*res.VertexCount || res.VertexCount%2 != 0 {
		t.Errorf("inconsistent result: %d floats for %d vertices", len(res.Segments), res.VertexCount)
	}
	if len(events) != 9 {
		t.Errorf("expected one progress event per threshold, got %d", len(events))
	}
}

func TestGenerateFlatScenario(t *testing.T) {
	s := samplerFrom(t, 20, 20, func(x, y int) float64 { return 50 })
	f := NewField(s, 20, 20, 1, 1)

	for _, interval := range []float64{0.5, 1, 10, 100} {
		res, err := Generate(context.Background(), f, Options{Reference: 50, MinElevation: 50, Interval: interval, HeightScale: 1}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.VertexCount != 0 || len(res.Segments) != 0 || res.Aborted {
			t.Errorf("interval %v: expected no contour, got %+v", interval, res)
		}
	}
}

func TestGenerateBudgetAbort(t *testing.T) {
	f := fieldFrom(21, 21, hill)
	opts := Options{Reference: 100, MinElevation: 0, Interval: 7.3, HeightScale: 0.01}

	full, err := Generate(context.Background(), f, opts, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if full.Aborted || full.VertexCount == 0 {
		t.Fatalf("expected complete uncapped run, got %+v", full)
	}

	opts.MaxVertices = 10
	capped, err := Generate(context.Background(), f, opts, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !capped.Aborted {
		t.Fatal("expected budget abort")
	}
	if capped.VertexCount >= full.VertexCount {
		t.Errorf("expected partial count below %d, got %d", full.VertexCount, capped.VertexCount)
	}
	if capped.Thresholds >= full.Thresholds {
		t.Errorf("expected remaining thresholds skipped, processed %d of %d", capped.Thresholds, full.Thresholds)
	}
}

func TestGenerateSimplifyReducesVertices(t *testing.T) {
	f := fieldFrom(21, 21, hill)
	opts := Options{Reference: 100, MinElevation: 0, Interval: 20, HeightScale: 0.01}

	raw, _ := Generate(context.Background(), f, opts, nil)
	opts.SimplifyTolerance = 0.01
	simple, _ := Generate(context.Background(), f, opts, nil)

	if simple.VertexCount >= raw.VertexCount {
		t.Errorf("expected simplification to drop vertices, got %d vs %d", simple.VertexCount, raw.VertexCount)
	}
}

func TestGenerateHoleHasNoNaN(t *testing.T) {
	s := samplerFrom(t, 10, 10, func(x, y int) float64 {
		if x >= 4 && x <= 6 && y >= 3 && y <= 6 {
			return math.NaN()
		}
		return float64(x*10 + y)
	})
	f := NewField(s, 10, 10, 1, 1)
	res, err := Generate(context.Background(), f, Options{Reference: 99, MinElevation: 0, Interval: 15, HeightScale: 0.01, HeightOffset: 0.002}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.VertexCount == 0 {
		t.Fatal("expected contours around the hole")
	}
	for i, v := range res.Segments {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("non-finite coordinate at %d", i)
		}
	}
}

func TestGenerateHonorsCancellation(t *testing.T) {
	f := fieldFrom(21, 21, hill)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Generate(ctx, f, Options{Reference: 100, Interval: 10, HeightScale: 1}, nil); err == nil {
		t.Error("expected cancellation error")
	}
}
