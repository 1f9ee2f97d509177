package contour

import (
	geo "github.com/paulmach/go.geo"
	"github.com/paulmach/go.geo/reducers"
)

// Simplify runs Douglas-Peucker on the XZ projection of line. Heights are
// carried along untouched. Endpoints are always kept, tolerance 0 returns the
// line unchanged and collinear runs collapse to their endpoints.
func Simplify(line Polyline, tolerance float64) Polyline {
	if tolerance <= 0 || len(line) <= 2 {
		out := make(Polyline, len(line))
		copy(out, line)
		return out
	}

	// A closed loop has no base segment; split it at the point farthest from
	// the start and simplify both halves.
	if line.Closed() {
		start := line[0].Pos.XZ()
		far, best := 0, -1.0
		for i, p := range line {
			if d := p.Pos.XZ().Distance(start); d > best {
				far, best = i, d
			}
		}
		if far > 0 && far < len(line)-1 {
			head := douglasPeucker(line[:far+1], tolerance)
			tail := douglasPeucker(line[far:], tolerance)
			return append(head, tail[1:]...)
		}
	}

	return douglasPeucker(line, tolerance)
}

func douglasPeucker(line Polyline, tolerance float64) Polyline {
	if len(line) <= 2 {
		out := make(Polyline, len(line))
		copy(out, line)
		return out
	}

	path := geo.NewPath()
	for _, p := range line {
		path.Push(geo.NewPoint(p.Pos.X, p.Pos.Z))
	}

	_, keep := reducers.DouglasPeuckerIndexMap(path, tolerance)

	out := make(Polyline, 0, len(keep))
	for _, idx := range keep {
		out = append(out, line[idx])
	}
	return out
}
