package contour

// Polyline is an ordered run of contour points at one threshold. A closed
// loop repeats its first point at the end.
type Polyline []Point

// Closed reports whether the polyline ends where it starts.
func (p Polyline) Closed() bool {
	return len(p) > 2 && p[0].Edge == p[len(p)-1].Edge
}

// Chain joins raw segments that share an endpoint into polylines. Segments
// live in a flat arena; the adjacency map points from an edge key to the
// arena indices touching it. Every key has at most two entries because each
// grid edge borders at most two cells and a cell uses an edge at most once.
func Chain(segs []Segment) []Polyline {
	adj := make(map[int][]int32, 2*len(segs))
	for i, s := range segs {
		adj[s.A.Edge] = append(adj[s.A.Edge], int32(i))
		adj[s.B.Edge] = append(adj[s.B.Edge], int32(i))
	}

	used := make([]bool, len(segs))

	// follow claims an unused segment touching edge and returns its far end.
	follow := func(edge int) (Point, bool) {
		for _, id := range adj[edge] {
			if used[id] {
				continue
			}
			used[id] = true
			s := segs[id]
			if s.A.Edge == edge {
				return s.B, true
			}
			return s.A, true
		}
		return Point{}, false
	}

	var lines []Polyline
	for i, s := range segs {
		if used[i] {
			continue
		}
		used[i] = true

		line := Polyline{s.A, s.B}
		for {
			p, ok := follow(line[len(line)-1].Edge)
			if !ok {
				break
			}
			line = append(line, p)
		}

		// Closed loops come back to the start and have nothing left behind them
		var back []Point
		for edge := line[0].Edge; ; {
			p, ok := follow(edge)
			if !ok {
				break
			}
			back = append(back, p)
			edge = p.Edge
		}
		if len(back) > 0 {
			joined := make(Polyline, 0, len(back)+len(line))
			for k := len(back) - 1; k >= 0; k-- {
				joined = append(joined, back[k])
			}
			line = append(joined, line...)
		}

		lines = append(lines, line)
	}
	return lines
}

// Degrees counts how many raw segments touch each edge key.
func Degrees(segs []Segment) map[int]int {
	deg := make(map[int]int, 2*len(segs))
	for _, s := range segs {
		deg[s.A.Edge]++
		deg[s.B.Edge]++
	}
	return deg
}
