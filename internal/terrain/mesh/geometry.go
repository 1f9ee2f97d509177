package mesh

// ModelExtent returns the model rectangle for a source aspect ratio
// (width / height). The longer side equals modelSize.
func ModelExtent(modelSize, aspect float64) (width, depth float64) {
	if !(aspect > 0) {
		aspect = 1
	}
	if aspect >= 1 {
		return modelSize, modelSize / aspect
	}
	return modelSize * aspect, modelSize
}

// BuildGeometry creates a gridWidth x gridHeight vertex plane centered on the
// origin in XZ. Row 0 is north (-Z). Every quad becomes two triangles; this
// index buffer is fixed for the lifetime of the grid.
func BuildGeometry(gridWidth, gridHeight int, width, depth float64) *Geometry {
	if gridWidth < 2 || gridHeight < 2 {
		panic("mesh: grid must be at least 2x2")
	}

	n := gridWidth * gridHeight
	g := &Geometry{
		GridWidth:  gridWidth,
		GridHeight: gridHeight,
		Width:      width,
		Depth:      depth,
		Positions:  make([]float32, 3*n),
		UVs:        make([]float32, 2*n),
		Indices:    make([]uint32, 0, 6*(gridWidth-1)*(gridHeight-1)),
	}

	halfW := width / 2
	halfD := depth / 2
	for j := range gridHeight {
		fz := float64(j) / float64(gridHeight-1)
		for i := range gridWidth {
			fx := float64(i) / float64(gridWidth-1)
			k := j*gridWidth + i

			g.Positions[3*k] = float32(-halfW + fx*width)
			g.Positions[3*k+2] = float32(-halfD + fz*depth)

			// UV origin is the south-west corner
			g.UVs[2*k] = float32(fx)
			g.UVs[2*k+1] = float32(1 - fz)
		}
	}

	// Corners per quad: a=top-left, b=bottom-left, c=bottom-right, d=top-right
	for j := range gridHeight - 1 {
		for i := range gridWidth - 1 {
			a := uint32(j*gridWidth + i)
			b := a + uint32(gridWidth)
			c := b + 1
			d := a + 1
			g.Indices = append(g.Indices,
				a, b, d,
				b, c, d,
			)
		}
	}

	return g
}
