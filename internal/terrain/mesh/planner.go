package mesh

import "math"

// PlanGrid derives the vertex grid resolution for a raster. The triangle
// budget is inflated by the valid fraction because NoData triangles are
// discarded later. Above-reference triangles are discarded too, so the
// result is a heuristic, not an exact count. A valid fraction below one
// sample, including zero and NaN, counts as one sample.
func PlanGrid(elevationWidth, elevationHeight int, validFraction float64, targetPolygons int) (gridWidth, gridHeight int) {
	if elevationWidth < 2 || elevationHeight < 2 {
		return 2, 2
	}
	floor := 1 / (float64(elevationWidth) * float64(elevationHeight))
	if math.IsNaN(validFraction) || validFraction < floor {
		validFraction = floor
	}
	validFraction = math.Min(validFraction, 1)

	targetQuads := float64(max(targetPolygons, 2)) / (2 * validFraction)
	aspect := float64(elevationWidth) / float64(elevationHeight)

	h := math.Sqrt(targetQuads / aspect)
	w := h * aspect

	gridWidth = clampDim(w, elevationWidth)
	gridHeight = clampDim(h, elevationHeight)
	return gridWidth, gridHeight
}

func clampDim(quads float64, limit int) int {
	if quads >= float64(limit) {
		return limit
	}
	return min(max(int(math.Round(quads))+1, 2), limit)
}
