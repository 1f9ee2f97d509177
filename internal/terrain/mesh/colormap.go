package mesh

import "math"

// ColormapSize is the number of entries in the depth colormap.
const ColormapSize = 256

// NoDataColor is the flat gray for NoData and above-reference vertices.
var NoDataColor = [3]float32{0.5, 0.5, 0.5}

// viridisStops are evenly spaced anchor colors of the viridis colormap.
var viridisStops = [...][3]float64{
	{0.267004, 0.004874, 0.329415},
	{0.282623, 0.140926, 0.457517},
	{0.229739, 0.322361, 0.545706},
	{0.172719, 0.448791, 0.557885},
	{0.127568, 0.566949, 0.550556},
	{0.134692, 0.658636, 0.517649},
	{0.369214, 0.788888, 0.382914},
	{0.741388, 0.873449, 0.149561},
	{0.993248, 0.906157, 0.143936},
}

// colormap is the 256-entry perceptual table, low end first.
var colormap = buildColormap()

func buildColormap() [ColormapSize][3]float32 {
	var table [ColormapSize][3]float32
	last := len(viridisStops) - 1
	for i := range ColormapSize {
		pos := float64(i) / float64(ColormapSize-1) * float64(last)
		lo := min(int(pos), last)
		hi := min(lo+1, last)
		f := pos - float64(lo)
		for c := range 3 {
			table[i][c] = float32(viridisStops[lo][c]*(1-f) + viridisStops[hi][c]*f)
		}
	}
	return table
}

// ColormapEntry returns table entry i, clamped to the table.
func ColormapEntry(i int) [3]float32 {
	return colormap[min(max(i, 0), ColormapSize-1)]
}

// ColorForDepth maps a depth below the reference onto the colormap. Shallow
// water maps to the high end of the table, deep water to the low end, with
// linear interpolation between neighboring entries.
func ColorForDepth(depth float64, r DepthRange) [3]float32 {
	span := r.Max - r.Min
	normalized := 0.0
	if span > 0 {
		normalized = (depth - r.Min) / span
	}
	if math.IsNaN(normalized) {
		return NoDataColor
	}
	t := 1 - math.Min(math.Max(normalized, 0), 1)

	pos := t * float64(ColormapSize-1)
	lo := int(math.Floor(pos))
	hi := min(lo+1, ColormapSize-1)
	f := float32(pos - float64(lo))

	a, b := colormap[lo], colormap[hi]
	return [3]float32{
		a[0] + (b[0]-a[0])*f,
		a[1] + (b[1]-a[1])*f,
		a[2] + (b[2]-a[2])*f,
	}
}
