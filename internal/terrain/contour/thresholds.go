package contour

import "math"

// maxThresholds bounds the threshold count so it always fits a chunk scan.
const maxThresholds = 1 << 40

// ThresholdCount returns how many contour elevations lie below the reference:
// one per multiple of interval down to round(reference - minElevation). A
// threshold equal to minElevation is dropped: with corners classified by >=,
// it can never produce a crossing.
func ThresholdCount(reference, minElevation, interval float64) int {
	if !(interval > 0) || math.IsInf(interval, 0) || math.IsNaN(reference) || math.IsNaN(minElevation) {
		return 0
	}
	maxDepth := math.Round(reference - minElevation)
	if !(maxDepth > 0) {
		return 0
	}

	n := math.Floor(maxDepth / interval)
	if n > maxThresholds {
		n = maxThresholds
	}
	k := int(n)
	// Step over the float edge of the division in either direction
	for k > 0 && float64(k)*interval > maxDepth {
		k--
	}
	for k < maxThresholds && float64(k+1)*interval <= maxDepth {
		k++
	}
	for k > 0 && ThresholdAt(reference, interval, k-1) <= minElevation {
		k--
	}
	return k
}

// ThresholdAt returns threshold k (0-based, shallowest first). Each is
// computed from its index so no rounding builds up along the sequence.
func ThresholdAt(reference, interval float64, k int) float64 {
	return reference - float64(k+1)*interval
}

// Thresholds returns every contour elevation, shallowest first.
func Thresholds(reference, minElevation, interval float64) []float64 {
	n := ThresholdCount(reference, minElevation, interval)
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	for k := range out {
		out[k] = ThresholdAt(reference, interval, k)
	}
	return out
}
