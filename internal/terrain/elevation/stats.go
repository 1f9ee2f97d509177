package elevation

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Stats summarizes the valid samples of a grid.
type Stats struct {
	Min   float64 // NaN when no sample is valid
	Max   float64 // NaN when no sample is valid
	Valid int
	Total int
}

// ValidFraction returns the share of samples that are not NoData.
func (st Stats) ValidFraction() float64 {
	if st.Total == 0 {
		return 0
	}
	return float64(st.Valid) / float64(st.Total)
}

// HasData reports whether at least one sample is valid.
func (st Stats) HasData() bool { return st.Valid > 0 }

// Analyze scans the grid once for its valid range and count.
func (s *Sampler) Analyze() Stats {
	data := s.grid.Data
	valid := make([]float64, 0, len(data))
	for _, v := range data {
		if !s.IsNoData(v) {
			valid = append(valid, v)
		}
	}

	st := Stats{Min: math.NaN(), Max: math.NaN(), Valid: len(valid), Total: len(data)}
	if len(valid) > 0 {
		st.Min = floats.Min(valid)
		st.Max = floats.Max(valid)
	}
	return st
}
