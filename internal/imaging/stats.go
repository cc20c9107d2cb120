package imaging

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CoverageStats summarizes a coverage map.
type CoverageStats struct {
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	StdDev       float64 `json:"std_dev"`
	ValidPixels  int     `json:"valid_pixels"`
	TotalPixels  int     `json:"total_pixels"`
	ValidPercent float64 `json:"valid_percent"`
}

// ComputeCoverageStats summarizes m. Pixels for which accept returns true are
// counted as valid; pass the active validity policy's Accepts method.
func ComputeCoverageStats(m *CoverageMap, accept func(float64) bool) *CoverageStats {
	values := m.Values()
	s := &CoverageStats{TotalPixels: len(values)}
	if len(values) == 0 {
		return s
	}

	for _, v := range values {
		if accept != nil && accept(v) {
			s.ValidPixels++
		}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	if math.IsNaN(s.StdDev) {
		s.StdDev = 0
	}
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.ValidPercent = math.Round(float64(s.ValidPixels)/float64(s.TotalPixels)*1000) / 10
	return s
}
