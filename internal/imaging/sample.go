package imaging

import "fmt"

// LabeledPoint represents a pixel coordinate with an optional descriptive label.
type LabeledPoint struct {
	X     int    // X coordinate (0-based)
	Y     int    // Y coordinate (0-based)
	Label string // Optional label, e.g. "top-left corner"
}

// CoverageSample is the coverage value at one point.
type CoverageSample struct {
	Label string  `json:"label,omitempty"`
	X     int     `json:"x"`
	Y     int     `json:"y"`
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// MultiSampleResult contains coverage samples in input order.
type MultiSampleResult struct {
	Samples []CoverageSample `json:"samples"`
}

// SampleCoverage reads the coverage value at each point and judges it with
// accept. Any point outside the map fails the whole call; no partial results
// are returned.
func SampleCoverage(m *CoverageMap, points []LabeledPoint, accept func(float64) bool) (*MultiSampleResult, error) {
	samples := make([]CoverageSample, 0, len(points))

	for _, p := range points {
		if p.X < 0 || p.Y < 0 || p.X >= m.Width() || p.Y >= m.Height() {
			return nil, fmt.Errorf("coordinates (%d,%d) outside %dx%d coverage map", p.X, p.Y, m.Width(), m.Height())
		}
		v := m.Sample(p.X, p.Y)
		samples = append(samples, CoverageSample{
			Label: p.Label,
			X:     p.X,
			Y:     p.Y,
			Value: v,
			Valid: accept != nil && accept(v),
		})
	}

	return &MultiSampleResult{Samples: samples}, nil
}
