package autocrop

import "fmt"

// ProbeNudge is how far (in both axes) the fallback probes sit from the
// geometric center.
const ProbeNudge = 10

// probeOffsets are tried in order until one lands on a valid pixel.
var probeOffsets = []Point{
	{0, 0},
	{ProbeNudge, ProbeNudge},
	{-ProbeNudge, -ProbeNudge},
}

// FindProbe returns the first valid probe point around the image center.
func FindProbe(g Sampler, p Policy) (Point, bool) {
	c := Center(g.Width(), g.Height())
	for _, off := range probeOffsets {
		pt := Point{Col: c.Col + off.Col, Row: c.Row + off.Row}
		if IsValid(g, p, pt.Col, pt.Row) {
			return pt, true
		}
	}
	return Point{}, false
}

// SeedFromCenter scans outward from a valid probe point along its row and
// column and returns the seed box together with the probe used.
//
// Each of the four scans stops at the sample just inside the first run of
// more than tolerance consecutive invalid samples, or at the image edge.
func SeedFromCenter(g Sampler, p Policy, tolerance int) (Box, Point, error) {
	if tolerance < 0 {
		tolerance = 0
	}
	w, h := g.Width(), g.Height()
	if w <= 0 || h <= 0 {
		return Box{}, Point{}, &SolveError{
			Kind:       CenterInvalid,
			Stage:      "seed",
			Diagnostic: fmt.Sprintf("empty coverage map %dx%d", w, h),
		}
	}

	probe, ok := FindProbe(g, p)
	if !ok {
		c := Center(w, h)
		return Box{}, Point{}, &SolveError{
			Kind:  CenterInvalid,
			Stage: "seed",
			Diagnostic: fmt.Sprintf("center %s and nudged probes (+/-%d) are invalid, possibly not enough overlap",
				c, ProbeNudge),
		}
	}

	box := Box{
		Top:    scanEdge(g, p, probe, 0, -1, tolerance),
		Bottom: scanEdge(g, p, probe, 0, 1, tolerance),
		Left:   scanEdge(g, p, probe, -1, 0, tolerance),
		Right:  scanEdge(g, p, probe, 1, 0, tolerance),
	}
	return box, probe, nil
}

// scanEdge walks from the probe in direction (dc, dr) and returns the
// boundary coordinate along that axis.
func scanEdge(g Sampler, p Policy, from Point, dc, dr, tolerance int) int {
	col, row := from.Col, from.Row
	run := 0
	for {
		col += dc
		row += dr
		if col < 0 || row < 0 || col >= g.Width() || row >= g.Height() {
			break
		}
		if IsValid(g, p, col, row) {
			run = 0
			continue
		}
		run++
		if run > tolerance {
			// Step back over the whole invalid run.
			col -= dc * run
			row -= dr * run
			if dc != 0 {
				return col
			}
			return row
		}
	}
	// Reached the image edge without a violation.
	if dc < 0 || dr < 0 {
		return 0
	}
	if dc != 0 {
		return g.Width() - 1
	}
	return g.Height() - 1
}
