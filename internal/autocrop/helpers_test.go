package autocrop

import (
	"math"
	"testing"
)

// borderGrid returns a coverage map with an invalid band of the given width
// on every side.
func borderGrid(width, height, border int) *Grid {
	return NewGridFunc(width, height, func(col, row int) float64 {
		if col < border || row < border || col >= width-border || row >= height-border {
			return 0
		}
		return 1
	})
}

// rotatedGrid returns a coverage map that is valid inside a square of the
// given half-size rotated by deg around the image center, like the overlap
// of frames affected by field rotation.
func rotatedGrid(width, height int, half, deg float64) *Grid {
	cx, cy := float64(width)/2, float64(height)/2
	sin, cos := math.Sincos(deg * math.Pi / 180)
	return NewGridFunc(width, height, func(col, row int) float64 {
		dx, dy := float64(col)-cx, float64(row)-cy
		u := dx*cos + dy*sin
		v := -dx*sin + dy*cos
		if math.Abs(u) <= half && math.Abs(v) <= half {
			return 1
		}
		return 0
	})
}

// maxInvalidRun returns the longest run of invalid samples along a line.
func maxInvalidRun(g Sampler, p Policy, col, row, dc, dr, n int) int {
	longest, run := 0, 0
	for i := 0; i < n; i++ {
		if IsValid(g, p, col+i*dc, row+i*dr) {
			run = 0
			continue
		}
		run++
		if run > longest {
			longest = run
		}
	}
	return longest
}

// assertSolvedBox checks the corner and border guarantees of a successful
// solve.
func assertSolvedBox(t *testing.T, g Sampler, p Policy, b Box) {
	t.Helper()

	if !b.InImage(g.Width(), g.Height()) {
		t.Fatalf("box %s outside %dx%d image", b, g.Width(), g.Height())
	}
	if c := Center(g.Width(), g.Height()); !b.Contains(c) {
		t.Errorf("box %s does not contain center %s", b, c)
	}
	for _, pt := range []Point{{b.Left, b.Top}, {b.Right, b.Top}, {b.Left, b.Bottom}, {b.Right, b.Bottom}} {
		if !IsValid(g, p, pt.Col, pt.Row) {
			t.Errorf("corner %s is invalid", pt)
		}
	}
	lines := []struct {
		name               string
		col, row, dc, dr, n int
	}{
		{"left", b.Left, b.Top, 0, 1, b.Height()},
		{"right", b.Right, b.Top, 0, 1, b.Height()},
		{"top", b.Left, b.Top, 1, 0, b.Width()},
		{"bottom", b.Left, b.Bottom, 1, 0, b.Width()},
	}
	for _, l := range lines {
		if run := maxInvalidRun(g, p, l.col, l.row, l.dc, l.dr, l.n); run > LineTolerance {
			t.Errorf("%s border has invalid run of %d", l.name, run)
		}
	}
}
