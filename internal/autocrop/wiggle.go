package autocrop

import (
	"fmt"
	"strings"
)

const (
	// LineTolerance is the longest run of invalid samples a border line may
	// carry and still count as valid. Independent of the seed scan tolerance.
	LineTolerance = 1

	// MaxTrimCycles caps the border trimming loop.
	MaxTrimCycles = 100
)

// TrimReport records how far each edge moved while trimming.
type TrimReport struct {
	Left   int `json:"left"`
	Right  int `json:"right"`
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Cycles int `json:"cycles"`
}

// Moved reports whether any edge moved.
func (r TrimReport) Moved() bool {
	return r.Left+r.Right+r.Top+r.Bottom > 0
}

func (r TrimReport) String() string {
	if !r.Moved() {
		return fmt.Sprintf("borders clean after %d cycle(s)", r.Cycles)
	}
	var parts []string
	for _, e := range []struct {
		name string
		n    int
	}{{"left", r.Left}, {"right", r.Right}, {"top", r.Top}, {"bottom", r.Bottom}} {
		if e.n > 0 {
			parts = append(parts, fmt.Sprintf("%s +%d", e.name, e.n))
		}
	}
	return fmt.Sprintf("trimmed %s in %d cycle(s)", strings.Join(parts, ", "), r.Cycles)
}

// TrimBorders moves each border line of box inward until every line is
// valid. Lines are judged independently within a cycle, and all invalid
// lines move together before the next cycle.
func TrimBorders(g Sampler, p Policy, box Box) (Box, TrimReport, error) {
	var report TrimReport

	for report.Cycles < MaxTrimCycles {
		report.Cycles++

		leftOK := lineValid(g, p, box.Left, box.Top, 0, 1, box.Height())
		rightOK := lineValid(g, p, box.Right, box.Top, 0, 1, box.Height())
		topOK := lineValid(g, p, box.Left, box.Top, 1, 0, box.Width())
		bottomOK := lineValid(g, p, box.Left, box.Bottom, 1, 0, box.Width())

		if leftOK && rightOK && topOK && bottomOK {
			return box, report, nil
		}
		if !leftOK {
			box.Left++
			report.Left++
		}
		if !rightOK {
			box.Right--
			report.Right++
		}
		if !topOK {
			box.Top++
			report.Top++
		}
		if !bottomOK {
			box.Bottom--
			report.Bottom++
		}
		if box.Empty() {
			return box, report, &SolveError{
				Kind:       WiggleLimitExceeded,
				Stage:      "borders",
				Diagnostic: fmt.Sprintf("borders too wiggly for crop, box collapsed after %d cycle(s)", report.Cycles),
				Box:        box,
			}
		}
	}

	return box, report, &SolveError{
		Kind:       WiggleLimitExceeded,
		Stage:      "borders",
		Diagnostic: fmt.Sprintf("borders too wiggly for crop, still invalid after %d cycles", MaxTrimCycles),
		Box:        box,
	}
}

// lineValid scans n samples starting at (col,row) in direction (dc,dr).
// The line is invalid if any run of invalid samples exceeds LineTolerance,
// or if either endpoint is invalid: endpoints are box corners and belong to
// two lines, so they get no tolerance.
func lineValid(g Sampler, p Policy, col, row, dc, dr, n int) bool {
	if n <= 0 {
		return false
	}
	if !IsValid(g, p, col, row) || !IsValid(g, p, col+dc*(n-1), row+dr*(n-1)) {
		return false
	}
	run := 0
	for i := 0; i < n; i++ {
		if IsValid(g, p, col, row) {
			run = 0
		} else {
			run++
			if run > LineTolerance {
				return false
			}
		}
		col += dc
		row += dr
	}
	return true
}
