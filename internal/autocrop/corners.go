package autocrop

import "fmt"

type corner int

const (
	topLeft corner = iota
	bottomRight
	bottomLeft
	topRight
)

// cornerOrder is the round-robin visiting order.
var cornerOrder = [4]corner{topLeft, bottomRight, bottomLeft, topRight}

func (c corner) String() string {
	return [...]string{"top-left", "bottom-right", "bottom-left", "top-right"}[c]
}

func (c corner) at(b Box) Point {
	switch c {
	case topLeft:
		return Point{b.Left, b.Top}
	case bottomRight:
		return Point{b.Right, b.Bottom}
	case bottomLeft:
		return Point{b.Left, b.Bottom}
	default:
		return Point{b.Right, b.Top}
	}
}

// shrink moves both edges that meet at the corner one pixel inward.
func (c corner) shrink(b Box) Box {
	switch c {
	case topLeft:
		b.Left++
		b.Top++
	case bottomRight:
		b.Right--
		b.Bottom--
	case bottomLeft:
		b.Left++
		b.Bottom--
	default:
		b.Right--
		b.Top++
	}
	return b
}

// neighbours are the corners sharing an edge with c; they move when c does.
func (c corner) neighbours() [2]corner {
	switch c {
	case topLeft, bottomRight:
		return [2]corner{bottomLeft, topRight}
	default:
		return [2]corner{topLeft, bottomRight}
	}
}

// RelaxCorners shrinks the seed box corner by corner until all four corners
// are valid. Termination is bounded by the box size: every invalid corner
// strictly shrinks it.
//
// If the box collapses, or no longer contains the probe it was seeded from,
// a CenterInvalid SolveError is returned.
func RelaxCorners(g Sampler, p Policy, seed Box, probe Point) (Box, error) {
	box := seed
	var valid [4]bool

	for {
		allValid := true
		for _, c := range cornerOrder {
			if valid[c] {
				continue
			}
			pt := c.at(box)
			if IsValid(g, p, pt.Col, pt.Row) {
				valid[c] = true
				continue
			}
			allValid = false
			box = c.shrink(box)
			for _, n := range c.neighbours() {
				valid[n] = false
			}
			if box.Empty() || !box.Contains(probe) {
				return box, &SolveError{
					Kind:       CenterInvalid,
					Stage:      "corners",
					Diagnostic: fmt.Sprintf("box collapsed at %s while relaxing %s corner", box, c),
					Box:        box,
				}
			}
		}
		if allValid {
			return box, nil
		}
	}
}
