package autocrop

import "fmt"

// Sampler is a read-only scalar image addressed by (col, row).
//
// Implementations need not be safe for concurrent use; the solver samples
// from a single goroutine.
type Sampler interface {
	Width() int
	Height() int
	Sample(col, row int) float64
}

// Grid is an in-memory Sampler backed by a row-major float64 slice.
type Grid struct {
	stride int
	values []float64
}

// NewGrid returns a zero-filled grid of the given size.
func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Grid{
		stride: width,
		values: make([]float64, width*height),
	}
}

// NewGridFunc builds a grid by evaluating fn at every pixel.
func NewGridFunc(width, height int, fn func(col, row int) float64) *Grid {
	g := NewGrid(width, height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			g.Set(col, row, fn(col, row))
		}
	}
	return g
}

func (g *Grid) Width() int { return g.stride }

func (g *Grid) Height() int {
	if g.stride == 0 {
		return 0
	}
	return len(g.values) / g.stride
}

func (g *Grid) Sample(col, row int) float64 { return g.values[g.stride*row+col] }
func (g *Grid) Set(col, row int, v float64)  { g.values[g.stride*row+col] = v }

// Point is a pixel position.
type Point struct {
	Col int `json:"col" yaml:"col"`
	Row int `json:"row" yaml:"row"`
}

func (p Point) String() string { return fmt.Sprintf("(%d,%d)", p.Col, p.Row) }

// Center returns the geometric center of a width x height image, using
// floor division.
func Center(width, height int) Point {
	return Point{Col: width / 2, Row: height / 2}
}

// Box is an axis-aligned rectangle with inclusive edges.
type Box struct {
	Left   int `json:"left" yaml:"left"`
	Right  int `json:"right" yaml:"right"`
	Top    int `json:"top" yaml:"top"`
	Bottom int `json:"bottom" yaml:"bottom"`
}

// FullBox returns the box covering a whole width x height image.
func FullBox(width, height int) Box {
	return Box{Left: 0, Right: width - 1, Top: 0, Bottom: height - 1}
}

func (b Box) String() string {
	return fmt.Sprintf("[left %d, right %d, top %d, bottom %d]", b.Left, b.Right, b.Top, b.Bottom)
}

// Width is the number of columns inside the box.
func (b Box) Width() int { return b.Right - b.Left + 1 }

// Height is the number of rows inside the box.
func (b Box) Height() int { return b.Bottom - b.Top + 1 }

// Area is the number of pixels inside the box, or 0 if it is degenerate.
func (b Box) Area() int {
	if b.Empty() {
		return 0
	}
	return b.Width() * b.Height()
}

// Empty reports whether the box has collapsed.
func (b Box) Empty() bool { return b.Left > b.Right || b.Top > b.Bottom }

// Contains reports whether p lies inside the box.
func (b Box) Contains(p Point) bool {
	return p.Col >= b.Left && p.Col <= b.Right && p.Row >= b.Top && p.Row <= b.Bottom
}

// Within reports whether b lies entirely inside outer.
func (b Box) Within(outer Box) bool {
	return b.Left >= outer.Left && b.Right <= outer.Right &&
		b.Top >= outer.Top && b.Bottom <= outer.Bottom
}

// InImage reports whether the box is non-empty and inside [0,width)x[0,height).
func (b Box) InImage(width, height int) bool {
	return !b.Empty() && b.Left >= 0 && b.Top >= 0 && b.Right < width && b.Bottom < height
}
