package imaging

import (
	"fmt"
	"image"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Reduction turns a color pixel into the single scalar a coverage map needs.
type Reduction string

const (
	// ReduceMin takes the smallest channel: a pixel counts as covered only if
	// every color plane was covered.
	ReduceMin Reduction = "min"

	// ReduceMax takes the largest channel, useful for rejection maps where
	// any plane with many rejections should disqualify the pixel.
	ReduceMax Reduction = "max"

	// ReduceLuminance takes linear-light luminance (Rec. 709 weights).
	ReduceLuminance Reduction = "luminance"
)

// ParseReduction validates a reduction name. The empty string means ReduceMin.
func ParseReduction(name string) (Reduction, error) {
	switch r := Reduction(strings.ToLower(strings.TrimSpace(name))); r {
	case "":
		return ReduceMin, nil
	case ReduceMin, ReduceMax, ReduceLuminance:
		return r, nil
	default:
		return "", fmt.Errorf("unknown channel reduction: %s", name)
	}
}

// CoverageMap is a decoded coverage or rejection map, one float64 per pixel.
// It satisfies autocrop.Sampler.
type CoverageMap struct {
	width  int
	height int
	scale  float64
	values []float64
}

// NewCoverageMap reads every pixel of img once. Values are normalized to
// [0,1] and multiplied by scale (a scale <= 0 is treated as 1).
func NewCoverageMap(img image.Image, reduce Reduction, scale float64) (*CoverageMap, error) {
	if img == nil {
		return nil, fmt.Errorf("coverage map image is nil")
	}
	if scale <= 0 {
		scale = 1
	}
	if reduce == "" {
		reduce = ReduceMin
	}
	if _, err := ParseReduction(string(reduce)); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	m := &CoverageMap{
		width:  bounds.Dx(),
		height: bounds.Dy(),
		scale:  scale,
		values: make([]float64, bounds.Dx()*bounds.Dy()),
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			m.values[i] = pixelValue(img, x, y, reduce) * scale
			i++
		}
	}
	return m, nil
}

// pixelValue returns the pixel at (x,y) as a single value in [0,1].
func pixelValue(img image.Image, x, y int, reduce Reduction) float64 {
	switch src := img.(type) {
	case *image.Gray16:
		return float64(src.Gray16At(x, y).Y) / 0xffff
	case *image.Gray:
		return float64(src.GrayAt(x, y).Y) / 0xff
	}

	c := img.At(x, y)
	if reduce == ReduceLuminance {
		col, ok := colorful.MakeColor(c)
		if !ok {
			// Fully transparent: nothing contributed here.
			return 0
		}
		r, g, b := col.LinearRgb()
		return 0.2126*r + 0.7152*g + 0.0722*b
	}

	r, g, b, _ := c.RGBA()
	v := r
	if reduce == ReduceMax {
		if g > v {
			v = g
		}
		if b > v {
			v = b
		}
	} else {
		if g < v {
			v = g
		}
		if b < v {
			v = b
		}
	}
	return float64(v) / 0xffff
}

func (m *CoverageMap) Width() int     { return m.width }
func (m *CoverageMap) Height() int    { return m.height }
func (m *CoverageMap) Scale() float64 { return m.scale }

func (m *CoverageMap) Sample(col, row int) float64 {
	return m.values[m.width*row+col]
}

// Values returns the samples in row-major order. The slice is shared; do
// not modify it.
func (m *CoverageMap) Values() []float64 { return m.values }
