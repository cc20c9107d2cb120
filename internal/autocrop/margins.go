package autocrop

import "fmt"

// Margins are pixel counts to trim from each image edge.
type Margins struct {
	Left   int `json:"left" yaml:"left"`
	Top    int `json:"top" yaml:"top"`
	Right  int `json:"right" yaml:"right"`
	Bottom int `json:"bottom" yaml:"bottom"`
}

func (m Margins) String() string {
	return fmt.Sprintf("left %d, top %d, right %d, bottom %d", m.Left, m.Top, m.Right, m.Bottom)
}

// IsZero reports whether nothing would be trimmed.
func (m Margins) IsZero() bool { return m == Margins{} }

// Box converts margins back to the inclusive box they leave in a
// width x height image.
func (m Margins) Box(width, height int) Box {
	return Box{
		Left:   m.Left,
		Right:  width - 1 - m.Right,
		Top:    m.Top,
		Bottom: height - 1 - m.Bottom,
	}
}

// MarginsFor returns the margins that leave exactly box.
func MarginsFor(box Box, width, height int) Margins {
	return Margins{
		Left:   box.Left,
		Top:    box.Top,
		Right:  width - 1 - box.Right,
		Bottom: height - 1 - box.Bottom,
	}
}

// CoverageLoss is how much of the image a crop removes, in percent.
type CoverageLoss struct {
	WidthPercent  float64 `json:"width_percent"`
	HeightPercent float64 `json:"height_percent"`
	AreaPercent   float64 `json:"area_percent"`
}

// Max returns the largest of the three percentages.
func (l CoverageLoss) Max() float64 {
	m := l.WidthPercent
	if l.HeightPercent > m {
		m = l.HeightPercent
	}
	if l.AreaPercent > m {
		m = l.AreaPercent
	}
	return m
}

// ComputeMargins converts the final box into margins and coverage loss. If
// any loss figure exceeds warnPercent, a warning is returned alongside; the
// margins are valid either way.
func ComputeMargins(box Box, width, height int, warnPercent float64) (Margins, CoverageLoss, string) {
	m := MarginsFor(box, width, height)

	var loss CoverageLoss
	if width > 0 {
		loss.WidthPercent = float64(width-box.Width()) * 100 / float64(width)
	}
	if height > 0 {
		loss.HeightPercent = float64(height-box.Height()) * 100 / float64(height)
	}
	if full := width * height; full > 0 {
		loss.AreaPercent = float64(full-box.Area()) * 100 / float64(full)
	}

	var warning string
	if loss.Max() > warnPercent {
		warning = fmt.Sprintf("cropped more than %g%% (width %.1f%%, height %.1f%%, area %.1f%%), please check the crop and adjust manually if needed",
			warnPercent, loss.WidthPercent, loss.HeightPercent, loss.AreaPercent)
	}
	return m, loss, warning
}
