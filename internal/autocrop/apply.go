package autocrop

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
)

// CropState records whether a channel buffer has already been cropped, and
// with which margins.
type CropState struct {
	Cropped bool    `json:"cropped"`
	Margins Margins `json:"margins"`
}

// Uncropped is the state of a freshly loaded channel.
var Uncropped = CropState{}

// CroppedWith returns the state of a channel cropped by m.
func CroppedWith(m Margins) CropState { return CropState{Cropped: true, Margins: m} }

func (s CropState) String() string {
	if !s.Cropped {
		return "uncropped"
	}
	return "cropped(" + s.Margins.String() + ")"
}

// Channel is one full-resolution image of a stack (a color plane, or a
// whole RGB image) together with its crop state.
type Channel struct {
	Name  string
	Image image.Image
	State CropState
}

// ApplyCrop returns ch cropped by m. A channel that is already cropped is
// returned as-is; the crop is never applied twice.
func ApplyCrop(ch Channel, m Margins) (Channel, error) {
	if ch.State.Cropped {
		return ch, nil
	}
	if ch.Image == nil {
		return ch, fmt.Errorf("channel %q has no image", ch.Name)
	}

	bounds := ch.Image.Bounds()
	box := m.Box(bounds.Dx(), bounds.Dy())
	if m.Left < 0 || m.Top < 0 || m.Right < 0 || m.Bottom < 0 || box.Empty() {
		return ch, fmt.Errorf("channel %q: margins (%s) do not fit %dx%d image",
			ch.Name, m, bounds.Dx(), bounds.Dy())
	}

	rect := image.Rect(
		bounds.Min.X+box.Left, bounds.Min.Y+box.Top,
		bounds.Min.X+box.Right+1, bounds.Min.Y+box.Bottom+1,
	)

	return Channel{
		Name:  ch.Name,
		Image: cropRect(ch.Image, rect),
		State: CroppedWith(m),
	}, nil
}

// ApplyCropAll crops every channel with the same margins. All uncropped
// channels must share one size, since the margins were derived from a
// single registration geometry.
func ApplyCropAll(channels []Channel, m Margins) ([]Channel, error) {
	var size image.Point
	for _, ch := range channels {
		if ch.State.Cropped || ch.Image == nil {
			continue
		}
		s := ch.Image.Bounds().Size()
		if size == (image.Point{}) {
			size = s
		} else if s != size {
			return nil, fmt.Errorf("channel %q is %dx%d, expected %dx%d like the other channels",
				ch.Name, s.X, s.Y, size.X, size.Y)
		}
	}

	out := make([]Channel, len(channels))
	for i, ch := range channels {
		cropped, err := ApplyCrop(ch, m)
		if err != nil {
			return nil, err
		}
		out[i] = cropped
	}
	return out, nil
}

// cropRect copies rect out of img into a new buffer whose origin is (0,0).
// 16-bit and float-friendly layouts keep their depth; everything else goes
// through imaging.Crop, which yields 8-bit NRGBA.
func cropRect(img image.Image, rect image.Rectangle) image.Image {
	dstBounds := image.Rect(0, 0, rect.Dx(), rect.Dy())

	var dst draw.Image
	switch img.(type) {
	case *image.Gray16:
		dst = image.NewGray16(dstBounds)
	case *image.RGBA64:
		dst = image.NewRGBA64(dstBounds)
	case *image.NRGBA64:
		dst = image.NewNRGBA64(dstBounds)
	case *image.Gray:
		dst = image.NewGray(dstBounds)
	default:
		return imaging.Crop(img, rect)
	}
	draw.Draw(dst, dstBounds, img, rect.Min, draw.Src)
	return dst
}
