package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"

	"github.com/disintegration/imaging"
)

// PreviewResult contains a rendered crop preview.
type PreviewResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// defaultOutline is used when the requested outline color does not parse.
var defaultOutline = color.NRGBA{255, 0, 0, 255}

// RenderPreview draws the coverage map stretched to 8-bit gray, dims
// everything outside rect, and outlines rect. rect uses exclusive Max, like
// image.Rectangle. The result is scaled by scale before encoding.
func RenderPreview(m *CoverageMap, rect image.Rectangle, outlineHex string, scale float64) (*PreviewResult, error) {
	img, err := previewImage(m, rect, outlineHex)
	if err != nil {
		return nil, err
	}

	var out image.Image = img
	if scale != 1.0 && scale > 0 {
		w := int(float64(img.Bounds().Dx()) * scale)
		h := int(float64(img.Bounds().Dy()) * scale)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		out = imaging.Resize(img, w, h, imaging.NearestNeighbor)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &PreviewResult{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

func previewImage(m *CoverageMap, rect image.Rectangle, outlineHex string) (*image.NRGBA, error) {
	bounds := image.Rect(0, 0, m.Width(), m.Height())
	if rect.Empty() || !rect.In(bounds) {
		return nil, fmt.Errorf("preview rectangle %v outside coverage map %v", rect, bounds)
	}

	outline, err := parseHexColor(outlineHex)
	if err != nil {
		outline = defaultOutline
	}

	lo, hi := m.values[0], m.values[0]
	for _, v := range m.values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	img := image.NewNRGBA(bounds)
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			g := uint8((m.Sample(x, y) - lo) / span * 255)
			if !(image.Point{x, y}).In(rect) {
				g /= 3
			}
			img.SetNRGBA(x, y, color.NRGBA{g, g, g, 255})
		}
	}

	for x := rect.Min.X; x < rect.Max.X; x++ {
		img.SetNRGBA(x, rect.Min.Y, outline)
		img.SetNRGBA(x, rect.Max.Y-1, outline)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		img.SetNRGBA(rect.Min.X, y, outline)
		img.SetNRGBA(rect.Max.X-1, y, outline)
	}
	return img, nil
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}
