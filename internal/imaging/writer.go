package imaging

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"golang.org/x/image/tiff"
)

// tiffEncoder keeps 16-bit data intact, which PNG would too but most stacking
// tools expect TIFF back.
func tiffEncoder(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

// encoderFor picks an encoder from the output file extension. Unknown
// extensions get PNG.
func encoderFor(path string) imgio.Encoder {
	switch FormatFromPath(path) {
	case "jpeg":
		return imgio.JPEGEncoder(95)
	case "bmp":
		return imgio.BMPEncoder()
	case "tiff":
		return tiffEncoder
	default:
		return imgio.PNGEncoder()
	}
}

// Save writes img to path, creating the parent directory if needed.
func Save(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := imgio.Save(path, img, encoderFor(path)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// CroppedPath returns where the cropped version of src goes: next to src,
// or in outDir when set, with a "_cropped" suffix before the extension.
// GIF and unknown inputs are written as PNG.
func CroppedPath(src, outDir string) string {
	ext := filepath.Ext(src)
	base := strings.TrimSuffix(filepath.Base(src), ext)
	switch FormatFromPath(src) {
	case "gif", "unknown":
		ext = ".png"
	}

	dir := filepath.Dir(src)
	if outDir != "" {
		dir = outDir
	}
	return filepath.Join(dir, base+"_cropped"+ext)
}
