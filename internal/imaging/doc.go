// Package imaging loads, samples, renders and writes the images the crop
// pipeline works on.
//
// Two kinds of image pass through here:
//   - Coverage maps: the combined per-pixel coverage (or rejection count) of
//     a stack, read as a single scalar per pixel through CoverageMap.
//   - Channel images: the full-resolution stacked results (one per color
//     plane, or a single RGB image) that receive the crop.
//
// # Coordinate System
//
// All pixel coordinates are 0-based from the top-left corner, X (column)
// increasing rightward and Y (row) increasing downward. Images whose bounds
// do not start at (0,0) are addressed relative to their Min point.
//
// # Sample Values
//
// CoverageMap normalizes every pixel to [0,1] (a 16-bit sample of 65535 reads
// as 1.0) and multiplies by the map's Scale. Rejection maps stored as raw
// counts use Scale 65535 (16-bit) or 255 (8-bit) to get the counts back.
// Color maps are reduced to one value by the configured Reduction.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. CoverageMap is immutable once built.
//
// # Formats
//
// PNG, JPEG, GIF, BMP and TIFF (8 or 16 bit) are decoded. Outputs keep the
// input's format, TIFF and PNG keeping 16-bit depth; GIF inputs are written
// back as PNG.
package imaging
