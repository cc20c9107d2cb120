// Package autocrop finds the common-area crop rectangle of a stacked image.
//
// When many registered exposures are combined, dithering and field rotation
// leave the borders of the result covered by only some of the frames. The
// combiner reports this as a coverage (or rejection) map: one scalar per
// pixel. This package takes such a map, finds the largest axis-aligned
// rectangle around the image center in which every pixel is valid, and turns
// it into edge margins that are applied identically to every channel.
//
// # Stages
//
// A solve runs four stages in order, each one only ever shrinking the box:
//
//  1. SeedFromCenter: probe the center (with two nudged fallbacks) and scan
//     outward along the cross-hair to seed the largest candidate box.
//  2. RelaxCorners: move corners inward, round-robin, until all four are valid.
//  3. TrimBorders: move whole border lines inward until none carries an
//     invalid run longer than one sample, giving up after 100 cycles.
//  4. ComputeMargins: convert the box into margins and coverage-loss figures.
//
// SeedFromCenter and RelaxCorners fail with CenterInvalid, TrimBorders with
// WiggleLimitExceeded. Solve reports failures in its Result, never by
// panicking, so callers can continue uncropped.
//
// # Coordinates
//
// Columns increase rightward and rows downward from (0,0) at the top-left.
// Box edges are inclusive pixel indices.
//
// # Concurrency
//
// Solving is single-threaded and deterministic. Inputs are never mutated;
// ApplyCrop returns new buffers.
package autocrop
