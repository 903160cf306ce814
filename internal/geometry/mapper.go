package geometry

import "github.com/hayathine/paperterrace/internal/model"

// Point is a 2D point in whichever space the context defines.
type Point struct {
	X float64
	Y float64
}

// ContainerRect describes a rendered page container's on-screen geometry,
// as reported by the UI layer. Left and Top are the container's screen
// offset; Width and Height its rendered size.
type ContainerRect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// PixelToNormalized converts a page-pixel bbox to [0,1] normalized space.
// width and height must be positive; a non-positive dimension yields a zero
// box because there is no meaningful mapping.
//
// The conversion is exact and reversible to floating-point precision via
// NormalizedToPixel.
func PixelToNormalized(b model.BBox, width, height float64) model.BBox {
	if width <= 0 || height <= 0 {
		return model.BBox{}
	}
	return model.BBox{
		X1: b.X1 / width,
		Y1: b.Y1 / height,
		X2: b.X2 / width,
		Y2: b.Y2 / height,
	}
}

// NormalizedToPixel is the inverse of PixelToNormalized.
func NormalizedToPixel(b model.BBox, width, height float64) model.BBox {
	if width <= 0 || height <= 0 {
		return model.BBox{}
	}
	return model.BBox{
		X1: b.X1 * width,
		Y1: b.Y1 * height,
		X2: b.X2 * width,
		Y2: b.Y2 * height,
	}
}

// NormalizedToPercent converts a normalized bbox to overlay-percentage
// space (0-100). Percentage values are render-time-only and never persisted.
func NormalizedToPercent(b model.BBox) model.BBox {
	return model.BBox{
		X1: b.X1 * 100,
		Y1: b.Y1 * 100,
		X2: b.X2 * 100,
		Y2: b.Y2 * 100,
	}
}

// PixelToPercent converts a page-pixel bbox directly to overlay-percentage
// space. Equivalent to NormalizedToPercent(PixelToNormalized(b, w, h)).
func PixelToPercent(b model.BBox, width, height float64) model.BBox {
	return NormalizedToPercent(PixelToNormalized(b, width, height))
}

// NormalizedPointFromClient maps a pointer event's client coordinates to a
// normalized point within the container. The result is clamped to [0,1] in
// both axes even when the pointer is outside the container bounds, which
// happens when a drag continues past the container edges.
func NormalizedPointFromClient(clientX, clientY float64, rect ContainerRect) Point {
	if rect.Width <= 0 || rect.Height <= 0 {
		return Point{}
	}
	return Point{
		X: clamp01((clientX - rect.Left) / rect.Width),
		Y: clamp01((clientY - rect.Top) / rect.Height),
	}
}

// ScrollTarget computes the scroll offset that centers a target vertically
// in the viewport. pageTop is the page's on-screen top offset within the
// scrollable area, pageHeight its rendered height, normalizedY the target's
// vertical position within the page in [0,1], and viewportHeight the height
// of the visible area. Negative results are clamped to zero: the document
// top is as far up as scrolling goes.
func ScrollTarget(pageTop, pageHeight, normalizedY, viewportHeight float64) float64 {
	offset := pageTop + normalizedY*pageHeight - viewportHeight/2
	if offset < 0 {
		return 0
	}
	return offset
}

// Center returns the midpoint of a bbox, in the same space as the box.
func Center(b model.BBox) Point {
	return Point{
		X: (b.X1 + b.X2) / 2,
		Y: (b.Y1 + b.Y2) / 2,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
