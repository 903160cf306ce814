package model

import (
	"encoding/json"
	"fmt"
)

// BBox is an axis-aligned bounding box. Coordinates are interpreted in
// whatever space the surrounding context defines: page pixels for words and
// figures, [0,1] normalized values for anything persisted, or 0-100
// percentages for overlay positioning.
//
// Design decision: We use a named struct rather than a [4]float64 because
// field access (b.X1) is clearer than index access (b[0]) at every call
// site, while the custom JSON methods below keep the wire format as the
// compact [x1,y1,x2,y2] array the analysis backend emits.
type BBox struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() float64 {
	return b.X2 - b.X1
}

// Height returns the vertical extent of the box.
func (b BBox) Height() float64 {
	return b.Y2 - b.Y1
}

// Valid reports whether the box has positive extent in both dimensions.
// A valid word bbox always satisfies x1<x2 and y1<y2.
func (b BBox) Valid() bool {
	return b.X1 < b.X2 && b.Y1 < b.Y2
}

// Union returns the coordinate-wise union of b and other: the smallest box
// containing both. Derived line bboxes are built by repeated union.
func (b BBox) Union(other BBox) BBox {
	return BBox{
		X1: min(b.X1, other.X1),
		Y1: min(b.Y1, other.Y1),
		X2: max(b.X2, other.X2),
		Y2: max(b.Y2, other.Y2),
	}
}

// Contains reports whether other lies entirely within b.
func (b BBox) Contains(other BBox) bool {
	return other.X1 >= b.X1 && other.Y1 >= b.Y1 && other.X2 <= b.X2 && other.Y2 <= b.Y2
}

// Within reports whether the box lies inside the [0,width]x[0,height]
// rectangle. Pages enforce this invariant for their word bboxes.
func (b BBox) Within(width, height float64) bool {
	return b.X1 >= 0 && b.Y1 >= 0 && b.X2 <= width && b.Y2 <= height
}

// MarshalJSON encodes the box as the [x1,y1,x2,y2] array used by the
// analysis feed and the local cache.
func (b BBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{b.X1, b.Y1, b.X2, b.Y2})
}

// UnmarshalJSON decodes a [x1,y1,x2,y2] array.
func (b *BBox) UnmarshalJSON(data []byte) error {
	var arr [4]float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("bbox must be a [x1,y1,x2,y2] array: %w", err)
	}
	b.X1, b.Y1, b.X2, b.Y2 = arr[0], arr[1], arr[2], arr[3]
	return nil
}
