// Package weave implements the greedy strand-selection engine that turns a
// grayscale target into an ordered sequence of anchor visits.
package weave

import "fmt"

// Shape is the size of a board raster in pixels.
type Shape struct {
	Rows int `json:"rows" toml:"rows"`
	Cols int `json:"cols" toml:"cols"`
}

// Len returns the number of pixels in the shape.
func (s Shape) Len() int {
	return s.Rows * s.Cols
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Rows, s.Cols)
}

// Anchor is an integer pixel coordinate on the board raster.
// Anchors are referenced by their index in a fixed-order list everywhere
// outside this type.
type Anchor struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Less orders anchors by row, then column.
func (a Anchor) Less(other Anchor) bool {
	if a.Row != other.Row {
		return a.Row < other.Row
	}
	return a.Col < other.Col
}

// In reports whether the anchor lies inside the shape.
func (a Anchor) In(s Shape) bool {
	return a.Row >= 0 && a.Row < s.Rows && a.Col >= 0 && a.Col < s.Cols
}

// offset returns the row-major index of the anchor in a buffer of shape s.
func (a Anchor) offset(s Shape) int {
	return a.Row*s.Cols + a.Col
}

func (a Anchor) String() string {
	return fmt.Sprintf("(%d,%d)", a.Row, a.Col)
}
