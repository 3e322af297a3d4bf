package weave

import "fmt"

// TraceBorder walks one lap around the board, visiting every border pixel
// exactly once: down the left column, right along the bottom row, up the
// right column and back left along the top row.
func TraceBorder(shape Shape) []Anchor {
	rows, cols := shape.Rows, shape.Cols
	if rows < 2 || cols < 2 {
		return nil
	}
	border := make([]Anchor, 0, 2*(rows-1)+2*(cols-1))
	for i := 0; i < rows-1; i++ {
		border = append(border, Anchor{Row: i, Col: 0})
	}
	for j := 0; j < cols-1; j++ {
		border = append(border, Anchor{Row: rows - 1, Col: j})
	}
	for i := rows - 1; i >= 1; i-- {
		border = append(border, Anchor{Row: i, Col: cols - 1})
	}
	for j := cols - 1; j >= 1; j-- {
		border = append(border, Anchor{Row: 0, Col: j})
	}
	return border
}

// Layout distributes anchors along the board border at a fixed pixel gap of
// floor(perimeter/anchorCount). The count is a target: when the perimeter is
// not a multiple of the gap, ceil(perimeter/gap) anchors are returned.
func Layout(shape Shape, anchorCount int) ([]Anchor, error) {
	if anchorCount < 2 {
		return nil, fmt.Errorf("%w: anchor count %d, need at least 2", ErrConfig, anchorCount)
	}
	if shape.Rows < 2 || shape.Cols < 2 {
		return nil, fmt.Errorf("%w: board %s too small for a border", ErrConfig, shape)
	}

	border := TraceBorder(shape)
	perimeter := len(border)
	gap := perimeter / anchorCount
	if gap == 0 {
		return nil, fmt.Errorf("%w: anchor count %d exceeds perimeter %d of board %s",
			ErrConfig, anchorCount, perimeter, shape)
	}

	anchors := make([]Anchor, 0, (perimeter+gap-1)/gap)
	for i := 0; i < perimeter; i += gap {
		anchors = append(anchors, border[i])
	}
	return anchors, nil
}
