package nails

import (
	"cmp"
	"math"
	"slices"

	"string-weaver/internal/weave"
	"string-weaver/pkg/geometry"
)

// Dedupe drops every point closer than eps to a point kept before it.
func Dedupe(points []geometry.Point2D, eps float64) []geometry.Point2D {
	var kept []geometry.Point2D
	for _, p := range points {
		dup := false
		for _, k := range kept {
			if p.Distance(k) < eps {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, p)
		}
	}
	return kept
}

// startAngle points from the centre towards the top-left corner in image
// coordinates.
var startAngle = math.Atan2(-1, -1)

// OrderClockwise sorts points by their clockwise angle around centre (as
// seen on screen, y down), starting from the top-left direction. Points at
// the same angle are ordered nearest first.
func OrderClockwise(points []geometry.Point2D, centre geometry.Point2D) []geometry.Point2D {
	key := func(p geometry.Point2D) float64 {
		a := math.Atan2(p.Y-centre.Y, p.X-centre.X) - startAngle
		if a < 0 {
			a += 2 * math.Pi
		}
		return a
	}
	out := slices.Clone(points)
	slices.SortStableFunc(out, func(a, b geometry.Point2D) int {
		if c := cmp.Compare(key(a), key(b)); c != 0 {
			return c
		}
		return cmp.Compare(a.Distance(centre), b.Distance(centre))
	})
	return out
}

// ToAnchors rounds points to pixels, clamped inside shape.
func ToAnchors(points []geometry.Point2D, shape weave.Shape) []weave.Anchor {
	out := make([]weave.Anchor, len(points))
	for i, p := range points {
		out[i] = weave.Anchor{
			Row: min(max(int(math.Round(p.Y)), 0), shape.Rows-1),
			Col: min(max(int(math.Round(p.X)), 0), shape.Cols-1),
		}
	}
	return out
}

// byPosition orders points top to bottom, then left to right.
func byPosition(a, b geometry.Point2D) int {
	if c := cmp.Compare(a.Y, b.Y); c != 0 {
		return c
	}
	return cmp.Compare(a.X, b.X)
}
