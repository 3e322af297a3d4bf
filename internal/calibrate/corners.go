package calibrate

import (
	"fmt"

	"string-weaver/internal/export"
	"string-weaver/pkg/geometry"
)

// Corner indices into a [4]Point2D returned by OrderCorners.
const (
	TopLeft = iota
	TopRight
	BottomLeft
	BottomRight
)

// OrderCorners picks the four extreme points of a roughly rectangular
// marker layout in image coordinates (y grows downward) and returns them as
// top-left, top-right, bottom-left, bottom-right.
func OrderCorners(points []geometry.Point2D) ([4]geometry.Point2D, error) {
	var out [4]geometry.Point2D
	if len(points) < 4 {
		return out, fmt.Errorf("need 4 markers, found %d", len(points))
	}

	var idx [4]int
	for i, p := range points {
		sum, diff := p.X+p.Y, p.X-p.Y
		tl, tr := points[idx[TopLeft]], points[idx[TopRight]]
		bl, br := points[idx[BottomLeft]], points[idx[BottomRight]]
		if sum < tl.X+tl.Y {
			idx[TopLeft] = i
		}
		if sum > br.X+br.Y {
			idx[BottomRight] = i
		}
		if diff > tr.X-tr.Y {
			idx[TopRight] = i
		}
		if diff < bl.X-bl.Y {
			idx[BottomLeft] = i
		}
	}

	seen := make(map[int]bool, 4)
	for corner, i := range idx {
		if seen[i] {
			return out, fmt.Errorf("markers do not span a quadrilateral: point %d is two corners", i)
		}
		seen[i] = true
		out[corner] = points[i]
	}
	quad := []geometry.Point2D{out[TopLeft], out[TopRight], out[BottomRight], out[BottomLeft]}
	if !geometry.IsConvex(quad) {
		return out, fmt.Errorf("marker corners %v do not form a convex quadrilateral", quad)
	}
	if c := compactness(quad); c < MinCompactness {
		return out, fmt.Errorf("marker corners %v are nearly collinear (compactness %.4f < %.4f)", quad, c, MinCompactness)
	}
	return out, nil
}

// MinCompactness is the smallest area/perimeter² accepted for the marker
// quadrilateral. A square scores 1/16; a 20:1 rectangle about 0.011.
const MinCompactness = 0.01

func compactness(quad []geometry.Point2D) float64 {
	var perim float64
	for i, p := range quad {
		perim += p.Distance(quad[(i+1)%len(quad)])
	}
	if perim == 0 {
		return 0
	}
	return geometry.Area(quad) / (perim * perim)
}

// FitCorners orders detected markers and fits a homography onto the known
// physical corner positions, given in the same corner order.
func FitCorners(markers []geometry.Point2D, physical [4]geometry.Point2D) (geometry.Homography, [4]geometry.Point2D, error) {
	corners, err := OrderCorners(markers)
	if err != nil {
		return geometry.Homography{}, corners, err
	}
	h, err := FitHomography(corners[:], physical[:])
	if err != nil {
		return geometry.Homography{}, corners, fmt.Errorf("failed to fit corner homography: %w", err)
	}
	return h, corners, nil
}

// AnchorTransform exposes a fitted mapping as an export transform.
func AnchorTransform(m geometry.Mapper) export.Transform {
	return export.FromMapper(m)
}
