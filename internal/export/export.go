// Package export turns a weave sequence into the coordinate list a
// stringing machine follows.
package export

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"string-weaver/internal/weave"
	"string-weaver/pkg/geometry"
)

// Transform maps an anchor's pixel position to device coordinates.
type Transform func(weave.Anchor) (geometry.Point2D, error)

// Pixel is the identity transform: x is the column, y the row.
func Pixel(a weave.Anchor) (geometry.Point2D, error) {
	return geometry.Point2D{X: float64(a.Col), Y: float64(a.Row)}, nil
}

// FromMapper adapts a fitted pixel-to-device mapping. Anchors that map to a
// non-finite point are reported as errors.
func FromMapper(m geometry.Mapper) Transform {
	return func(a weave.Anchor) (geometry.Point2D, error) {
		p, _ := Pixel(a)
		out := m.Apply(p)
		if math.IsNaN(out.X) || math.IsNaN(out.Y) || math.IsInf(out.X, 0) || math.IsInf(out.Y, 0) {
			return geometry.Point2D{}, fmt.Errorf("anchor %s maps to a non-finite point", a)
		}
		return out, nil
	}
}

// Export resolves each sequence entry to its anchor and transforms it. A nil
// transform yields raw pixel coordinates.
func Export(sequence []int, anchors []weave.Anchor, transform Transform) ([]geometry.Point2D, error) {
	if transform == nil {
		transform = Pixel
	}
	out := make([]geometry.Point2D, len(sequence))
	for step, idx := range sequence {
		if idx < 0 || idx >= len(anchors) {
			return nil, fmt.Errorf("step %d: anchor index %d out of range [0,%d)", step, idx, len(anchors))
		}
		p, err := transform(anchors[idx])
		if err != nil {
			return nil, fmt.Errorf("step %d: failed to transform anchor %d: %w", step, idx, err)
		}
		out[step] = p
	}
	return out, nil
}

// WriteCoordinates writes one "x y" pair per line with two decimals.
func WriteCoordinates(w io.Writer, pts []geometry.Point2D) error {
	bw := bufio.NewWriter(w)
	for _, p := range pts {
		if _, err := fmt.Fprintf(bw, "%.2f %.2f\n", p.X, p.Y); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteSequence writes one anchor index per line.
func WriteSequence(w io.Writer, sequence []int) error {
	bw := bufio.NewWriter(w)
	for _, idx := range sequence {
		if _, err := fmt.Fprintf(bw, "%d\n", idx); err != nil {
			return err
		}
	}
	return bw.Flush()
}
