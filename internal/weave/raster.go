package weave

import (
	"cmp"
	"fmt"
	"image"
	"image/draw"
	"math"
	"slices"

	"golang.org/x/image/vector"
)

// RasterMode selects how a strand's pixel footprint is computed.
type RasterMode int

const (
	// RasterUniform walks the Bresenham line; every pixel has weight 1.
	RasterUniform RasterMode = iota
	// RasterAntiAliased weights pixels by their coverage of a one pixel
	// wide segment between the two anchor centres.
	RasterAntiAliased
)

func (m RasterMode) String() string {
	switch m {
	case RasterUniform:
		return "uniform"
	case RasterAntiAliased:
		return "antialiased"
	default:
		return "unknown"
	}
}

// ParseRasterMode converts the textual name of a mode back to its value.
func ParseRasterMode(s string) (RasterMode, error) {
	switch s {
	case "uniform", "":
		return RasterUniform, nil
	case "antialiased", "aa":
		return RasterAntiAliased, nil
	}
	return 0, fmt.Errorf("%w: unknown raster mode %q", ErrConfig, s)
}

// Sample is one pixel of a strand's footprint with its coverage weight in (0, 1].
type Sample struct {
	Pixel  Anchor
	Weight float64
}

// Rasterize returns the pixels the straight segment from a to b touches,
// ordered from a to b. The footprint is always computed in canonical
// anchor order, so Rasterize(b, a) is the exact reverse of Rasterize(a, b).
func Rasterize(a, b Anchor, shape Shape, mode RasterMode) ([]Sample, error) {
	if a == b {
		return nil, fmt.Errorf("%w: degenerate strand %s-%s", ErrGeometry, a, b)
	}
	for _, p := range [2]Anchor{a, b} {
		if !p.In(shape) {
			return nil, fmt.Errorf("%w: anchor %s outside board %s", ErrGeometry, p, shape)
		}
	}

	swapped := b.Less(a)
	if swapped {
		a, b = b, a
	}

	var path []Sample
	switch mode {
	case RasterUniform:
		path = bresenham(a, b)
	case RasterAntiAliased:
		path = coverage(a, b, shape)
	default:
		return nil, fmt.Errorf("%w: unknown raster mode %d", ErrConfig, int(mode))
	}

	if swapped {
		slices.Reverse(path)
	}
	return path, nil
}

func bresenham(a, b Anchor) []Sample {
	dx := abs(b.Col - a.Col)
	dy := -abs(b.Row - a.Row)
	sx, sy := 1, 1
	if b.Col < a.Col {
		sx = -1
	}
	if b.Row < a.Row {
		sy = -1
	}

	path := make([]Sample, 0, max(dx, -dy)+1)
	x, y := a.Col, a.Row
	e := dx + dy
	for {
		path = append(path, Sample{Pixel: Anchor{Row: y, Col: x}, Weight: 1})
		if x == b.Col && y == b.Row {
			break
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
	return path
}

// coverage rasterizes a square-capped, one pixel wide quad around the
// segment joining the two pixel centres and reads back per-pixel alpha.
func coverage(a, b Anchor, shape Shape) []Sample {
	const half = 0.5

	x0, y0 := float64(a.Col)+half, float64(a.Row)+half
	x1, y1 := float64(b.Col)+half, float64(b.Row)+half
	length := math.Hypot(x1-x0, y1-y0)
	ux, uy := (x1-x0)/length, (y1-y0)/length
	nx, ny := -uy*half, ux*half

	sx0, sy0 := x0-ux*half, y0-uy*half
	sx1, sy1 := x1+ux*half, y1+uy*half
	quad := [4][2]float64{
		{sx0 + nx, sy0 + ny},
		{sx1 + nx, sy1 + ny},
		{sx1 - nx, sy1 - ny},
		{sx0 - nx, sy0 - ny},
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, q := range quad {
		minX, maxX = math.Min(minX, q[0]), math.Max(maxX, q[0])
		minY, maxY = math.Min(minY, q[1]), math.Max(maxY, q[1])
	}
	left := max(0, int(math.Floor(minX)))
	top := max(0, int(math.Floor(minY)))
	right := min(shape.Cols, int(math.Ceil(maxX)))
	bottom := min(shape.Rows, int(math.Ceil(maxY)))
	w, h := right-left, bottom-top

	r := vector.NewRasterizer(w, h)
	r.DrawOp = draw.Src
	ox, oy := float64(left), float64(top)
	r.MoveTo(float32(quad[0][0]-ox), float32(quad[0][1]-oy))
	for _, q := range quad[1:] {
		r.LineTo(float32(q[0]-ox), float32(q[1]-oy))
	}
	r.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	type projected struct {
		Sample
		t float64
	}
	var hits []projected
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			alpha := mask.AlphaAt(x, y).A
			if alpha == 0 {
				continue
			}
			px, py := left+x, top+y
			t := (float64(px)+half-x0)*ux + (float64(py)+half-y0)*uy
			hits = append(hits, projected{
				Sample: Sample{Pixel: Anchor{Row: py, Col: px}, Weight: float64(alpha) / 255},
				t:      t,
			})
		}
	}

	slices.SortFunc(hits, func(p, q projected) int {
		if c := cmp.Compare(p.t, q.t); c != 0 {
			return c
		}
		if c := cmp.Compare(p.Pixel.Row, q.Pixel.Row); c != 0 {
			return c
		}
		return cmp.Compare(p.Pixel.Col, q.Pixel.Col)
	})

	path := make([]Sample, len(hits))
	for i, p := range hits {
		path[i] = p.Sample
	}
	return path
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
