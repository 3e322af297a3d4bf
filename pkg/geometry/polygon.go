package geometry

import "math"

// IsConvex reports whether the vertices, taken in order, turn consistently
// in one direction. Fewer than three vertices, or all vertices on a line,
// are not convex.
func IsConvex(polygon []Point2D) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}

	var sign float64
	for i := 0; i < n; i++ {
		cross := crossProduct(polygon[i], polygon[(i+1)%n], polygon[(i+2)%n])
		if cross == 0 {
			continue
		}
		if sign == 0 {
			sign = math.Copysign(1, cross)
		} else if math.Signbit(cross) != math.Signbit(sign) {
			return false
		}
	}
	return sign != 0
}

// Area returns the unsigned area of a simple polygon (shoelace formula).
func Area(polygon []Point2D) float64 {
	var twice float64
	for i, p := range polygon {
		q := polygon[(i+1)%len(polygon)]
		twice += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(twice) / 2
}

// crossProduct computes the cross product of vectors OA and OB.
func crossProduct(o, a, b Point2D) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}
