// Package calibrate fits the pixel-to-device transform that maps anchor
// positions on a photographed board to the physical coordinates a weaving
// machine moves to.
package calibrate

import (
	"fmt"
	"math"
	"math/rand"

	"string-weaver/pkg/geometry"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// FitAffine computes the least-squares affine transform taking each pixel
// point to its physical counterpart. At least 3 non-collinear pairs are needed.
func FitAffine(pixel, physical []geometry.Point2D) (geometry.AffineTransform, error) {
	if len(pixel) != len(physical) {
		return geometry.AffineTransform{}, fmt.Errorf("point count mismatch: %d vs %d", len(pixel), len(physical))
	}
	if len(pixel) < 3 {
		return geometry.AffineTransform{}, fmt.Errorf("need at least 3 points, got %d", len(pixel))
	}

	n := len(pixel)
	A := mat.NewDense(n*2, 6, nil)
	B := mat.NewVecDense(n*2, nil)
	for i := 0; i < n; i++ {
		x, y := pixel[i].X, pixel[i].Y

		// x' = a*x + b*y + tx
		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		B.SetVec(i*2, physical[i].X)

		// y' = c*x + d*y + ty
		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		B.SetVec(i*2+1, physical[i].Y)
	}

	var qr mat.QR
	qr.Factorize(A)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return geometry.AffineTransform{}, fmt.Errorf("affine fit is degenerate: %w", err)
	}

	return geometry.AffineTransform{
		A:  params.AtVec(0),
		B:  params.AtVec(1),
		TX: params.AtVec(2),
		C:  params.AtVec(3),
		D:  params.AtVec(4),
		TY: params.AtVec(5),
	}, nil
}

// FitAffineRANSAC fits an affine transform that tolerates mismatched pairs,
// for example a stray blob picked up as a marker. Samples of 3 pairs are
// drawn from rng; the largest consensus set within threshold is refitted
// by least squares. The indices of the inliers are returned.
func FitAffineRANSAC(pixel, physical []geometry.Point2D, iterations int, threshold float64, rng *rand.Rand) (geometry.AffineTransform, []int, error) {
	if len(pixel) != len(physical) || len(pixel) < 3 {
		return geometry.AffineTransform{}, nil, fmt.Errorf("invalid point sets: %d and %d points", len(pixel), len(physical))
	}

	n := len(pixel)
	var bestInliers []int
	sample := make([]geometry.Point2D, 3)
	target := make([]geometry.Point2D, 3)

	for iter := 0; iter < iterations; iter++ {
		for i, idx := range rng.Perm(n)[:3] {
			sample[i] = pixel[idx]
			target[i] = physical[idx]
		}
		t, err := FitAffine(sample, target)
		if err != nil {
			continue
		}

		var inliers []int
		for i := range pixel {
			if t.Apply(pixel[i]).Distance(physical[i]) < threshold {
				inliers = append(inliers, i)
			}
		}
		if len(inliers) > len(bestInliers) {
			bestInliers = inliers
		}
	}

	if len(bestInliers) < 3 {
		return geometry.AffineTransform{}, nil, fmt.Errorf("RANSAC found %d inliers, need 3", len(bestInliers))
	}

	inPix := make([]geometry.Point2D, len(bestInliers))
	inPhys := make([]geometry.Point2D, len(bestInliers))
	for i, idx := range bestInliers {
		inPix[i] = pixel[idx]
		inPhys[i] = physical[idx]
	}
	t, err := FitAffine(inPix, inPhys)
	if err != nil {
		return geometry.AffineTransform{}, nil, err
	}
	return t, bestInliers, nil
}

// FitHomography computes the projective transform taking pixel points to
// physical points with the normalised direct linear transform. At least 4
// pairs, no three collinear, are needed.
func FitHomography(pixel, physical []geometry.Point2D) (geometry.Homography, error) {
	if len(pixel) != len(physical) {
		return geometry.Homography{}, fmt.Errorf("point count mismatch: %d vs %d", len(pixel), len(physical))
	}
	if len(pixel) < 4 {
		return geometry.Homography{}, fmt.Errorf("need at least 4 points, got %d", len(pixel))
	}

	srcT, src := normalise(pixel)
	dstT, dst := normalise(physical)

	n := len(src)
	A := mat.NewDense(n*2, 9, nil)
	for i := 0; i < n; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		A.SetRow(i*2, []float64{-x, -y, -1, 0, 0, 0, u * x, u * y, u})
		A.SetRow(i*2+1, []float64{0, 0, 0, -x, -y, -1, v * x, v * y, v})
	}

	var svd mat.SVD
	if ok := svd.Factorize(A, mat.SVDFull); !ok {
		return geometry.Homography{}, fmt.Errorf("homography SVD did not converge")
	}
	values := svd.Values(nil)
	if len(values) >= 8 && values[7] < 1e-12*values[0] {
		return geometry.Homography{}, fmt.Errorf("homography fit is degenerate (collinear points?)")
	}
	var v mat.Dense
	svd.VTo(&v)
	hn := mat.NewDense(3, 3, nil)
	for k := 0; k < 9; k++ {
		hn.Set(k/3, k%3, v.At(k, 8))
	}

	// H = dstT^-1 * Hn * srcT
	var dstInv mat.Dense
	if err := dstInv.Inverse(dstT); err != nil {
		return geometry.Homography{}, fmt.Errorf("failed to invert normalisation: %w", err)
	}
	var tmp, h mat.Dense
	tmp.Mul(hn, srcT)
	h.Mul(&dstInv, &tmp)

	var out geometry.Homography
	scale := h.At(2, 2)
	if math.Abs(scale) < 1e-12 {
		scale = 1
	}
	for k := 0; k < 9; k++ {
		out[k] = h.At(k/3, k%3) / scale
	}
	return out, nil
}

// normalise translates points to their centroid and scales them to a mean
// distance of sqrt(2), returning the 3x3 matrix that does so.
func normalise(points []geometry.Point2D) (*mat.Dense, []geometry.Point2D) {
	c := geometry.Centroid(points)
	dists := make([]float64, len(points))
	for i, p := range points {
		dists[i] = p.Distance(c)
	}
	mean := floats.Sum(dists) / float64(len(dists))
	s := 1.0
	if mean > 0 {
		s = math.Sqrt2 / mean
	}

	out := make([]geometry.Point2D, len(points))
	for i, p := range points {
		out[i] = p.Sub(c).Scale(s)
	}
	return mat.NewDense(3, 3, []float64{
		s, 0, -s * c.X,
		0, s, -s * c.Y,
		0, 0, 1,
	}), out
}

// Residuals returns the distance between each mapped pixel point and its
// physical counterpart.
func Residuals(m geometry.Mapper, pixel, physical []geometry.Point2D) []float64 {
	out := make([]float64, len(pixel))
	for i := range pixel {
		out[i] = m.Apply(pixel[i]).Distance(physical[i])
	}
	return out
}

// MeanError returns the mean residual of the mapping, or +Inf when there
// is nothing to compare.
func MeanError(m geometry.Mapper, pixel, physical []geometry.Point2D) float64 {
	if len(pixel) != len(physical) || len(pixel) == 0 {
		return math.Inf(1)
	}
	return floats.Sum(Residuals(m, pixel, physical)) / float64(len(pixel))
}
