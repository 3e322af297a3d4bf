package calibrate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"string-weaver/internal/weave"
	"string-weaver/pkg/geometry"
)

var truth = geometry.AffineTransform{A: 0.8, B: -0.1, TX: -186.65, C: 0.05, D: 1.6, TY: -17.17}

func gridPoints() []geometry.Point2D {
	var pts []geometry.Point2D
	for y := 0.0; y <= 400; y += 100 {
		for x := 0.0; x <= 300; x += 150 {
			pts = append(pts, geometry.Point2D{X: x, Y: y})
		}
	}
	return pts
}

func mapAll(m geometry.Mapper, pts []geometry.Point2D) []geometry.Point2D {
	out := make([]geometry.Point2D, len(pts))
	for i, p := range pts {
		out[i] = m.Apply(p)
	}
	return out
}

func TestFitAffine(t *testing.T) {
	pix := gridPoints()
	phys := mapAll(truth, pix)

	got, err := FitAffine(pix, phys)
	require.NoError(t, err)
	assert.InDelta(t, truth.A, got.A, 1e-9)
	assert.InDelta(t, truth.B, got.B, 1e-9)
	assert.InDelta(t, truth.TX, got.TX, 1e-6)
	assert.InDelta(t, truth.C, got.C, 1e-9)
	assert.InDelta(t, truth.D, got.D, 1e-9)
	assert.InDelta(t, truth.TY, got.TY, 1e-6)
	assert.Less(t, MeanError(got, pix, phys), 1e-6)
}

func TestFitAffineErrors(t *testing.T) {
	_, err := FitAffine([]geometry.Point2D{{X: 0, Y: 0}, {X: 1, Y: 1}}, []geometry.Point2D{{X: 0, Y: 0}, {X: 1, Y: 1}})
	require.Error(t, err)

	_, err = FitAffine(gridPoints(), gridPoints()[:3])
	require.Error(t, err)
}

func TestFitAffineRANSACRejectsOutlier(t *testing.T) {
	pix := gridPoints()
	phys := mapAll(truth, pix)
	phys[4] = phys[4].Add(geometry.Point2D{X: 80, Y: -40})

	got, inliers, err := FitAffineRANSAC(pix, phys, 200, 1.0, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Len(t, inliers, len(pix)-1)
	assert.NotContains(t, inliers, 4)
	assert.InDelta(t, truth.A, got.A, 1e-6)
	assert.InDelta(t, truth.TY, got.TY, 1e-4)
}

func TestFitHomography(t *testing.T) {
	h := geometry.Homography{1.2, 0.1, 5, -0.05, 0.9, 12, 0.0004, -0.0002, 1}
	pix := gridPoints()
	phys := mapAll(h, pix)

	got, err := FitHomography(pix, phys)
	require.NoError(t, err)
	for i := range got {
		assert.InDelta(t, h[i], got[i], 1e-6, "h[%d]", i)
	}
	assert.Less(t, MeanError(got, pix, phys), 1e-6)
}

func TestFitHomographyFourCorners(t *testing.T) {
	pix := []geometry.Point2D{{X: 10, Y: 12}, {X: 390, Y: 8}, {X: 14, Y: 395}, {X: 388, Y: 399}}
	phys := []geometry.Point2D{{X: -179.06, Y: -17.17}, {X: 339, Y: -5.82}, {X: -186.65, Y: 630.64}, {X: 335, Y: 642.5}}

	h, err := FitHomography(pix, phys)
	require.NoError(t, err)
	for _, r := range Residuals(h, pix, phys) {
		assert.Less(t, r, 1e-6)
	}
}

func TestFitHomographyCollinear(t *testing.T) {
	pix := []geometry.Point2D{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}
	_, err := FitHomography(pix, pix)
	require.Error(t, err)
}

func TestOrderCorners(t *testing.T) {
	markers := []geometry.Point2D{{X: 388, Y: 399}, {X: 14, Y: 395}, {X: 390, Y: 8}, {X: 10, Y: 12}}
	got, err := OrderCorners(markers)
	require.NoError(t, err)
	assert.Equal(t, geometry.Point2D{X: 10, Y: 12}, got[TopLeft])
	assert.Equal(t, geometry.Point2D{X: 390, Y: 8}, got[TopRight])
	assert.Equal(t, geometry.Point2D{X: 14, Y: 395}, got[BottomLeft])
	assert.Equal(t, geometry.Point2D{X: 388, Y: 399}, got[BottomRight])

	_, err = OrderCorners(markers[:3])
	require.Error(t, err)

	_, err = OrderCorners([]geometry.Point2D{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}})
	require.Error(t, err, "collinear markers cannot be four distinct corners")

	_, err = OrderCorners([]geometry.Point2D{{X: 0, Y: 0}, {X: 100, Y: 1}, {X: 1, Y: 2}, {X: 101, Y: 3}})
	require.Error(t, err, "a convex sliver is rejected")
	assert.Contains(t, err.Error(), "nearly collinear")
}

func TestFitCorners(t *testing.T) {
	physical := [4]geometry.Point2D{{X: 0, Y: 0}, {X: 500, Y: 0}, {X: 0, Y: 700}, {X: 500, Y: 700}}
	markers := []geometry.Point2D{{X: 402, Y: 398}, {X: 5, Y: 3}, {X: 3, Y: 401}, {X: 399, Y: 6}}

	h, corners, err := FitCorners(markers, physical)
	require.NoError(t, err)
	assert.Equal(t, geometry.Point2D{X: 5, Y: 3}, corners[TopLeft])
	for i, c := range corners {
		p := h.Apply(c)
		assert.InDelta(t, physical[i].X, p.X, 1e-6)
		assert.InDelta(t, physical[i].Y, p.Y, 1e-6)
	}
}

func TestAnchorTransform(t *testing.T) {
	tr := AnchorTransform(truth)
	got, err := tr(weave.Anchor{Row: 100, Col: 150})
	require.NoError(t, err)
	assert.Equal(t, truth.Apply(geometry.Point2D{X: 150, Y: 100}), got)
}
