// Package nails finds the nails and calibration markers on a photograph of
// a weaving board.
package nails

import (
	"fmt"
	"image"
	"log/slog"
	"slices"

	"string-weaver/internal/imaging"
	"string-weaver/internal/weave"
	"string-weaver/pkg/geometry"

	"gocv.io/x/gocv"
)

// Result holds the nails found on a board photograph.
type Result struct {
	Shape   weave.Shape        `json:"shape"`   // raster the positions refer to
	Nails   []geometry.Point2D `json:"nails"`   // blob centres, clockwise
	Anchors []weave.Anchor     `json:"anchors"` // Nails rounded to pixels
	Level   float64            `json:"level"`   // gray threshold used
	Params  Params             `json:"params"`
}

// DetectNails finds dark blobs on a light board. Blobs closer than
// params.Epsilon are merged and the survivors are ordered clockwise around
// the board centre so anchor indices are stable between runs.
func DetectNails(src image.Image, params Params) (*Result, error) {
	mat, scaled, err := prepare(src, params.Resolution)
	if err != nil {
		return nil, err
	}
	defer mat.Close()
	b := scaled.Bounds()
	shape := weave.Shape{Rows: b.Dy(), Cols: b.Dx()}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	if params.BlurSize > 1 {
		gocv.GaussianBlur(gray, &gray, image.Point{params.BlurSize, params.BlurSize}, 0, 0, gocv.BorderDefault)
	}

	// darkness = 1 - gray/255; a nail is darker than factor*mean(darkness)
	meanDark := 1 - gray.Mean().Val1/255
	level := 255 * (1 - params.DarknessFactor*meanDark)
	result := &Result{Shape: shape, Level: level, Params: params}
	if level <= 0 {
		slog.Warn("nail threshold below black, board too dark", "mean_darkness", meanDark)
		return result, nil
	}

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(gray, &mask, float32(level), 255, gocv.ThresholdBinaryInv)

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{3, 3})
	defer kernel.Close()
	gocv.MorphologyEx(mask, &mask, gocv.MorphOpen, kernel)

	centres := blobCentres(mask, params.MinArea, params.MaxArea)
	slices.SortFunc(centres, byPosition)
	centres = Dedupe(centres, params.Epsilon)

	centre := geometry.Point2D{X: float64(shape.Cols) / 2, Y: float64(shape.Rows) / 2}
	result.Nails = OrderClockwise(centres, centre)
	result.Anchors = ToAnchors(result.Nails, shape)

	slog.Info("nail detection complete", "nails", len(result.Nails), "level", level, "shape", shape.String())
	return result, nil
}

// DetectMarkers returns the centres of blobs whose colour falls in any of
// params.Bands, ordered top to bottom then left to right.
func DetectMarkers(src image.Image, params MarkerParams) ([]geometry.Point2D, error) {
	if len(params.Bands) == 0 {
		return nil, fmt.Errorf("no marker colour bands")
	}
	mat, scaled, err := prepare(src, params.Resolution)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(mat, &hsv, gocv.ColorBGRToHSV)

	combined := gocv.Zeros(hsv.Rows(), hsv.Cols(), gocv.MatTypeCV8U)
	defer combined.Close()
	band := gocv.NewMat()
	defer band.Close()
	for _, r := range params.Bands {
		gocv.InRangeWithScalar(hsv,
			gocv.NewScalar(r.HueMin, r.SatMin, r.ValMin, 0),
			gocv.NewScalar(r.HueMax, r.SatMax, r.ValMax, 0),
			&band)
		gocv.BitwiseOr(combined, band, &combined)
	}

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{3, 3})
	defer kernel.Close()
	gocv.MorphologyEx(combined, &combined, gocv.MorphOpen, kernel)

	// The blob centre must itself be marker coloured.
	var markers []geometry.Point2D
	for _, c := range blobCentres(combined, params.MinArea, 0) {
		px := scaled.At(scaled.Bounds().Min.X+int(c.X+0.5), scaled.Bounds().Min.Y+int(c.Y+0.5))
		if params.Matches(px) {
			markers = append(markers, c)
		}
	}
	slices.SortFunc(markers, byPosition)
	return markers, nil
}

// blobCentres returns the bounding-box centre of every external contour
// whose area lies in [minArea, maxArea]. maxArea <= 0 means unbounded.
func blobCentres(mask gocv.Mat, minArea, maxArea float64) []geometry.Point2D {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var out []geometry.Point2D
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area < minArea || (maxArea > 0 && area > maxArea) {
			continue
		}
		r := gocv.BoundingRect(contour)
		out = append(out, geometry.Point2D{
			X: float64(r.Min.X+r.Max.X-1) / 2,
			Y: float64(r.Min.Y+r.Max.Y-1) / 2,
		})
	}
	return out
}

// prepare scales src to resolution (when positive) and converts it to a BGR
// Mat. The scaled image is returned alongside.
func prepare(src image.Image, resolution int) (gocv.Mat, image.Image, error) {
	if src.Bounds().Empty() {
		return gocv.Mat{}, nil, fmt.Errorf("empty image")
	}
	if resolution > 0 {
		scaled, err := imaging.ScaleToResolution(src, resolution)
		if err != nil {
			return gocv.Mat{}, nil, fmt.Errorf("failed to scale board photo: %w", err)
		}
		src = scaled
	}
	return imageToMat(src), src, nil
}

// imageToMat copies an image into an 8-bit BGR Mat.
func imageToMat(src image.Image) gocv.Mat {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}
	return mat
}
