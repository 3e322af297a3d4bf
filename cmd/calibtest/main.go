// Command calibtest detects calibration markers on a board photograph, fits
// pixel-to-device transforms and prints per-marker residuals.
package main

import (
	"flag"
	"fmt"
	"os"

	"string-weaver/internal/board"
	"string-weaver/internal/calibrate"
	"string-weaver/internal/imaging"
	"string-weaver/internal/nails"
	"string-weaver/pkg/geometry"
)

func main() {
	profile := flag.String("p", "plotter-520x650", "Board spec name or JSON file")
	imagePath := flag.String("image", "", "Path to board photo")
	resolution := flag.Int("res", imaging.DefaultResolution, "Shorter side after scaling, in pixels")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: calibtest -image <photo> [-p <board>] [-res 400]")
		os.Exit(1)
	}

	spec, err := board.Resolve(*profile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	img, err := imaging.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}

	params := nails.DefaultMarkerParams()
	params.Resolution = *resolution
	fmt.Printf("=== Detecting markers: %s ===\n", *imagePath)
	markers, err := nails.DetectMarkers(img, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Marker detection failed: %v\n", err)
		os.Exit(1)
	}
	for i, m := range markers {
		fmt.Printf("  marker %d at (%.1f, %.1f)\n", i, m.X, m.Y)
	}

	corners, err := calibrate.OrderCorners(markers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to order corners: %v\n", err)
		os.Exit(1)
	}
	physical := spec.MarkerPositions()

	fmt.Printf("\n=== Affine fit (%s) ===\n", spec.Name())
	affine, err := calibrate.FitAffine(corners[:], physical[:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Affine fit failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  [%9.4f %9.4f %10.2f]\n", affine.A, affine.B, affine.TX)
	fmt.Printf("  [%9.4f %9.4f %10.2f]\n", affine.C, affine.D, affine.TY)
	printResiduals(affine, corners[:], physical[:])

	fmt.Printf("\n=== Homography fit ===\n")
	h, err := calibrate.FitHomography(corners[:], physical[:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Homography fit failed: %v\n", err)
		os.Exit(1)
	}
	for r := 0; r < 3; r++ {
		fmt.Printf("  [%10.5f %10.5f %10.3f]\n", h[r*3], h[r*3+1], h[r*3+2])
	}
	printResiduals(h, corners[:], physical[:])
}

var cornerNames = [4]string{"top-left", "top-right", "bottom-left", "bottom-right"}

func printResiduals(m geometry.Mapper, pixel, physical []geometry.Point2D) {
	for i, r := range calibrate.Residuals(m, pixel, physical) {
		p := m.Apply(pixel[i])
		fmt.Printf("  %-12s px (%6.1f, %6.1f) -> (%8.2f, %8.2f) want (%8.2f, %8.2f) err %.3f\n",
			cornerNames[i], pixel[i].X, pixel[i].Y, p.X, p.Y, physical[i].X, physical[i].Y, r)
	}
	fmt.Printf("  mean error: %.3f\n", calibrate.MeanError(m, pixel, physical))
}
