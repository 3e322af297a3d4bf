// Command nailtest runs nail detection on a board photograph and prints the
// anchors found.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"string-weaver/internal/imaging"
	"string-weaver/internal/nails"
)

func main() {
	imagePath := flag.String("image", "", "Path to board photo (TIFF, PNG, or JPEG)")
	resolution := flag.Int("res", imaging.DefaultResolution, "Shorter side after scaling, in pixels")
	epsilon := flag.Float64("eps", 0, "Merge distance in pixels (0 = default for -res)")
	factor := flag.Float64("factor", 0, "Darkness threshold factor (0 = default)")
	markers := flag.Bool("markers", false, "Also detect calibration markers")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: nailtest -image <path> [-res 400] [-eps 7] [-factor 1.5] [-markers]")
		os.Exit(1)
	}

	img, err := imaging.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	bounds := img.Bounds()
	fmt.Printf("Loaded image: %dx%d pixels\n", bounds.Dx(), bounds.Dy())

	params := nails.DefaultParams().WithResolution(*resolution)
	if *epsilon > 0 {
		params.Epsilon = *epsilon
	}
	if *factor > 0 {
		params.DarknessFactor = *factor
	}
	fmt.Printf("\nDetection parameters:\n")
	fmt.Printf("  Resolution: %d px\n", params.Resolution)
	fmt.Printf("  Darkness factor: %.2f\n", params.DarknessFactor)
	fmt.Printf("  Area: %.1f - %.1f px\n", params.MinArea, params.MaxArea)
	fmt.Printf("  Epsilon: %.1f px\n", params.Epsilon)

	fmt.Printf("\nDetecting nails...\n")
	result, err := nails.DetectNails(img, params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Detection failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Raster %s, gray threshold %.1f\n", result.Shape, result.Level)

	fmt.Printf("\n%-6s %8s %8s %10s\n", "Index", "Row", "Col", "Centre")
	fmt.Println(strings.Repeat("-", 36))
	for i, a := range result.Anchors {
		p := result.Nails[i]
		fmt.Printf("%-6d %8d %8d %5.1f,%.1f\n", i, a.Row, a.Col, p.X, p.Y)
	}
	fmt.Printf("\nTotal: %d nails detected\n", len(result.Anchors))

	if !*markers {
		return
	}
	mp := nails.DefaultMarkerParams()
	mp.Resolution = params.Resolution
	found, err := nails.DetectMarkers(img, mp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Marker detection failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nMarkers:\n")
	for i, m := range found {
		fmt.Printf("  %d: (%.1f, %.1f)\n", i, m.X, m.Y)
	}
}
