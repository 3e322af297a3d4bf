// Package imaging loads target pictures and board photographs and brings
// them to the raster the weave runs on.
package imaging

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"

	"string-weaver/internal/weave"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// DefaultResolution is the length, in pixels, of the shorter side of a
// board photograph after normalisation.
const DefaultResolution = 400

// Load decodes a PNG, JPEG or TIFF image from path.
func Load(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// LoadGray loads an image and converts it to grayscale.
func LoadGray(path string) (*image.Gray, error) {
	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	return ToGray(img), nil
}

// ToGray converts img to luma, rebased so its bounds start at the origin.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// FitToShape scales gray until it covers shape, then crops the centred
// middle so the result is exactly shape.Cols wide and shape.Rows tall.
func FitToShape(gray *image.Gray, shape weave.Shape) (*image.Gray, error) {
	b := gray.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("cannot fit empty image")
	}
	if shape.Rows <= 0 || shape.Cols <= 0 {
		return nil, fmt.Errorf("invalid board shape %s", shape)
	}

	scale := math.Max(float64(shape.Rows)/float64(b.Dy()), float64(shape.Cols)/float64(b.Dx()))
	sw := max(shape.Cols, int(math.Round(float64(b.Dx())*scale)))
	sh := max(shape.Rows, int(math.Round(float64(b.Dy())*scale)))

	scaled := image.NewGray(image.Rect(0, 0, sw, sh))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), gray, b, draw.Src, nil)

	out := image.NewGray(image.Rect(0, 0, shape.Cols, shape.Rows))
	offset := image.Pt((sw-shape.Cols)/2, (sh-shape.Rows)/2)
	draw.Draw(out, out.Bounds(), scaled, offset, draw.Src)
	return out, nil
}

// ScaleToResolution resizes img so its shorter side is resolution pixels,
// preserving the aspect ratio.
func ScaleToResolution(img image.Image, resolution int) (*image.RGBA, error) {
	b := img.Bounds()
	if b.Empty() || resolution <= 0 {
		return nil, fmt.Errorf("cannot scale %dx%d image to resolution %d", b.Dx(), b.Dy(), resolution)
	}
	scale := float64(resolution) / float64(min(b.Dx(), b.Dy()))
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(out, out.Bounds(), img, b, draw.Src, nil)
	return out, nil
}

// Threshold maps every pixel at or below level to black and the rest to
// white.
func Threshold(gray *image.Gray, level uint8) *image.Gray {
	out := image.NewGray(gray.Rect)
	for i, v := range gray.Pix {
		if v > level {
			out.Pix[i] = 255
		}
	}
	return out
}

// SavePNG encodes img to path.
func SavePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return file.Close()
}
