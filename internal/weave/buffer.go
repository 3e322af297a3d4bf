package weave

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Intensity levels of the 8-bit gray scale the engine works in.
const (
	Black = 0.0
	White = 255.0
)

// Buffer is a row-major 2D grid of intensity values in [Black, White].
type Buffer struct {
	Shape Shape
	Pix   []float64
}

// NewBuffer returns a black buffer of the given shape.
func NewBuffer(shape Shape) *Buffer {
	return &Buffer{Shape: shape, Pix: make([]float64, shape.Len())}
}

// NewFilledBuffer returns a buffer with every pixel set to v.
func NewFilledBuffer(shape Shape, v float64) *Buffer {
	b := NewBuffer(shape)
	for i := range b.Pix {
		b.Pix[i] = v
	}
	return b
}

// BufferFromGray copies an 8-bit grayscale image into a new buffer.
func BufferFromGray(img *image.Gray) *Buffer {
	bounds := img.Bounds()
	b := NewBuffer(Shape{Rows: bounds.Dy(), Cols: bounds.Dx()})
	for y := 0; y < b.Shape.Rows; y++ {
		for x := 0; x < b.Shape.Cols; x++ {
			b.Pix[y*b.Shape.Cols+x] = float64(img.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
		}
	}
	return b
}

// At returns the value at (row, col).
func (b *Buffer) At(row, col int) float64 {
	return b.Pix[row*b.Shape.Cols+col]
}

// Set stores v at (row, col).
func (b *Buffer) Set(row, col int, v float64) {
	b.Pix[row*b.Shape.Cols+col] = v
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{Shape: b.Shape, Pix: make([]float64, len(b.Pix))}
	copy(c.Pix, b.Pix)
	return c
}

// Mean returns the arithmetic mean over all pixels.
func (b *Buffer) Mean() float64 {
	if len(b.Pix) == 0 {
		return 0
	}
	return floats.Sum(b.Pix) / float64(len(b.Pix))
}

// Validate checks that the pixel slice matches the shape and that every
// value lies in [Black, White].
func (b *Buffer) Validate() error {
	if b.Shape.Rows <= 0 || b.Shape.Cols <= 0 {
		return fmt.Errorf("%w: buffer shape %s is empty", ErrConfig, b.Shape)
	}
	if len(b.Pix) != b.Shape.Len() {
		return fmt.Errorf("%w: buffer has %d pixels, shape %s needs %d",
			ErrConfig, len(b.Pix), b.Shape, b.Shape.Len())
	}
	for i, v := range b.Pix {
		if v < Black || v > White || math.IsNaN(v) {
			return fmt.Errorf("%w: pixel (%d,%d) = %v outside [%v,%v]",
				ErrConfig, i/b.Shape.Cols, i%b.Shape.Cols, v, Black, White)
		}
	}
	return nil
}

// InRange reports whether every value lies in [Black, White].
func (b *Buffer) InRange() bool {
	for _, v := range b.Pix {
		if !(v >= Black && v <= White) {
			return false
		}
	}
	return true
}

// Gray renders the buffer as an 8-bit grayscale image.
func (b *Buffer) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.Shape.Cols, b.Shape.Rows))
	for y := 0; y < b.Shape.Rows; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Shape.Cols]
		for x := range row {
			row[x] = uint8(math.Round(clamp(b.Pix[y*b.Shape.Cols+x])))
		}
	}
	return img
}

func clamp(v float64) float64 {
	if v < Black {
		return Black
	}
	if v > White {
		return White
	}
	return v
}
