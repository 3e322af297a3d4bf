package nails

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"string-weaver/internal/imaging"
	"string-weaver/internal/weave"
	"string-weaver/pkg/geometry"
)

func TestDedupeKeepsFirst(t *testing.T) {
	pts := []geometry.Point2D{{X: 10, Y: 10}, {X: 14, Y: 13}, {X: 30, Y: 10}, {X: 17, Y: 10}}
	got := Dedupe(pts, 7)
	assert.Equal(t, []geometry.Point2D{{X: 10, Y: 10}, {X: 30, Y: 10}, {X: 17, Y: 10}}, got)
}

func TestOrderClockwise(t *testing.T) {
	c := geometry.Point2D{X: 50, Y: 50}
	tl := geometry.Point2D{X: 2, Y: 0}
	top := geometry.Point2D{X: 50, Y: 0}
	right := geometry.Point2D{X: 100, Y: 50}
	bottom := geometry.Point2D{X: 50, Y: 100}
	left := geometry.Point2D{X: 0, Y: 50}

	got := OrderClockwise([]geometry.Point2D{left, bottom, right, top, tl}, c)
	assert.Equal(t, []geometry.Point2D{tl, top, right, bottom, left}, got)
}

func TestOrderClockwiseTieNearestFirst(t *testing.T) {
	c := geometry.Point2D{}
	far := geometry.Point2D{X: 10, Y: 0}
	near := geometry.Point2D{X: 2, Y: 0}
	assert.Equal(t, []geometry.Point2D{near, far}, OrderClockwise([]geometry.Point2D{far, near}, c))
}

func TestToAnchorsClamps(t *testing.T) {
	shape := weave.Shape{Rows: 10, Cols: 20}
	got := ToAnchors([]geometry.Point2D{{X: 3.4, Y: 2.6}, {X: -1, Y: 12}}, shape)
	assert.Equal(t, []weave.Anchor{{Row: 3, Col: 3}, {Row: 9, Col: 0}}, got)
}

func TestWithResolution(t *testing.T) {
	p := DefaultParams().WithResolution(2 * imaging.DefaultResolution)
	assert.Equal(t, 800, p.Resolution)
	assert.InDelta(t, 14, p.Epsilon, 1e-9)
	assert.InDelta(t, 8, p.MinArea, 1e-9)

	p = DefaultParams().WithResolution(0)
	assert.Zero(t, p.Resolution)
	assert.InDelta(t, 7, p.Epsilon, 1e-9)
}

func TestDefaultMarkerParams(t *testing.T) {
	p := DefaultMarkerParams()
	assert.Len(t, p.Bands, 2)
	assert.Equal(t, 0.0, p.Bands[0].HueMin)
	assert.Equal(t, 180.0, p.Bands[1].HueMax)
}

func TestMarkerColours(t *testing.T) {
	p := DefaultMarkerParams()
	assert.True(t, p.Matches(color.RGBA{R: 220, G: 20, B: 20, A: 255}))
	assert.True(t, p.Matches(color.RGBA{R: 220, G: 10, B: 60, A: 255}), "red wrapping past hue 160")
	assert.False(t, p.Matches(color.RGBA{R: 20, G: 200, B: 20, A: 255}))
	assert.False(t, p.Matches(color.RGBA{R: 200, G: 170, B: 170, A: 255}), "pale red is under the saturation floor")
	assert.False(t, p.Matches(color.RGBA{R: 60, A: 255}), "dark red is under the value floor")
}
