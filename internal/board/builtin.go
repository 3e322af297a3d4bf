package board

import "string-weaver/pkg/geometry"

// Square frame: 400 mm sides, 200 nails, rasterised at 400x400.
const (
	SquareSideMM     = 400.0
	SquareResolution = 400
	SquareAnchors    = 200
)

// SquareSpec returns the square frame definition.
func SquareSpec() *BaseSpec {
	return &BaseSpec{
		SpecName:    "square-400",
		Description: "400 mm square frame",
		WidthMM:     SquareSideMM,
		HeightMM:    SquareSideMM,
		Resolution:  SquareResolution,
		Anchors:     SquareAnchors,
		Markers: [4]geometry.Point2D{
			{X: 0, Y: 0},
			{X: SquareSideMM, Y: 0},
			{X: 0, Y: SquareSideMM},
			{X: SquareSideMM, Y: SquareSideMM},
		},
	}
}

// PortraitSpec returns a 300x400 mm portrait frame.
func PortraitSpec() *BaseSpec {
	return &BaseSpec{
		SpecName:    "portrait-300x400",
		Description: "300 x 400 mm portrait frame",
		WidthMM:     300,
		HeightMM:    400,
		Resolution:  300,
		Anchors:     240,
		Markers: [4]geometry.Point2D{
			{X: 0, Y: 0},
			{X: 300, Y: 0},
			{X: 0, Y: 400},
			{X: 300, Y: 400},
		},
	}
}

// PlotterSpec returns the board mounted on the stringing arm. Marker
// positions are in the arm's frame, whose y axis points away from the
// operator, so the top edge of the photograph has the larger y.
func PlotterSpec() *BaseSpec {
	return &BaseSpec{
		SpecName:    "plotter-520x650",
		Description: "board on the stringing arm, arm coordinates in mm",
		WidthMM:     520,
		HeightMM:    650,
		Resolution:  400,
		Anchors:     200,
		Markers: [4]geometry.Point2D{
			{X: -186.65, Y: 630.64},
			{X: 335, Y: 642.5},
			{X: -179.06, Y: -17.17},
			{X: 339, Y: -5.82},
		},
	}
}
