// Package board provides weaving board specifications and management.
package board

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"

	"string-weaver/internal/weave"
	"string-weaver/pkg/geometry"
)

// Spec defines a weaving board.
type Spec interface {
	Name() string
	Dimensions() (widthMM, heightMM float64)
	Shape() weave.Shape
	AnchorCount() int
	MarkerPositions() [4]geometry.Point2D
	PixelMapper() geometry.AffineTransform
	Validate() error
}

// BaseSpec provides a common implementation of Spec.
type BaseSpec struct {
	SpecName    string  `json:"name"`
	Description string  `json:"description,omitempty"`
	WidthMM     float64 `json:"width_mm"`
	HeightMM    float64 `json:"height_mm"`

	// Resolution is the raster length of the shorter board side in pixels.
	Resolution int `json:"resolution"`

	// Anchors is the nail count used when nails are laid out rather than
	// detected.
	Anchors int `json:"anchors"`

	// Markers are the device coordinates of the calibration markers in
	// top-left, top-right, bottom-left, bottom-right order.
	Markers [4]geometry.Point2D `json:"markers"`
}

func (s *BaseSpec) Name() string {
	return s.SpecName
}

func (s *BaseSpec) Dimensions() (widthMM, heightMM float64) {
	return s.WidthMM, s.HeightMM
}

func (s *BaseSpec) AnchorCount() int {
	return s.Anchors
}

func (s *BaseSpec) MarkerPositions() [4]geometry.Point2D {
	return s.Markers
}

// Shape returns the raster for the board: the shorter side is Resolution
// pixels and the longer side keeps the physical aspect ratio.
func (s *BaseSpec) Shape() weave.Shape {
	short := math.Min(s.WidthMM, s.HeightMM)
	px := float64(s.Resolution) / short
	return weave.Shape{
		Rows: int(math.Round(s.HeightMM * px)),
		Cols: int(math.Round(s.WidthMM * px)),
	}
}

// PixelMapper maps raster pixels to millimetres from the board's top-left
// corner, for boards without calibration markers.
func (s *BaseSpec) PixelMapper() geometry.AffineTransform {
	shape := s.Shape()
	return geometry.Scale(s.WidthMM/float64(shape.Cols), s.HeightMM/float64(shape.Rows))
}

func (s *BaseSpec) Validate() error {
	if s.SpecName == "" {
		return fmt.Errorf("board spec name is required")
	}
	if s.WidthMM <= 0 || s.HeightMM <= 0 {
		return fmt.Errorf("board dimensions must be positive")
	}
	if s.Resolution < 2 {
		return fmt.Errorf("board resolution must be at least 2, got %d", s.Resolution)
	}
	if s.Anchors < 2 {
		return fmt.Errorf("board needs at least 2 anchors, got %d", s.Anchors)
	}
	return nil
}

// SaveToFile saves the spec to a JSON file.
func (s *BaseSpec) SaveToFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadFromFile loads a spec from a JSON file.
func LoadFromFile(path string) (*BaseSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var spec BaseSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, err
	}

	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid board spec: %w", err)
	}

	return &spec, nil
}

// Registry of known board specs
var registry = make(map[string]Spec)

// Register adds a board spec to the registry.
func Register(spec Spec) {
	registry[spec.Name()] = spec
}

// GetSpec returns a board spec by name.
func GetSpec(name string) Spec {
	if spec, ok := registry[name]; ok {
		return spec
	}
	return nil
}

// ListSpecs returns all registered board spec names, sorted.
func ListSpecs() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve returns the registered spec called name, or loads name as a JSON
// spec file.
func Resolve(name string) (Spec, error) {
	if spec := GetSpec(name); spec != nil {
		return spec, nil
	}
	if _, err := os.Stat(name); err != nil {
		return nil, fmt.Errorf("unknown board %q (known: %v)", name, ListSpecs())
	}
	return LoadFromFile(name)
}

func init() {
	// Register built-in board specs
	Register(SquareSpec())
	Register(PortraitSpec())
	Register(PlotterSpec())
}
