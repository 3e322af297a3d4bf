// Package config loads the TOML run configuration for a weave.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"string-weaver/internal/nails"
	"string-weaver/internal/weave"

	"github.com/BurntSushi/toml"
)

// File is the on-disk run configuration.
type File struct {
	Weave   Weave              `toml:"weave"`
	Board   Board              `toml:"board"`
	Nails   nails.Params       `toml:"nails"`
	Markers nails.MarkerParams `toml:"markers"`
	Output  Output             `toml:"output"`
}

// Weave mirrors weave.Config with modes spelled as strings.
type Weave struct {
	IntensityStep       float64 `toml:"intensity_step"`
	Termination         string  `toml:"termination"` // bounded, convergent or both
	MaxIterations       int     `toml:"max_iterations"`
	BrightnessThreshold float64 `toml:"brightness_threshold"`
	Anchors             int     `toml:"anchors"` // 0 uses the board or engine default
	Raster              string  `toml:"raster"` // uniform or antialiased
	Workers             int     `toml:"workers"`
}

// Board selects the raster the weave runs on.
type Board struct {
	Spec       string `toml:"spec"`       // registered or JSON board spec; empty uses Rows/Cols
	Rows       int    `toml:"rows"`
	Cols       int    `toml:"cols"`
	Photo      string `toml:"photo"`      // board photograph for nail detection
	Calibrate  bool   `toml:"calibrate"`  // fit a device transform from markers
	Homography bool   `toml:"homography"` // projective fit instead of affine
}

// Output names the files a run writes. Empty entries are skipped.
type Output struct {
	Canvas      string `toml:"canvas"`
	Sequence    string `toml:"sequence"`
	Coordinates string `toml:"coordinates"`
	Project     string `toml:"project"`
}

// Default returns the configuration used when no file is given.
func Default() File {
	wc := weave.DefaultConfig()
	return File{
		Weave: Weave{
			IntensityStep:       wc.IntensityStep,
			Termination:         wc.Termination.String(),
			MaxIterations:       wc.MaxIterations,
			BrightnessThreshold: wc.BrightnessThreshold,
			Raster:              wc.Raster.String(),
			Workers:             wc.Workers,
		},
		Board: Board{
			Rows: 400,
			Cols: 400,
		},
		Nails:   nails.DefaultParams(),
		Markers: nails.DefaultMarkerParams(),
		Output: Output{
			Canvas:   "canvas.png",
			Sequence: "sequence.txt",
			Project:  "run.weave.json",
		},
	}
}

// Load reads path over the defaults. Keys the file sets that no field
// accepts are reported as errors.
func Load(path string) (File, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return File{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return File{}, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// LoadOrDefault loads path, or returns the defaults when path is empty or
// does not exist.
func LoadOrDefault(path string) (File, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Write encodes the configuration as TOML.
func (f File) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(f)
}

// AnchorCount returns the anchor count set in the file, or boardDefault
// when none was set.
func (f File) AnchorCount(boardDefault int) int {
	if f.Weave.Anchors > 0 {
		return f.Weave.Anchors
	}
	return boardDefault
}

// WeaveConfig converts the weave section to an engine configuration.
func (f File) WeaveConfig() (weave.Config, error) {
	term, err := weave.ParseTerminationMode(f.Weave.Termination)
	if err != nil {
		return weave.Config{}, err
	}
	raster, err := weave.ParseRasterMode(f.Weave.Raster)
	if err != nil {
		return weave.Config{}, err
	}
	return weave.Config{
		IntensityStep:       f.Weave.IntensityStep,
		Termination:         term,
		MaxIterations:       f.Weave.MaxIterations,
		BrightnessThreshold: f.Weave.BrightnessThreshold,
		AnchorCount:         f.AnchorCount(weave.DefaultConfig().AnchorCount),
		Raster:              raster,
		Workers:             f.Weave.Workers,
	}, nil
}
