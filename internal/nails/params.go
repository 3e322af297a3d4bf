package nails

import (
	"image/color"

	"string-weaver/internal/imaging"
	"string-weaver/pkg/colorutil"
)

// Params controls nail detection on a board photograph.
type Params struct {
	// Resolution is the shorter side, in pixels, the photograph is scaled to
	// before detection. Zero keeps the photograph as is.
	Resolution int `json:"resolution" toml:"resolution"`

	// DarknessFactor sets the threshold as a multiple of the mean darkness
	// of the photograph; pixels darker than that are nail candidates.
	DarknessFactor float64 `json:"darkness_factor" toml:"darkness_factor"`

	// Blob area limits in pixels at Resolution.
	MinArea float64 `json:"min_area" toml:"min_area"`
	MaxArea float64 `json:"max_area" toml:"max_area"`

	// Epsilon is the distance below which two blobs are the same nail.
	Epsilon float64 `json:"epsilon" toml:"epsilon"`

	BlurSize int `json:"blur_size" toml:"blur_size"` // odd; 0 disables
}

// DefaultParams returns parameters tuned for dark nail heads on a light
// board photographed at imaging.DefaultResolution.
func DefaultParams() Params {
	return Params{
		Resolution:     imaging.DefaultResolution,
		DarknessFactor: 1.5,
		MinArea:        2,
		MaxArea:        400,
		Epsilon:        7,
		BlurSize:       3,
	}
}

// WithResolution returns a copy of p with pixel sizes rescaled from the
// default resolution to res.
func (p Params) WithResolution(res int) Params {
	if res <= 0 || p.Resolution <= 0 {
		p.Resolution = res
		return p
	}
	k := float64(res) / float64(p.Resolution)
	p.Resolution = res
	p.MinArea *= k * k
	p.MaxArea *= k * k
	p.Epsilon *= k
	return p
}

// HSVRange is an inclusive colour band in OpenCV HSV units (hue 0-180).
type HSVRange struct {
	HueMin float64 `json:"hue_min" toml:"hue_min"`
	HueMax float64 `json:"hue_max" toml:"hue_max"`
	SatMin float64 `json:"sat_min" toml:"sat_min"`
	SatMax float64 `json:"sat_max" toml:"sat_max"`
	ValMin float64 `json:"val_min" toml:"val_min"`
	ValMax float64 `json:"val_max" toml:"val_max"`
}

// Contains reports whether c falls inside the band.
func (r HSVRange) Contains(c color.Color) bool {
	h, s, v := colorutil.HSV(c)
	return h >= r.HueMin && h <= r.HueMax &&
		s >= r.SatMin && s <= r.SatMax &&
		v >= r.ValMin && v <= r.ValMax
}

// MarkerParams controls detection of the coloured calibration markers.
type MarkerParams struct {
	Resolution int        `json:"resolution" toml:"resolution"`
	Bands      []HSVRange `json:"bands" toml:"bands"`
	MinArea    float64    `json:"min_area" toml:"min_area"`
}

// DefaultMarkerParams matches red markers. Red wraps around hue 0, so it
// takes two bands.
func DefaultMarkerParams() MarkerParams {
	return MarkerParams{
		Resolution: imaging.DefaultResolution,
		Bands: []HSVRange{
			{HueMin: 0, HueMax: 10, SatMin: 100, SatMax: 255, ValMin: 100, ValMax: 255},
			{HueMin: 160, HueMax: 180, SatMin: 100, SatMax: 255, ValMin: 100, ValMax: 255},
		},
		MinArea: 6,
	}
}

// Matches reports whether c falls in any marker band.
func (p MarkerParams) Matches(c color.Color) bool {
	for _, r := range p.Bands {
		if r.Contains(c) {
			return true
		}
	}
	return false
}
