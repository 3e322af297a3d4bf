package weave

import (
	"fmt"
	"math"
)

// TerminationMode selects when a weave run stops.
type TerminationMode int

const (
	// TerminateBounded stops after MaxIterations steps.
	TerminateBounded TerminationMode = iota
	// TerminateConvergent stops once the residual mean reaches
	// BrightnessThreshold. MaxIterations is still required and acts as a
	// safety ceiling; hitting it is reported as not converged.
	TerminateConvergent
	// TerminateBoth stops on whichever of the two conditions comes first.
	TerminateBoth
)

func (m TerminationMode) String() string {
	switch m {
	case TerminateBounded:
		return "bounded"
	case TerminateConvergent:
		return "convergent"
	case TerminateBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseTerminationMode converts the textual name of a mode back to its value.
func ParseTerminationMode(s string) (TerminationMode, error) {
	switch s {
	case "bounded":
		return TerminateBounded, nil
	case "convergent":
		return TerminateConvergent, nil
	case "both", "":
		return TerminateBoth, nil
	}
	return 0, fmt.Errorf("%w: unknown termination mode %q", ErrConfig, s)
}

// Config holds the weaving parameters.
type Config struct {
	// IntensityStep is the fraction λ in (0, 1] of the full gray range that
	// one strand adds to the residual and removes from the canvas.
	IntensityStep float64 `json:"intensity_step"`

	Termination TerminationMode `json:"termination"`

	// MaxIterations bounds the number of weave steps.
	MaxIterations int `json:"max_iterations"`

	// BrightnessThreshold is the residual mean at which a convergent run stops.
	BrightnessThreshold float64 `json:"brightness_threshold"`

	// AnchorCount is the target number of anchors for Layout.
	AnchorCount int `json:"anchor_count"`

	Raster RasterMode `json:"raster"`

	// Workers is the number of goroutines evaluating candidates within a
	// single step. 0 and 1 both mean sequential evaluation.
	Workers int `json:"workers"`
}

// DefaultConfig returns the parameters the weaver has historically used.
func DefaultConfig() Config {
	return Config{
		IntensityStep:       0.15,
		Termination:         TerminateBoth,
		MaxIterations:       4000,
		BrightnessThreshold: math.Floor(0.95 * White),
		AnchorCount:         200,
		Raster:              RasterUniform,
		Workers:             1,
	}
}

// Delta returns the integer intensity applied per unit of coverage,
// floor(255·λ).
func (c Config) Delta() int {
	return int(math.Floor(White * c.IntensityStep))
}

// Validate checks the configuration against the number of anchors the
// engine will actually use.
func (c Config) Validate(anchorCount int) error {
	if anchorCount < 2 {
		return fmt.Errorf("%w: %d anchors, need at least 2 to form a strand", ErrConfig, anchorCount)
	}
	if math.IsNaN(c.IntensityStep) || c.IntensityStep <= 0 || c.IntensityStep > 1 {
		return fmt.Errorf("%w: intensity step %v outside (0, 1]", ErrConfig, c.IntensityStep)
	}
	if c.Delta() == 0 {
		return fmt.Errorf("%w: intensity step %v resolves to a zero delta", ErrConfig, c.IntensityStep)
	}
	switch c.Termination {
	case TerminateBounded:
		if c.MaxIterations <= 0 {
			return fmt.Errorf("%w: bounded mode needs max iterations > 0, got %d", ErrConfig, c.MaxIterations)
		}
	case TerminateConvergent, TerminateBoth:
		if c.MaxIterations <= 0 {
			return fmt.Errorf("%w: %s mode needs an iteration ceiling > 0, got %d",
				ErrConfig, c.Termination, c.MaxIterations)
		}
		if math.IsNaN(c.BrightnessThreshold) || c.BrightnessThreshold < Black || c.BrightnessThreshold > White {
			return fmt.Errorf("%w: brightness threshold %v outside [%v, %v]",
				ErrConfig, c.BrightnessThreshold, Black, White)
		}
	default:
		return fmt.Errorf("%w: unknown termination mode %d", ErrConfig, int(c.Termination))
	}
	if c.Raster != RasterUniform && c.Raster != RasterAntiAliased {
		return fmt.Errorf("%w: unknown raster mode %d", ErrConfig, int(c.Raster))
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d is negative", ErrConfig, c.Workers)
	}
	return nil
}
