package weave_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"string-weaver/internal/weave"
)

func TestDefaultConfig(t *testing.T) {
	cfg := weave.DefaultConfig()
	require.NoError(t, cfg.Validate(cfg.AnchorCount))
	assert.Equal(t, 38, cfg.Delta())
	assert.Equal(t, 242.0, cfg.BrightnessThreshold)
}

func TestConfigValidate(t *testing.T) {
	mutate := func(f func(*weave.Config)) weave.Config {
		cfg := weave.DefaultConfig()
		f(&cfg)
		return cfg
	}
	cases := []struct {
		name    string
		cfg     weave.Config
		anchors int
		ok      bool
	}{
		{"Default", weave.DefaultConfig(), 200, true},
		{"FullStep", mutate(func(c *weave.Config) { c.IntensityStep = 1 }), 2, true},
		{"OneAnchor", weave.DefaultConfig(), 1, false},
		{"ZeroStep", mutate(func(c *weave.Config) { c.IntensityStep = 0 }), 10, false},
		{"NegativeStep", mutate(func(c *weave.Config) { c.IntensityStep = -0.1 }), 10, false},
		{"StepAboveOne", mutate(func(c *weave.Config) { c.IntensityStep = 1.5 }), 10, false},
		{"NaNStep", mutate(func(c *weave.Config) { c.IntensityStep = math.NaN() }), 10, false},
		{"ZeroDelta", mutate(func(c *weave.Config) { c.IntensityStep = 1.0 / 256 }), 10, false},
		{"BoundedNoLimit", mutate(func(c *weave.Config) {
			c.Termination = weave.TerminateBounded
			c.MaxIterations = 0
		}), 10, false},
		{"ConvergentNoFallback", mutate(func(c *weave.Config) {
			c.Termination = weave.TerminateConvergent
			c.MaxIterations = 0
		}), 10, false},
		{"ThresholdAboveWhite", mutate(func(c *weave.Config) { c.BrightnessThreshold = 256 }), 10, false},
		{"BoundedIgnoresThreshold", mutate(func(c *weave.Config) {
			c.Termination = weave.TerminateBounded
			c.BrightnessThreshold = -1
		}), 10, true},
		{"UnknownTermination", mutate(func(c *weave.Config) { c.Termination = 9 }), 10, false},
		{"UnknownRaster", mutate(func(c *weave.Config) { c.Raster = 9 }), 10, false},
		{"NegativeWorkers", mutate(func(c *weave.Config) { c.Workers = -2 }), 10, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate(tc.anchors)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, weave.ErrConfig)
		})
	}
}

func TestParseTerminationMode(t *testing.T) {
	for _, m := range []weave.TerminationMode{weave.TerminateBounded, weave.TerminateConvergent, weave.TerminateBoth} {
		got, err := weave.ParseTerminationMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := weave.ParseTerminationMode("forever")
	require.ErrorIs(t, err, weave.ErrConfig)
}
