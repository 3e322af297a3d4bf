package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"string-weaver/internal/weave"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weave.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultMatchesEngineDefaults(t *testing.T) {
	wc, err := Default().WeaveConfig()
	require.NoError(t, err)
	assert.Equal(t, weave.DefaultConfig(), wc)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeFile(t, `
[weave]
intensity_step = 0.3
termination = "bounded"
max_iterations = 50
raster = "aa"

[board]
rows = 120
cols = 80

[nails]
epsilon = 9.5
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Board.Rows)
	assert.Equal(t, 80, cfg.Board.Cols)
	assert.Equal(t, 9.5, cfg.Nails.Epsilon)
	assert.Equal(t, 1.5, cfg.Nails.DarknessFactor, "unset keys keep their defaults")
	assert.Equal(t, "canvas.png", cfg.Output.Canvas)

	wc, err := cfg.WeaveConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.3, wc.IntensityStep)
	assert.Equal(t, weave.TerminateBounded, wc.Termination)
	assert.Equal(t, 50, wc.MaxIterations)
	assert.Equal(t, weave.RasterAntiAliased, wc.Raster)
	assert.Equal(t, 200, wc.AnchorCount)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeFile(t, "[weave]\nintensity = 0.2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weave.intensity")
}

func TestLoadSyntaxError(t *testing.T) {
	_, err := Load(writeFile(t, "[weave\n"))
	require.Error(t, err)
}

func TestWeaveConfigBadModes(t *testing.T) {
	cfg := Default()
	cfg.Weave.Termination = "forever"
	_, err := cfg.WeaveConfig()
	require.ErrorIs(t, err, weave.ErrConfig)

	cfg = Default()
	cfg.Weave.Raster = "wu"
	_, err = cfg.WeaveConfig()
	require.ErrorIs(t, err, weave.ErrConfig)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Board.Spec = "square-400"

	var buf bytes.Buffer
	require.NoError(t, cfg.Write(&buf))

	back, err := Load(writeFile(t, buf.String()))
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestAnchorCountPrefersExplicitValue(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 240, cfg.AnchorCount(240), "unset count falls back to the board")

	cfg, err := Load(writeFile(t, "[weave]\nanchors = 200\n"))
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.AnchorCount(240), "explicit count equal to the engine default still wins")

	wc, err := Default().WeaveConfig()
	require.NoError(t, err)
	assert.Equal(t, weave.DefaultConfig().AnchorCount, wc.AnchorCount)
}
