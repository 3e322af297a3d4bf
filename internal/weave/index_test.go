package weave_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"string-weaver/internal/weave"
)

func TestBuildIndex(t *testing.T) {
	shape := weave.Shape{Rows: 20, Cols: 20}
	anchors, err := weave.Layout(shape, 12)
	require.NoError(t, err)
	n := len(anchors)

	idx, err := weave.BuildIndex(anchors, shape, weave.RasterUniform, 3)
	require.NoError(t, err)
	assert.Equal(t, n, idx.Len())
	assert.Equal(t, n*(n-1)/2, idx.Strands())
	assert.Equal(t, shape, idx.Shape())

	for i := 0; i < n; i++ {
		list := idx.Candidates(i)
		require.Len(t, list, n-1)
		prev := -1
		for _, s := range list {
			assert.True(t, s.Has(i))
			other := s.Other(i)
			assert.NotEqual(t, i, other, "self strand at anchor %d", i)
			assert.Greater(t, other, prev, "candidates of %d out of order", i)
			prev = other
			assert.False(t, anchors[s.B].Less(anchors[s.A]), "strand %d-%d not canonical", s.A, s.B)
			assert.Equal(t, anchors[s.A], s.Path()[0].Pixel)
			assert.Equal(t, anchors[s.B], s.Path()[len(s.Path())-1].Pixel)
		}
	}

	// Each pair is rasterized once and shared by both endpoints.
	for _, s := range idx.Candidates(0) {
		other := s.Other(0)
		found := false
		for _, back := range idx.Candidates(other) {
			if back == s {
				found = true
			}
		}
		assert.True(t, found, "strand 0-%d not shared", other)
	}
}

func TestBuildIndexWorkerCountIndependent(t *testing.T) {
	shape := weave.Shape{Rows: 32, Cols: 24}
	anchors, err := weave.Layout(shape, 20)
	require.NoError(t, err)

	one, err := weave.BuildIndex(anchors, shape, weave.RasterAntiAliased, 1)
	require.NoError(t, err)
	many, err := weave.BuildIndex(anchors, shape, weave.RasterAntiAliased, 7)
	require.NoError(t, err)

	for i := 0; i < one.Len(); i++ {
		a, b := one.Candidates(i), many.Candidates(i)
		require.Len(t, b, len(a))
		for k := range a {
			assert.Equal(t, a[k].A, b[k].A)
			assert.Equal(t, a[k].B, b[k].B)
			assert.Equal(t, a[k].Path(), b[k].Path())
		}
	}
}

func TestBuildIndexErrors(t *testing.T) {
	shape := weave.Shape{Rows: 10, Cols: 10}
	cases := []struct {
		name    string
		anchors []weave.Anchor
		err     error
	}{
		{"Empty", nil, weave.ErrConfig},
		{"Single", []weave.Anchor{{0, 0}}, weave.ErrConfig},
		{"Duplicate", []weave.Anchor{{0, 0}, {9, 9}, {0, 0}}, weave.ErrGeometry},
		{"OutOfBounds", []weave.Anchor{{0, 0}, {10, 3}}, weave.ErrGeometry},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := weave.BuildIndex(tc.anchors, shape, weave.RasterUniform, 0)
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestStrandMean(t *testing.T) {
	shape := weave.Shape{Rows: 3, Cols: 3}
	buf := weave.NewFilledBuffer(shape, 200)
	buf.Set(0, 1, 20)

	idx, err := weave.BuildIndex([]weave.Anchor{{0, 0}, {0, 2}}, shape, weave.RasterUniform, 1)
	require.NoError(t, err)
	s := idx.Candidates(0)[0]
	assert.InDelta(t, (200.0+20+200)/3, s.Mean(buf), 1e-9)
}
