package terrain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-terrain/pkg/formats"
)

func TestGetVertex(t *testing.T) {
	env := newTestEnv()
	c := env.chunk(t)
	defer c.Destroy()

	tests := []struct {
		name  string
		x, z  float32
		index int
		found bool
	}{
		{"origin", 0, 0, 0, true},
		{"first inner", UnitSize / 2, UnitSize / 2, 9, true},
		{"centre", ChunkSize / 2, ChunkSize / 2, formats.VertexIndex(4, 8), true},
		{"far corner", ChunkSize, ChunkSize, VertexCount - 1, true},
		{"rounds to nearest", 0.4 * UnitSize, 0.1 * UnitSize, 0, true},
		{"before origin", -2 * UnitSize, 0, 0, false},
		{"past last column", ChunkSize + UnitSize, 0, 0, false},
		{"past last inner column", ChunkSize + UnitSize/2, UnitSize / 2, 0, false},
		{"past last row", 0, ChunkSize + UnitSize/2, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := c.GetVertex(tt.x, tt.z)
			if !tt.found {
				assert.True(t, errors.Is(err, ErrVertexNotFound))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.Vertices[tt.index], v)
		})
	}
}

func TestHeightAt(t *testing.T) {
	env := newTestEnv()
	c := env.chunk(t)
	defer c.Destroy()

	c.SetHeight(formats.VertexIndex(4, 8), 130)
	h, ok := c.HeightAt(ChunkSize/2, ChunkSize/2)
	assert.True(t, ok)
	assert.Equal(t, float32(130), h)

	_, ok = c.HeightAt(-50, 0)
	assert.False(t, ok)
}

func TestSelection(t *testing.T) {
	env := newTestEnv()
	c := env.chunk(t)
	defer c.Destroy()

	h, err := c.SelectionHeight(0)
	require.NoError(t, err)
	assert.InDelta(t, 100, h, 1e-4)

	last := SelectionStripLen - 3
	p, err := c.SelectionPosition(last)
	require.NoError(t, err)
	assert.True(t, c.Contains(p.X(), p.Z()))

	for _, tri := range []int{-1, SelectionStripLen - 2, SelectionStripLen} {
		p, err := c.SelectionPosition(tri)
		assert.True(t, errors.Is(err, ErrBadSelection), "triangle %d", tri)
		assert.Equal(t, OffMapPosition, p)

		x, z, err := c.SelectionCoord(tri)
		assert.Error(t, err)
		assert.Equal(t, OffMap, x)
		assert.Equal(t, OffMap, z)
	}
}

func TestSelectionPosition_Centroid(t *testing.T) {
	env := newTestEnv()
	c := env.chunk(t)
	defer c.Destroy()

	c.SetHeight(int(SelectionStrip[0]), 130)
	p, err := c.SelectionPosition(0)
	require.NoError(t, err)
	assert.InDelta(t, 110, p.Y(), 1e-4)
}
