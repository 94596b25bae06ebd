package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRestore(t *testing.T) {
	env := newTestEnv()
	c := env.chunk(t, "a", "b")
	defer c.Destroy()

	fill(c.Alpha[0], 40)
	before := c.State()

	c.ChangeTerrain(centre.X(), centre.Y(), 25, 1e9, ShapeFlat)
	c.AddHole(2, 2)
	_, err := c.AddTexture("c")
	require.NoError(t, err)
	fill(c.Alpha[0], 200)
	c.SetShadow(0, 0, true)

	require.NoError(t, c.Restore(before))

	assert.Equal(t, float32(100), c.Bounds.Max.Y())
	assert.Zero(t, c.Holes)
	assert.Len(t, c.Strip, FullStripLen)
	require.Len(t, c.Layers, 2)
	assert.Equal(t, byte(40), c.Alpha[0][0])
	assert.Equal(t, byte(0), c.Alpha[1][0])
	assert.False(t, c.HasShadow)
	assert.Equal(t, 1, env.tex.refs["a"])
	assert.Equal(t, 1, env.tex.refs["b"])
	assert.Zero(t, env.tex.refs["c"])
	assert.True(t, c.Changed)
}

func TestStateRestore_TextureFailure(t *testing.T) {
	env := newTestEnv()
	c := env.chunk(t, "a")
	defer c.Destroy()

	s := c.State()
	s.Layers = append(s.Layers, Layer{Name: "gone"})
	env.tex.fail["gone"] = true
	top := c.Bounds.Max.Y()
	s.Heights[0] = top + 50

	assert.Error(t, c.Restore(s))
	assert.Len(t, c.Layers, 1)
	assert.Equal(t, 1, env.tex.refs["a"])
	assert.Equal(t, top, c.Bounds.Max.Y())
	assert.NotEqual(t, top+50, c.Heights()[0])
}

func TestStateRestore_Invalid(t *testing.T) {
	env := newTestEnv()
	c := env.chunk(t)
	defer c.Destroy()

	s := c.State()
	s.Heights = s.Heights[:3]
	assert.Error(t, c.Restore(s))

	s = c.State()
	s.Shadow = nil
	assert.Error(t, c.Restore(s))
}
