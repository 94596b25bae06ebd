package terrain

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-terrain/pkg/formats"
)

func TestRecalcNormals_Flat(t *testing.T) {
	env := newTestEnv()
	c := env.chunk(t)
	defer c.Destroy()

	assert.False(t, c.RecalcNormals(), "nothing changed since load")

	c.ChangeTerrain(centre.X(), centre.Y(), 5, 1e9, ShapeFlat)
	require.True(t, c.RecalcNormals())
	assert.False(t, c.Changed)

	for i, n := range c.Normals {
		assert.InDelta(t, 0, n.X(), 1e-5, "normal %d", i)
		assert.InDelta(t, 1, n.Y(), 1e-5, "normal %d", i)
		assert.InDelta(t, 0, n.Z(), 1e-5, "normal %d", i)
		assert.InDelta(t, 0, c.FakeShadows[i].W(), 1e-5)
	}

	uploaded := env.rec.Buffer(c.Handles().Normals).Vec3
	assert.InDelta(t, 1, uploaded[0].Y(), 1e-5)
}

func TestRecalcNormals_Slope(t *testing.T) {
	env := newTestEnv()
	c := env.chunk(t)
	defer c.Destroy()

	// Heights rising along +x tilt the normals toward -x.
	h := c.Heights()
	for i, v := range c.Vertices {
		h[i] = v.X()
	}
	require.NoError(t, c.SetHeights(h))
	require.True(t, c.RecalcNormals())

	n := c.Normals[centreVertex]
	assert.Less(t, n.X(), float32(0))
	assert.InDelta(t, 0, n.Z(), 1e-4)

	slope, err := c.SlopeAt(centre.X(), centre.Y())
	require.NoError(t, err)
	assert.InDelta(t, 0.785398, slope, 1e-3)
}

func TestFakeShadow(t *testing.T) {
	assert.Equal(t, float32(0), FakeShadow(mgl32.Vec3{0, 1, 0}))
	assert.Equal(t, float32(0.5), FakeShadow(mgl32.Vec3{0, -1, 0}))
	assert.InDelta(t, 0.5, FakeShadow(mgl32.Vec3{1, 0, 0}), 1e-6)
}

func TestShadowEditing(t *testing.T) {
	env := newTestEnv()
	c := env.chunk(t)
	defer c.Destroy()

	c.SetShadow(3, 2, true)
	assert.True(t, c.HasShadow)
	assert.NotZero(t, c.Flags&formats.FlagHasShadow)
	assert.Equal(t, byte(formats.ShadowIntensity), c.Shadow[2*AlphaSize+3])
	assert.InDelta(t, 1.0/AlphaMapSize, c.ShadowCoverage(), 1e-9)
	assert.Equal(t, byte(formats.ShadowIntensity), env.rec.Texture(c.Handles().Shadow).Data[2*AlphaSize+3])

	c.SetShadow(64, 0, true)
	assert.InDelta(t, 1.0/AlphaMapSize, c.ShadowCoverage(), 1e-9)

	c.ClearShadows()
	assert.False(t, c.HasShadow)
	assert.Zero(t, c.ShadowCoverage())
}
