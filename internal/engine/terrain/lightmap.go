package terrain

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/pkg/formats"
)

// RecalcNormals recomputes vertex normals if heights changed since the last
// call. Each normal is the normalized sum of four cross products over
// neighbours half a unit away on the diagonals; a neighbour no chunk covers
// is replaced by a point at the vertex's own height. Normals and fake
// shadows are uploaded before Changed is cleared.
func (c *Chunk) RecalcNormals() bool {
	if !c.Changed {
		return false
	}

	h := c.heights()
	const d = UnitSize * 0.5
	for i, v := range c.Vertices {
		p1 := neighbour(h, v, -d, -d)
		p2 := neighbour(h, v, +d, -d)
		p3 := neighbour(h, v, +d, +d)
		p4 := neighbour(h, v, -d, +d)

		n1 := p2.Sub(v).Cross(p1.Sub(v))
		n2 := p3.Sub(v).Cross(p2.Sub(v))
		n3 := p4.Sub(v).Cross(p3.Sub(v))
		n4 := p1.Sub(v).Cross(p4.Sub(v))

		n := n1.Add(n2).Add(n3).Add(n4)
		if n.Len() == 0 {
			n = mgl32.Vec3{0, 1, 0}
		}
		c.Normals[i] = n.Normalize()
	}

	c.computeFakeShadows()
	c.uploadNormals()
	c.Changed = false
	return true
}

func neighbour(h HeightQuery, v mgl32.Vec3, dx, dz float32) mgl32.Vec3 {
	if p, ok := h.VertexAt(v.X()+dx, v.Z()+dz); ok {
		return p
	}
	return mgl32.Vec3{v.X() + dx, v.Y(), v.Z() + dz}
}

// FakeShadow returns the shade applied to a vertex with normal n when no
// baked shadow exists: clamp(1-(-n.x+n.y-n.z), 0, 1) * 0.5.
func FakeShadow(n mgl32.Vec3) float32 {
	amount := 1 - (-n.X() + n.Y() - n.Z())
	return mgl32.Clamp(amount, 0, 1) * 0.5
}

func (c *Chunk) computeFakeShadows() {
	for i, n := range c.Normals {
		c.FakeShadows[i] = mgl32.Vec4{0, 0, 0, FakeShadow(n)}
	}
}

// SetShadow sets or clears the baked shadow texel at (i, j) and uploads the
// mask.
func (c *Chunk) SetShadow(i, j int, shadowed bool) {
	if i < 0 || j < 0 || i >= AlphaSize || j >= AlphaSize {
		return
	}
	var v byte
	if shadowed {
		v = formats.ShadowIntensity
	}
	c.Shadow[j*AlphaSize+i] = v
	c.HasShadow = true
	c.Flags |= formats.FlagHasShadow
	c.uploadShadow()
}

// ClearShadows drops the baked shadow mask.
func (c *Chunk) ClearShadows() {
	clear(c.Shadow)
	c.HasShadow = false
	c.Flags &^= formats.FlagHasShadow
	c.uploadShadow()
}

// ShadowCoverage returns the fraction of shadowed texels.
func (c *Chunk) ShadowCoverage() float32 {
	var n int
	for _, v := range c.Shadow {
		if v != 0 {
			n++
		}
	}
	return float32(n) / float32(len(c.Shadow))
}

// SlopeAt returns the angle in radians between the vertex normal nearest to
// (x, z) and straight up.
func (c *Chunk) SlopeAt(x, z float32) (float32, error) {
	i, ok := c.nearestVertex(x, z)
	if !ok {
		return 0, ErrVertexNotFound
	}
	n := c.Normals[i]
	return math32.Acos(mgl32.Clamp(n.Y(), -1, 1)), nil
}
