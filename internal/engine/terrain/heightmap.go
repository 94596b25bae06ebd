package terrain

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/pkg/formats"
)

// GetVertex returns the stored vertex nearest to world (x, z) on the
// interleaved grid. Points outside the grid return ErrVertexNotFound.
func (c *Chunk) GetVertex(x, z float32) (mgl32.Vec3, error) {
	i, ok := c.nearestVertex(x, z)
	if !ok {
		return mgl32.Vec3{}, fmt.Errorf("%w: (%.2f, %.2f)", ErrVertexNotFound, x, z)
	}
	return c.Vertices[i], nil
}

// nearestVertex rounds (x, z) to the interleaved grid: row first, then the
// column with odd rows shifted by half a unit.
func (c *Chunk) nearestVertex(x, z float32) (int, bool) {
	xdiff := x - c.Base.X()
	zdiff := z - c.Base.Z()

	row := int(zdiff/(UnitSize*0.5) + 0.5)
	col := int((xdiff-UnitSize*0.5*float32(row%2))/UnitSize + 0.5)
	if row < 0 || col < 0 || row >= formats.GridRows || col >= formats.RowWidth(row) {
		return 0, false
	}
	return formats.VertexIndex(col, row), true
}

// VertexAt implements HeightQuery over this chunk alone.
func (c *Chunk) VertexAt(x, z float32) (mgl32.Vec3, bool) {
	v, err := c.GetVertex(x, z)
	return v, err == nil
}

// heights returns the lookup used for neighbourhood sampling.
func (c *Chunk) heights() HeightQuery {
	if c.svc.Heights != nil {
		return c.svc.Heights
	}
	return c
}

// HeightAt returns the height of the vertex nearest to (x, z).
func (c *Chunk) HeightAt(x, z float32) (float32, bool) {
	v, ok := c.VertexAt(x, z)
	return v.Y(), ok
}
