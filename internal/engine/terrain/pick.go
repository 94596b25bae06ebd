package terrain

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// OffMapPosition is returned alongside ErrBadSelection.
var OffMapPosition = mgl32.Vec3{OffMap, OffMap, OffMap}

// selectionTriangle returns the three vertices of triangle tri in the
// selection strip.
func (c *Chunk) selectionTriangle(tri int) ([3]mgl32.Vec3, error) {
	if tri < 0 || tri+2 >= len(SelectionStrip) {
		return [3]mgl32.Vec3{}, fmt.Errorf("%w: triangle %d of %d", ErrBadSelection, tri, len(SelectionStrip))
	}
	return [3]mgl32.Vec3{
		c.Vertices[SelectionStrip[tri]],
		c.Vertices[SelectionStrip[tri+1]],
		c.Vertices[SelectionStrip[tri+2]],
	}, nil
}

// SelectionPosition returns the centroid of triangle tri of the selection
// strip. A bad index returns OffMapPosition and ErrBadSelection.
func (c *Chunk) SelectionPosition(tri int) (mgl32.Vec3, error) {
	v, err := c.selectionTriangle(tri)
	if err != nil {
		return OffMapPosition, err
	}
	return v[0].Add(v[1]).Add(v[2]).Mul(1.0 / 3), nil
}

// SelectionHeight returns the mean height of triangle tri.
func (c *Chunk) SelectionHeight(tri int) (float32, error) {
	p, err := c.SelectionPosition(tri)
	if err != nil {
		return 0, err
	}
	return p.Y(), nil
}

// SelectionCoord returns the horizontal centroid of triangle tri.
func (c *Chunk) SelectionCoord(tri int) (x, z float32, err error) {
	p, err := c.SelectionPosition(tri)
	return p.X(), p.Z(), err
}
