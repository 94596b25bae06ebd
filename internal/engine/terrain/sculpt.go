package terrain

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// BrushShape selects the radial falloff of a sculpting operator.
type BrushShape int

const (
	// ShapeFlat applies the full change everywhere inside the radius.
	ShapeFlat BrushShape = iota
	// ShapeLinear falls off as 1 - d/r.
	ShapeLinear
	// ShapeSmooth falls off as 1/(1 + d/r).
	ShapeSmooth
	// ShapeQuadratic grows as (d/r)^2 + d/r + 1.
	ShapeQuadratic
	// ShapeCosine falls off as cos(d/r).
	ShapeCosine
	// ShapeBlock ignores distance and covers the square |dx|, |dz| < r/2.
	ShapeBlock
)

var shapeNames = [...]string{"flat", "linear", "smooth", "quadratic", "cosine", "block"}

func (s BrushShape) String() string {
	if s >= 0 && int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return fmt.Sprintf("BrushShape(%d)", int(s))
}

// ParseBrushShape converts a shape name back to its value.
func ParseBrushShape(name string) (BrushShape, error) {
	for i, n := range shapeNames {
		if n == name {
			return BrushShape(i), nil
		}
	}
	return 0, fmt.Errorf("unknown brush shape %q", name)
}

// maxBlurSteps bounds the blur neighbourhood to keep huge radii tractable.
const maxBlurSteps = 32

// outOfReach reports whether a brush at (x, z) with the given radius cannot
// touch the chunk: the centre is farther than radius + ChunkDiameter from
// the chunk's midpoint.
func (c *Chunk) outOfReach(x, z, radius float32) bool {
	xdiff := c.Base.X() - x + ChunkSize/2
	zdiff := c.Base.Z() - z + ChunkSize/2
	return math32.Sqrt(xdiff*xdiff+zdiff*zdiff) > radius+ChunkDiameter
}

func (c *Chunk) distanceTo(i int, x, z float32) float32 {
	xdiff := c.Vertices[i].X() - x
	zdiff := c.Vertices[i].Z() - z
	return math32.Sqrt(xdiff*xdiff + zdiff*zdiff)
}

// raiseFactor is the share of the change applied at distance d.
func raiseFactor(shape BrushShape, d, r float32) float32 {
	switch shape {
	case ShapeLinear:
		return 1 - d/r
	case ShapeSmooth:
		return 1 / (1 + d/r)
	case ShapeQuadratic:
		return (d/r)*(d/r) + d/r + 1
	case ShapeCosine:
		return math32.Cos(d / r)
	}
	return 1
}

// retention is the fraction of the current height kept when blending
// toward a target. Shapes other than linear and smooth retain remain as is.
func retention(shape BrushShape, remain, d, r float32) float32 {
	switch shape {
	case ShapeLinear:
		return 1 - (1-remain)*(1-d/r)
	case ShapeSmooth:
		return 1 - math32.Pow(1-remain, 1+d/r)
	}
	return remain
}

// ChangeTerrain raises (or, with a negative change, lowers) vertices within
// radius of (x, z). It returns whether any vertex moved; the vertex buffer
// is uploaded when one did.
func (c *Chunk) ChangeTerrain(x, z, change, radius float32, shape BrushShape) bool {
	if c.outOfReach(x, z, radius) {
		return false
	}

	touched := false
	for i := range c.Vertices {
		if shape == ShapeBlock {
			xdiff := c.Vertices[i].X() - x
			zdiff := c.Vertices[i].Z() - z
			half := math32.Abs(radius / 2)
			if math32.Abs(xdiff) < half && math32.Abs(zdiff) < half {
				c.Vertices[i][1] += change
				touched = true
			}
			continue
		}
		d := c.distanceTo(i, x, z)
		if d < radius {
			c.Vertices[i][1] += change * raiseFactor(shape, d, radius)
			touched = true
		}
	}
	return c.finishSculpt(touched)
}

// FlattenTerrain blends vertices within radius toward height h, keeping a
// remain fraction of the current height (shaped by distance for the linear
// and smooth shapes).
func (c *Chunk) FlattenTerrain(x, z, h, remain, radius float32, shape BrushShape) bool {
	if c.outOfReach(x, z, radius) {
		return false
	}

	touched := false
	for i := range c.Vertices {
		d := c.distanceTo(i, x, z)
		if d >= radius {
			continue
		}
		keep := retention(shape, remain, d, radius)
		c.Vertices[i][1] = keep*c.Vertices[i][1] + (1-keep)*h
		touched = true
	}
	return c.finishSculpt(touched)
}

// BlurTerrain blends vertices within radius toward the distance-weighted
// average height of their neighbourhood. Neighbour heights are read through
// the height query so blurring works across chunk borders.
func (c *Chunk) BlurTerrain(x, z, remain, radius float32, shape BrushShape) bool {
	if c.outOfReach(x, z, radius) {
		return false
	}

	h := c.heights()
	steps := min(int(radius/UnitSize), maxBlurSteps)

	touched := false
	for i := range c.Vertices {
		d := c.distanceTo(i, x, z)
		if d >= radius {
			continue
		}

		v := c.Vertices[i]
		var total, weight float32
		for j := -steps * 2; j <= steps*2; j++ {
			tz := z + float32(j)*UnitSize/2
			for k := -steps; k <= steps; k++ {
				tx := x + float32(k)*UnitSize + float32(j%2)*UnitSize/2
				xdiff := tx - v.X()
				zdiff := tz - v.Z()
				d2 := math32.Sqrt(xdiff*xdiff + zdiff*zdiff)
				if d2 > radius {
					continue
				}
				p, ok := h.VertexAt(tx, tz)
				if !ok {
					continue
				}
				w := 1 - d2/radius
				total += w * p.Y()
				weight += w
			}
		}
		if weight == 0 {
			continue
		}

		avg := total / weight
		keep := retention(shape, remain, d, radius)
		c.Vertices[i][1] = keep*c.Vertices[i][1] + (1-keep)*avg
		touched = true
	}
	return c.finishSculpt(touched)
}

// finishSculpt recomputes the Y bounds and uploads the vertices if any
// were touched.
func (c *Chunk) finishSculpt(touched bool) bool {
	c.Bounds = computeBounds(c.Base, &c.Vertices)
	if touched {
		c.Changed = true
		c.uploadVertices()
	}
	return touched
}

// SetHeight places vertex i at an absolute height.
func (c *Chunk) SetHeight(i int, y float32) {
	if i < 0 || i >= VertexCount {
		return
	}
	c.Vertices[i][1] = y
	c.finishSculpt(true)
}

// Heights returns the absolute vertex heights in index order.
func (c *Chunk) Heights() []float32 {
	out := make([]float32, VertexCount)
	for i, v := range c.Vertices {
		out[i] = v.Y()
	}
	return out
}

// SetHeights restores absolute vertex heights, as captured by Heights.
func (c *Chunk) SetHeights(heights []float32) error {
	if len(heights) != VertexCount {
		return fmt.Errorf("expected %d heights, got %d", VertexCount, len(heights))
	}
	for i, y := range heights {
		c.Vertices[i] = mgl32.Vec3{c.Vertices[i].X(), y, c.Vertices[i].Z()}
	}
	c.finishSculpt(true)
	return nil
}
