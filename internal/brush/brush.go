// Package brush provides the radial falloff kernel used by texture painting.
package brush

import "github.com/chewxy/math32"

// Brush is a circular kernel: full weight inside an inner radius of
// hardness*radius, then a linear fade to zero at the outer radius.
type Brush struct {
	radius   float32
	hardness float32
	inner    float32
}

// New creates a brush. Hardness is clamped to [0, 1]; a negative radius is
// treated as zero.
func New(radius, hardness float32) *Brush {
	b := &Brush{}
	b.SetHardness(hardness)
	b.SetRadius(radius)
	return b
}

// Radius returns the outer radius.
func (b *Brush) Radius() float32 {
	return b.radius
}

// Hardness returns the inner/outer radius ratio.
func (b *Brush) Hardness() float32 {
	return b.hardness
}

// SetRadius changes the outer radius.
func (b *Brush) SetRadius(r float32) {
	b.radius = math32.Max(r, 0)
	b.inner = b.radius * b.hardness
}

// SetHardness changes the inner/outer radius ratio.
func (b *Brush) SetHardness(h float32) {
	b.hardness = math32.Min(math32.Max(h, 0), 1)
	b.inner = b.radius * b.hardness
}

// Value returns the weight in [0, 1] at distance d from the centre.
func (b *Brush) Value(d float32) float32 {
	d = math32.Abs(d)
	switch {
	case d > b.radius:
		return 0
	case d <= b.inner:
		return 1
	}
	return 1 - (d-b.inner)/(b.radius-b.inner)
}

// Mask renders the kernel into a size x size alpha image, for the cursor
// overlay texture.
func (b *Brush) Mask(size int) []byte {
	out := make([]byte, size*size)
	if size == 0 {
		return out
	}
	half := float32(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := (float32(x) + 0.5 - half) / half * b.radius
			dy := (float32(y) + 0.5 - half) / half * b.radius
			out[y*size+x] = byte(b.Value(math32.Hypot(dx, dy))*255 + 0.5)
		}
	}
	return out
}
