package debug

import (
	"fmt"
	"image"
	"image/color"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
)

// GrayMap wraps a square single-channel map (alpha or shadow) as an image.
func GrayMap(data []byte, size int) (*image.Gray, error) {
	if len(data) != size*size {
		return nil, fmt.Errorf("map has %d texels, want %d", len(data), size*size)
	}
	img := image.NewGray(image.Rect(0, 0, size, size))
	copy(img.Pix, data)
	return img, nil
}

// HeightImage renders the chunk's vertex heights on the interleaved grid
// using the elevation palette. Outer vertices land on even pixels and
// inner vertices on odd ones; the remaining pixels stay black.
func HeightImage(c *terrain.Chunk) *image.RGBA {
	const size = 17
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for _, v := range c.Vertices {
		x := int((v.X()-c.Base.X())/terrain.UnitSize*2 + 0.5)
		y := int((v.Z()-c.Base.Z())/terrain.UnitSize*2 + 0.5)
		col := terrain.HeightColor(v.Y())
		img.Set(x, y, color.RGBA{
			R: uint8(col.X() * 255),
			G: uint8(col.Y() * 255),
			B: uint8(col.Z() * 255),
			A: 255,
		})
	}
	return img
}
