package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/pkg/formats"
)

// Strip lengths of the shared index sequences.
const (
	FullStripLen      = 255
	NoDetailStripLen  = 158
	SelectionStripLen = 318
	LineStripLen      = 32
	HoleLineStripLen  = 54
)

// Shared index sequences. They cover the whole un-holed grid and are the
// same for every chunk.
var (
	// NoDetailStrip draws the chunk at low detail using outer vertices only.
	NoDetailStrip = buildNoDetailStrip()
	// SelectionStrip covers every triangle of the grid; a picked triangle
	// index t names vertices SelectionStrip[t:t+3].
	SelectionStrip = buildSelectionStrip()
	// LineStrip traces the chunk outline.
	LineStrip = buildLineStrip()
	// HoleLineStrip holds six 9-vertex lines marking the hole grid.
	HoleLineStrip = buildHoleLineStrip()
)

func vertexIndex(col, row int) uint16 {
	return uint16(formats.VertexIndex(col, row))
}

// BuildStrip generates the full-detail triangle strip for a hole mask.
// Each non-hole sub-square contributes two strip fragments over its outer
// vertices; fragments after the first are joined by a degenerate index.
func BuildStrip(holes uint16) []uint16 {
	strip := make([]uint16, 0, FullStripLen)
	first := true
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if isHole(holes, x, y) {
				continue
			}
			col := x * 2
			row := y * 4
			for k := 0; k < 2; k++ {
				if !first {
					strip = append(strip, vertexIndex(col, row+k*2))
				}
				first = false
				for l := 0; l < 3; l++ {
					strip = append(strip,
						vertexIndex(col+l, row+k*2),
						vertexIndex(col+l, row+k*2+2))
				}
				strip = append(strip, vertexIndex(col+2, row+k*2+2))
			}
		}
	}
	return strip
}

func isHole(holes uint16, i, j int) bool {
	return holes&(1<<uint(j*4+i)) != 0
}

func buildNoDetailStrip() []uint16 {
	strip := make([]uint16, 0, NoDetailStripLen)
	for row := 0; row < 8; row++ {
		this, next := row*2, (row+1)*2
		if row > 0 {
			strip = append(strip, vertexIndex(0, this))
		}
		for col := 0; col < 9; col++ {
			strip = append(strip, vertexIndex(col, this), vertexIndex(col, next))
		}
		if row < 7 {
			strip = append(strip, vertexIndex(8, next))
		}
	}
	return strip
}

func buildSelectionStrip() []uint16 {
	strip := make([]uint16, 0, SelectionStripLen)
	for row := 0; row < 8; row++ {
		this, inner, over := row*2, row*2+1, (row+1)*2
		if row > 0 {
			strip = append(strip, vertexIndex(0, this))
		}
		for col := 0; col < 8; col++ {
			strip = append(strip, vertexIndex(col, this), vertexIndex(col, inner))
		}
		strip = append(strip,
			vertexIndex(8, this), vertexIndex(8, over), vertexIndex(8, over),
			vertexIndex(0, this), vertexIndex(0, this))
		for col := 0; col < 8; col++ {
			strip = append(strip, vertexIndex(col, over), vertexIndex(col, inner))
		}
		strip = append(strip, vertexIndex(8, over))
		if row < 7 {
			strip = append(strip, vertexIndex(8, over))
		}
	}
	return strip
}

func buildLineStrip() []uint16 {
	strip := make([]uint16, LineStripLen)
	for i := range strip {
		switch {
		case i < 9:
			strip[i] = uint16(i)
		case i < 17:
			strip[i] = uint16(8 + (i-8)*17)
		case i < 25:
			strip[i] = uint16(145 - (i - 15))
		default:
			strip[i] = uint16((32 - i) * 17)
		}
	}
	return strip
}

func buildHoleLineStrip() []uint16 {
	strip := make([]uint16, 0, HoleLineStripLen)
	for _, start := range []int{34, 68, 102} {
		for i := start; i < start+9; i++ {
			strip = append(strip, uint16(i))
		}
	}
	for _, col := range []int{2, 4, 6} {
		for i := col; i < col+137; i += 17 {
			strip = append(strip, uint16(i))
		}
	}
	return strip
}

// OutlineSegment is a run of LineStrip to draw as one line strip.
type OutlineSegment struct {
	Start, Count int
	// TileEdge marks segments on the tile border.
	TileEdge bool
}

// OutlineSegments returns the outline pieces for the chunk at grid cell
// (ix, iy) of its tile. Edges on the tile's last column or first row are
// flagged so they can be drawn in a distinct colour.
func OutlineSegments(ix, iy int) []OutlineSegment {
	lastCol := ix == formats.ChunksPerTile-1
	firstRow := iy == 0
	switch {
	case lastCol && firstRow:
		return []OutlineSegment{{0, 17, true}}
	case lastCol:
		return []OutlineSegment{{0, 9, false}, {8, 9, true}}
	case firstRow:
		return []OutlineSegment{{0, 9, true}, {8, 9, false}}
	}
	return []OutlineSegment{{0, 17, false}}
}

// computeBounds derives the bounding volume from the base and vertex heights.
func computeBounds(base mgl32.Vec3, vertices *[VertexCount]mgl32.Vec3) Bounds {
	minY, maxY := float32(math.MaxFloat32), float32(-math.MaxFloat32)
	for _, v := range vertices {
		minY = min(minY, v.Y())
		maxY = max(maxY, v.Y())
	}
	b := Bounds{
		Min: mgl32.Vec3{base.X(), minY, base.Z()},
		Max: mgl32.Vec3{base.X() + ChunkSize, maxY, base.Z() + ChunkSize},
	}
	b.Center = b.Min.Add(b.Max).Mul(0.5)
	b.Radius = b.Max.Sub(b.Min).Len() / 2
	return b
}
