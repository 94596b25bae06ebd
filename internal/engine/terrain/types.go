// Package terrain holds the editable chunk model: mesh topology, height
// sculpting, texture layer compositing and picking.
package terrain

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/pkg/formats"
)

// Chunk geometry constants.
const (
	ChunkSize = formats.ChunkSize
	UnitSize  = formats.UnitSize
	// ChunkDiameter is the diagonal of one chunk footprint (ChunkSize*sqrt(2)).
	ChunkDiameter = float32(47.140452)
	VertexCount   = formats.VertexCount
	MaxLayers     = formats.MaxLayers
	AlphaSize     = formats.AlphaSize
	AlphaMapSize  = formats.AlphaMapSize
)

// OffMap is the sentinel coordinate callers substitute for a failed pick.
const OffMap = float32(-1e6)

// Errors reported by chunk operations.
var (
	ErrNoFreeSlot         = errors.New("no free texture slot")
	ErrInvalidAlphaHandle = errors.New("alpha map has invalid texture binding")
	ErrVertexNotFound     = errors.New("vertex not found")
	ErrBadSelection       = errors.New("selection index out of range")
	ErrLayerNotFound      = errors.New("texture layer not found")
)

// Bounds is the axis-aligned bounding volume of a chunk.
type Bounds struct {
	Min    mgl32.Vec3
	Max    mgl32.Vec3
	Center mgl32.Vec3
	// Radius is half the length of the Min-Max diagonal.
	Radius float32
}

// Layer is one texture slot of a chunk.
type Layer struct {
	// Name is the texture filename, the layer's identity.
	Name    string
	Texture gpu.Texture
	Flags   uint32
	// Animation is the raw flag word for animated layers, otherwise 0.
	Animation uint32
	EffectID  uint32
}

// HeightQuery looks up terrain vertices across chunk boundaries.
type HeightQuery interface {
	// VertexAt returns the stored vertex nearest to (x, z), if any chunk
	// covers that point.
	VertexAt(x, z float32) (mgl32.Vec3, bool)
}

// TextureProvider maps texture filenames to shared, reference-counted
// GPU textures.
type TextureProvider interface {
	Acquire(name string) (gpu.Texture, error)
	Release(name string)
}

// NameTable hands out pick names.
type NameTable interface {
	Add(owner any) int
	Del(name int)
}

// Brush is a radial weight kernel.
type Brush interface {
	Radius() float32
	// Value returns the weight in [0, 1] at a distance from the centre.
	Value(dist float32) float32
}

// Services are the collaborators a chunk is built with.
// GPU is required; the rest may be nil.
type Services struct {
	GPU      gpu.Device
	Textures TextureProvider
	Names    NameTable
	// Heights resolves neighbouring vertices for blur and normals. When nil
	// the chunk only sees its own vertices.
	Heights HeightQuery
}
