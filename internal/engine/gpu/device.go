// Package gpu abstracts the GPU operations the terrain engine performs:
// vertex/index buffers and single-channel textures.
package gpu

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidHandle is returned when an operation targets a handle the
// device does not own.
var ErrInvalidHandle = errors.New("invalid GPU handle")

// Buffer is a device buffer handle. Zero is never a valid handle.
type Buffer uint32

// Texture is a device texture handle. Zero is never a valid handle.
type Texture uint32

// Device creates, fills and releases GPU resources.
// All calls happen on the thread that owns the graphics context.
type Device interface {
	NewBuffer() (Buffer, error)
	UploadVec3(b Buffer, data []mgl32.Vec3) error
	UploadVec4(b Buffer, data []mgl32.Vec4) error
	UploadIndices(b Buffer, data []uint16) error
	DeleteBuffer(b Buffer)

	// NewAlphaTexture creates a single-channel texture with linear filtering
	// and clamped edges.
	NewAlphaTexture() (Texture, error)
	// UploadAlpha replaces the contents of a size x size alpha texture.
	UploadAlpha(t Texture, size int, data []byte) error
	// NewRGBATexture creates a mipmapped, repeating colour texture.
	NewRGBATexture(width, height int, pixels []byte) (Texture, error)
	DeleteTexture(t Texture)
	// IsTexture reports whether t is a live texture of this device.
	IsTexture(t Texture) bool
}
