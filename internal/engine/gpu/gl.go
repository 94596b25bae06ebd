package gpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// GL is the OpenGL 4.1 core Device. It requires a current context.
type GL struct {
	anisotropy float32
}

// NewGL creates an OpenGL device. anisotropy <= 1 disables anisotropic
// filtering of colour textures.
func NewGL(anisotropy float32) *GL {
	return &GL{anisotropy: anisotropy}
}

// NewBuffer implements Device.
func (d *GL) NewBuffer() (Buffer, error) {
	var id uint32
	gl.GenBuffers(1, &id)
	if id == 0 {
		return 0, fmt.Errorf("glGenBuffers returned 0")
	}
	return Buffer(id), nil
}

// UploadVec3 implements Device.
func (d *GL) UploadVec3(b Buffer, data []mgl32.Vec3) error {
	if b == 0 {
		return fmt.Errorf("%w: buffer 0", ErrInvalidHandle)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(b))
	if len(data) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*3*4, gl.Ptr(data), gl.DYNAMIC_DRAW)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return nil
}

// UploadVec4 implements Device.
func (d *GL) UploadVec4(b Buffer, data []mgl32.Vec4) error {
	if b == 0 {
		return fmt.Errorf("%w: buffer 0", ErrInvalidHandle)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(b))
	if len(data) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4*4, gl.Ptr(data), gl.DYNAMIC_DRAW)
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return nil
}

// UploadIndices implements Device.
func (d *GL) UploadIndices(b Buffer, data []uint16) error {
	if b == 0 {
		return fmt.Errorf("%w: buffer 0", ErrInvalidHandle)
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(b))
	if len(data) > 0 {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data)*2, gl.Ptr(data), gl.DYNAMIC_DRAW)
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)
	return nil
}

// DeleteBuffer implements Device.
func (d *GL) DeleteBuffer(b Buffer) {
	id := uint32(b)
	gl.DeleteBuffers(1, &id)
}

// NewAlphaTexture implements Device.
func (d *GL) NewAlphaTexture() (Texture, error) {
	var id uint32
	gl.GenTextures(1, &id)
	if id == 0 {
		return 0, fmt.Errorf("glGenTextures returned 0")
	}
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return Texture(id), nil
}

// UploadAlpha implements Device.
func (d *GL) UploadAlpha(t Texture, size int, data []byte) error {
	if !d.IsTexture(t) {
		return fmt.Errorf("%w: texture %d", ErrInvalidHandle, t)
	}
	if len(data) < size*size {
		return fmt.Errorf("alpha upload: have %d bytes, need %d", len(data), size*size)
	}
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R8, int32(size), int32(size), 0,
		gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(data))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}

// NewRGBATexture implements Device.
func (d *GL) NewRGBATexture(width, height int, pixels []byte) (Texture, error) {
	if len(pixels) < width*height*4 {
		return 0, fmt.Errorf("rgba upload: have %d bytes, need %d", len(pixels), width*height*4)
	}
	var id uint32
	gl.GenTextures(1, &id)
	if id == 0 {
		return 0, fmt.Errorf("glGenTextures returned 0")
	}
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(width), int32(height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	if d.anisotropy > 1 {
		gl.TexParameterf(gl.TEXTURE_2D, gl.TEXTURE_MAX_ANISOTROPY, d.anisotropy)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return Texture(id), nil
}

// DeleteTexture implements Device.
func (d *GL) DeleteTexture(t Texture) {
	id := uint32(t)
	gl.DeleteTextures(1, &id)
}

// IsTexture implements Device.
func (d *GL) IsTexture(t Texture) bool {
	return t != 0 && gl.IsTexture(uint32(t))
}
