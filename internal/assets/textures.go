package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/png" // register PNG decoder
	"sync"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp" // register BMP decoder

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/pkg/encoding"
)

// Loader reads raw texture files.
type Loader interface {
	Load(name string) ([]byte, error)
}

type textureRef struct {
	tex  gpu.Texture
	refs int
}

// TextureManager shares one GPU texture per filename between all chunks
// that use it. The texture is deleted when the last reference is released.
type TextureManager struct {
	dev    gpu.Device
	loader Loader

	mu       sync.Mutex
	textures map[string]*textureRef
}

// NewTextureManager creates a manager that decodes files from loader into
// textures on dev.
func NewTextureManager(dev gpu.Device, loader Loader) *TextureManager {
	return &TextureManager{
		dev:      dev,
		loader:   loader,
		textures: make(map[string]*textureRef),
	}
}

// Acquire returns the texture for name, loading it on first use.
func (m *TextureManager) Acquire(name string) (gpu.Texture, error) {
	key := encoding.NormalizeTexturePath(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	if ref, ok := m.textures[key]; ok {
		ref.refs++
		return ref.tex, nil
	}

	data, err := m.loader.Load(name)
	if err != nil {
		return 0, err
	}
	rgba, err := DecodeRGBA(data)
	if err != nil {
		return 0, fmt.Errorf("decoding %s: %w", name, err)
	}
	b := rgba.Bounds()
	tex, err := m.dev.NewRGBATexture(b.Dx(), b.Dy(), rgba.Pix)
	if err != nil {
		return 0, fmt.Errorf("uploading %s: %w", name, err)
	}

	logger.Debug("texture loaded", zap.String("name", key),
		zap.Int("width", b.Dx()), zap.Int("height", b.Dy()))
	m.textures[key] = &textureRef{tex: tex, refs: 1}
	return tex, nil
}

// Release drops one reference to name.
func (m *TextureManager) Release(name string) {
	key := encoding.NormalizeTexturePath(name)

	m.mu.Lock()
	defer m.mu.Unlock()

	ref, ok := m.textures[key]
	if !ok {
		logger.Warn("release of unknown texture", zap.String("name", key))
		return
	}
	ref.refs--
	if ref.refs > 0 {
		return
	}
	m.dev.DeleteTexture(ref.tex)
	delete(m.textures, key)
}

// Refs returns the reference count of name.
func (m *TextureManager) Refs(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ref, ok := m.textures[encoding.NormalizeTexturePath(name)]; ok {
		return ref.refs
	}
	return 0
}

// Len returns the number of live textures.
func (m *TextureManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.textures)
}

// DecodeRGBA decodes a BMP or PNG file into tightly packed RGBA pixels.
func DecodeRGBA(data []byte) (*image.RGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == 4*rgba.Rect.Dx() && rgba.Rect.Min == (image.Point{}) {
		return rgba, nil
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba, nil
}
