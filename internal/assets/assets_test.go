package assets

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
)

func testImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func encodeBMP(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestManager_Load(t *testing.T) {
	low := fstest.MapFS{"tileset/grass.bmp": {Data: []byte("low")}}
	high := fstest.MapFS{"tileset/grass.bmp": {Data: []byte("high")}}

	m := NewManager()
	m.AddFS(low)
	m.AddFS(high)

	data, err := m.Load("TileSet\\Grass.bmp")
	require.NoError(t, err)
	assert.Equal(t, "high", string(data))

	_, err = m.Load("tileset/grass.bmp")
	require.NoError(t, err)
	hits, misses := m.cache.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	_, err = m.Load("missing.bmp")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestManager_AddDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tileset"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tileset", "rock.bmp"), []byte("rock"), 0o644))

	m := NewManager()
	require.NoError(t, m.AddDir(dir))
	data, err := m.Load("tileset\\rock.bmp")
	require.NoError(t, err)
	assert.Equal(t, "rock", string(data))

	assert.Error(t, m.AddDir(filepath.Join(dir, "nope")))
	assert.Error(t, m.AddDir(filepath.Join(dir, "tileset", "rock.bmp")))
}

func TestDecodeRGBA(t *testing.T) {
	src := testImage(4, 2, color.RGBA{10, 20, 30, 255})

	for name, data := range map[string][]byte{
		"bmp": encodeBMP(t, src),
		"png": encodePNG(t, src),
	} {
		t.Run(name, func(t *testing.T) {
			img, err := DecodeRGBA(data)
			require.NoError(t, err)
			assert.Equal(t, 4, img.Bounds().Dx())
			assert.Equal(t, 2, img.Bounds().Dy())
			assert.Equal(t, []byte{10, 20, 30, 255}, img.Pix[:4])
			assert.Len(t, img.Pix, 4*2*4)
		})
	}

	_, err := DecodeRGBA([]byte("not an image"))
	assert.Error(t, err)
}

func TestTextureManager_RefCounting(t *testing.T) {
	fsys := fstest.MapFS{
		"tileset/grass.bmp":  {Data: encodeBMP(t, testImage(8, 8, color.RGBA{0, 255, 0, 255}))},
		"tileset/broken.bmp": {Data: []byte("garbage")},
	}
	m := NewManager()
	m.AddFS(fsys)

	rec := gpu.NewRecorder()
	tm := NewTextureManager(rec, m)

	a, err := tm.Acquire("tileset\\grass.bmp")
	require.NoError(t, err)
	b, err := tm.Acquire("TILESET/GRASS.BMP")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 2, tm.Refs("tileset/grass.bmp"))
	assert.Equal(t, 8, rec.Texture(a).Width)

	tm.Release("tileset\\grass.bmp")
	assert.True(t, rec.IsTexture(a))
	tm.Release("tileset\\grass.bmp")
	assert.False(t, rec.IsTexture(a))
	assert.Zero(t, tm.Len())
	assert.Zero(t, rec.DoubleFrees)

	tm.Release("tileset\\grass.bmp")
	assert.Zero(t, rec.DoubleFrees)

	_, err = tm.Acquire("tileset\\missing.bmp")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = tm.Acquire("tileset\\broken.bmp")
	assert.Error(t, err)
	assert.Zero(t, rec.Live())
}
