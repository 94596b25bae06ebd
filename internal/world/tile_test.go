package world

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-terrain/internal/assets"
	"github.com/Faultbox/midgard-terrain/internal/brush"
	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/history"
	"github.com/Faultbox/midgard-terrain/internal/selection"
	"github.com/Faultbox/midgard-terrain/pkg/formats"
)

type fixture struct {
	rec      *gpu.Recorder
	textures *assets.TextureManager
	names    *selection.Names
	history  *history.History
}

func pngFile(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rec := gpu.NewRecorder()
	files := assets.NewManager()
	files.AddFS(fstest.MapFS{
		"texture/grass.png": {Data: pngFile(t)},
		"texture/dirt.png":  {Data: pngFile(t)},
		"texture/rock.png":  {Data: pngFile(t)},
		"texture/sand.png":  {Data: pngFile(t)},
	})
	h, err := history.New(16, 1)
	require.NoError(t, err)
	t.Cleanup(h.Close)
	return &fixture{
		rec:      rec,
		textures: assets.NewTextureManager(rec, files),
		names:    selection.NewNames(),
		history:  h,
	}
}

func (f *fixture) services() terrain.Services {
	return terrain.Services{GPU: f.rec, Textures: f.textures, Names: f.names}
}

// encodeGrid encodes a flat n x n tile whose chunks all use the first
// texture.
func encodeGrid(n int) []byte {
	tile := &formats.Tile{Textures: []string{"texture/grass.png", "texture/dirt.png"}}
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			m := formats.NewMCNK(uint32(x), uint32(z), [3]float32{
				float32(x) * terrain.ChunkSize, 0, float32(z) * terrain.ChunkSize,
			})
			m.Layers = []formats.ChunkLayer{{TextureID: 0}}
			tile.Chunks = append(tile.Chunks, m)
		}
	}
	return formats.EncodeTile(tile, formats.TileOptions{})
}

func (f *fixture) load(t *testing.T, n int) *Tile {
	t.Helper()
	tile, err := Load(encodeGrid(n), f.services(), Options{History: f.history})
	require.NoError(t, err)
	t.Cleanup(tile.Close)
	return tile
}

func TestLoad(t *testing.T) {
	f := newFixture(t)
	tile := f.load(t, 2)

	assert.Equal(t, 4, tile.Len())
	assert.Equal(t, 4, f.names.Len())
	assert.Equal(t, 4, f.textures.Refs("texture/grass.png"))
	for z := 0; z < 2; z++ {
		for x := 0; x < 2; x++ {
			c := tile.Chunk(x, z)
			require.NotNil(t, c)
			assert.Equal(t, x, c.IX)
			assert.Equal(t, z, c.IY)
		}
	}
	assert.Nil(t, tile.Chunk(2, 0))
	assert.Nil(t, tile.Chunk(-1, 0))
}

func TestLoadOverlap(t *testing.T) {
	f := newFixture(t)
	tile := &formats.Tile{Textures: []string{"texture/grass.png"}}
	for range 2 {
		m := formats.NewMCNK(0, 0, [3]float32{})
		m.Layers = []formats.ChunkLayer{{TextureID: 0}}
		tile.Chunks = append(tile.Chunks, m)
	}

	_, err := New(tile, f.services(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlaps")
	assert.Zero(t, f.textures.Len())
	assert.Zero(t, f.rec.Live())
	assert.Zero(t, f.names.Len())
}

func TestClose(t *testing.T) {
	f := newFixture(t)
	tile, err := Load(encodeGrid(2), f.services(), Options{})
	require.NoError(t, err)

	tile.Close()
	assert.Zero(t, tile.Len())
	assert.Zero(t, f.rec.Live())
	assert.Zero(t, f.textures.Len())
	assert.Empty(t, f.rec.DoubleFrees)
}

func TestHeightAtAcrossChunks(t *testing.T) {
	f := newFixture(t)
	tile := f.load(t, 2)

	h, err := tile.HeightAt(terrain.ChunkSize*1.5, terrain.ChunkSize/2)
	require.NoError(t, err)
	assert.Zero(t, h)

	_, err = tile.HeightAt(-10*terrain.ChunkSize, 0)
	assert.ErrorIs(t, err, ErrNoChunk)
}

func TestChangeTerrainAtSharedCorner(t *testing.T) {
	f := newFixture(t)
	tile := f.load(t, 2)

	n := tile.ChangeTerrain(terrain.ChunkSize, terrain.ChunkSize, 5, 1, terrain.ShapeFlat)
	assert.Equal(t, 4, n)

	corner := formats.VertexIndex(8, 16)
	assert.InDelta(t, 5, tile.Chunk(0, 0).Vertices[corner].Y(), 1e-4)
	assert.InDelta(t, 5, tile.Chunk(1, 1).Vertices[0].Y(), 1e-4)
	assert.InDelta(t, 5, tile.Chunk(1, 0).Vertices[formats.VertexIndex(0, 16)].Y(), 1e-4)
	assert.InDelta(t, 5, tile.Chunk(0, 1).Vertices[formats.VertexIndex(8, 0)].Y(), 1e-4)
	for z := 0; z < 2; z++ {
		for x := 0; x < 2; x++ {
			assert.False(t, tile.Chunk(x, z).Changed, "normals of (%d, %d) refreshed", x, z)
		}
	}
}

func TestChangeTerrainOutOfReach(t *testing.T) {
	f := newFixture(t)
	tile := f.load(t, 1)

	n := tile.ChangeTerrain(10*terrain.ChunkSize, 10*terrain.ChunkSize, 5, 1, terrain.ShapeFlat)
	assert.Zero(t, n)
	undo, _ := f.history.Len()
	assert.Zero(t, undo)
}

func TestUndoRedo(t *testing.T) {
	f := newFixture(t)
	tile := f.load(t, 2)

	tile.ChangeTerrain(terrain.ChunkSize, terrain.ChunkSize, 5, 1, terrain.ShapeFlat)
	h, err := tile.HeightAt(terrain.ChunkSize, terrain.ChunkSize)
	require.NoError(t, err)
	assert.InDelta(t, 5, h, 1e-4)

	label, err := tile.Undo()
	require.NoError(t, err)
	assert.Equal(t, OpRaise, label)
	h, err = tile.HeightAt(terrain.ChunkSize, terrain.ChunkSize)
	require.NoError(t, err)
	assert.Zero(t, h)

	label, err = tile.Redo()
	require.NoError(t, err)
	assert.Equal(t, OpRaise, label)
	assert.InDelta(t, 5, tile.Chunk(1, 1).Vertices[0].Y(), 1e-4)

	_, err = tile.Redo()
	assert.ErrorIs(t, err, history.ErrEmpty)
}

func TestUndoWithoutHistory(t *testing.T) {
	f := newFixture(t)
	tile, err := Load(encodeGrid(1), f.services(), Options{})
	require.NoError(t, err)
	defer tile.Close()

	_, err = tile.Undo()
	assert.ErrorIs(t, err, history.ErrEmpty)
}

func TestFlattenAndBlur(t *testing.T) {
	f := newFixture(t)
	tile := f.load(t, 2)
	mid := terrain.ChunkSize / 2

	n := tile.FlattenTerrain(mid, mid, 20, 0, 4, terrain.ShapeFlat)
	assert.Equal(t, 1, n)
	h, err := tile.HeightAt(mid, mid)
	require.NoError(t, err)
	assert.InDelta(t, 20, h, 1e-4)

	n = tile.BlurTerrain(mid, mid, 0, 2*terrain.UnitSize, terrain.ShapeFlat)
	assert.Equal(t, 1, n)
	h, err = tile.HeightAt(mid, mid)
	require.NoError(t, err)
	assert.Less(t, h, float32(20))
	assert.Greater(t, h, float32(0))
}

func TestReloadReusesPickNames(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		tile, err := Load(encodeGrid(2), f.services(), Options{})
		require.NoError(t, err)
		tile.Each(func(c *terrain.Chunk) {
			assert.LessOrEqual(t, c.Name, 4)
		})
		tile.Close()
	}
	assert.Zero(t, f.names.Len())
}

func TestPaint(t *testing.T) {
	f := newFixture(t)
	tile := f.load(t, 2)
	mid := terrain.ChunkSize / 2

	n, err := tile.Paint(mid, mid, brush.New(4, 1), 1, 1, "texture/dirt.png")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	c := tile.Chunk(0, 0)
	assert.Equal(t, 1, c.LayerIndex("texture/dirt.png"))
	assert.Equal(t, 1, f.textures.Refs("texture/dirt.png"))
	assert.Equal(t, byte(255), c.Alpha[0][31+31*terrain.AlphaSize])

	_, err = tile.Undo()
	require.NoError(t, err)
	assert.Equal(t, -1, c.LayerIndex("texture/dirt.png"))
	assert.Zero(t, f.textures.Refs("texture/dirt.png"))
}

func TestPaintNoFreeSlot(t *testing.T) {
	f := newFixture(t)
	tile := f.load(t, 1)
	c := tile.Chunk(0, 0)
	// Fill the remaining slots directly.
	_, err := c.AddTexture("texture/dirt.png")
	require.NoError(t, err)
	_, err = c.AddTexture("texture/rock.png")
	require.NoError(t, err)
	_, err = c.AddTexture("texture/sand.png")
	require.NoError(t, err)

	mid := terrain.ChunkSize / 2
	n, err := tile.Paint(mid, mid, brush.New(4, 1), 1, 1, "texture/other.png")
	assert.ErrorIs(t, err, terrain.ErrNoFreeSlot)
	assert.Zero(t, n)
}

func TestPaintRecordsEvictionWhenAcquireFails(t *testing.T) {
	f := newFixture(t)
	tile, err := Load(encodeGrid(1), f.services(), Options{History: f.history, PaintMode: terrain.PaintAdditive})
	require.NoError(t, err)
	defer tile.Close()

	c := tile.Chunk(0, 0)
	for _, name := range []string{"texture/dirt.png", "texture/rock.png", "texture/sand.png"} {
		_, err := c.AddTexture(name)
		require.NoError(t, err)
	}
	// dirt hides grass, rock and sand have no coverage.
	for i := range c.Alpha[0] {
		c.Alpha[0][i] = 255
	}

	mid := terrain.ChunkSize / 2
	n, err := tile.Paint(mid, mid, brush.New(4, 1), 1, 1, "texture/missing.png")
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Less(t, len(c.Layers), terrain.MaxLayers)

	_, err = tile.Undo()
	require.NoError(t, err)
	require.Len(t, c.Layers, terrain.MaxLayers)
	assert.Equal(t, "texture/grass.png", c.Layers[0].Name)
	assert.Equal(t, 1, f.textures.Refs("texture/grass.png"))
}

func TestSetHole(t *testing.T) {
	f := newFixture(t)
	tile := f.load(t, 2)

	require.NoError(t, tile.SetHole(1, 1, true))
	assert.True(t, tile.Chunk(0, 0).IsHole(0, 0))

	x := terrain.ChunkSize + terrain.ChunkSize*0.8
	require.NoError(t, tile.SetHole(x, 1, true))
	assert.True(t, tile.Chunk(1, 0).IsHole(3, 0))

	_, err := tile.Undo()
	require.NoError(t, err)
	assert.False(t, tile.Chunk(1, 0).IsHole(3, 0))
	assert.True(t, tile.Chunk(0, 0).IsHole(0, 0))

	assert.ErrorIs(t, tile.SetHole(-100, -100, true), ErrNoChunk)
}

func TestSetAreaID(t *testing.T) {
	f := newFixture(t)
	areas := terrain.NewAreaColors(1)
	tile, err := Load(encodeGrid(1), f.services(), Options{Areas: areas})
	require.NoError(t, err)
	defer tile.Close()

	require.NoError(t, tile.SetAreaID(1, 1, 42))
	assert.Equal(t, uint32(42), tile.Chunk(0, 0).AreaID)
	assert.Contains(t, areas.Areas(), uint32(42))
}

func TestPickPosition(t *testing.T) {
	f := newFixture(t)
	tile := f.load(t, 1)
	c := tile.Chunk(0, 0)

	pos, err := tile.PickPosition(f.names, c.Name, 0)
	require.NoError(t, err)
	want, err := c.SelectionPosition(0)
	require.NoError(t, err)
	assert.Equal(t, want, pos)

	pos, err = tile.PickPosition(f.names, 9999, 0)
	assert.ErrorIs(t, err, ErrUnknownName)
	assert.Equal(t, terrain.OffMapPosition, pos)

	name := f.names.Add("not a chunk")
	_, err = PickChunk(f.names, name)
	assert.ErrorIs(t, err, ErrUnknownName)
}

func TestSaveRoundTrip(t *testing.T) {
	f := newFixture(t)
	tile := f.load(t, 2)
	mid := terrain.ChunkSize / 2

	tile.ChangeTerrain(mid, mid, 7, 2, terrain.ShapeFlat)
	_, err := tile.Paint(mid, mid, brush.New(4, 1), 1, 1, "texture/rock.png")
	require.NoError(t, err)

	data := tile.Save()
	other, err := Load(data, f.services(), Options{})
	require.NoError(t, err)
	defer other.Close()

	assert.Equal(t, []string{"texture/grass.png", "texture/dirt.png", "texture/rock.png"}, other.Textures())
	h, err := other.HeightAt(mid, mid)
	require.NoError(t, err)
	assert.InDelta(t, 7, h, 1e-2)
	assert.Equal(t, 1, other.Chunk(0, 0).LayerIndex("texture/rock.png"))
}

func TestConcurrentEdits(t *testing.T) {
	f := newFixture(t)
	tile := f.load(t, 2)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tile.ChangeTerrain(terrain.ChunkSize, terrain.ChunkSize, float32(i%2*2-1), 3, terrain.ShapeLinear)
		}()
		go func() {
			defer wg.Done()
			_, _ = tile.HeightAt(terrain.ChunkSize, terrain.ChunkSize)
		}()
	}
	wg.Wait()

	h, err := tile.HeightAt(terrain.ChunkSize, terrain.ChunkSize)
	require.NoError(t, err)
	assert.InDelta(t, 0, h, 1e-4)
}

func TestStrokeUndoesAsOne(t *testing.T) {
	f := newFixture(t)
	tile := f.load(t, 2)
	mid := terrain.ChunkSize / 2

	tile.BeginStroke("drag")
	tile.ChangeTerrain(mid, mid, 1, 2, terrain.ShapeFlat)
	tile.ChangeTerrain(mid, mid, 1, 2, terrain.ShapeFlat)
	tile.ChangeTerrain(terrain.ChunkSize+mid, mid, 1, 2, terrain.ShapeFlat)
	undo, _ := f.history.Len()
	assert.Zero(t, undo, "nothing recorded while the stroke is open")
	tile.EndStroke()

	undo, _ = f.history.Len()
	assert.Equal(t, 1, undo)
	assert.Equal(t, []string{"drag"}, f.history.Labels())

	label, err := tile.Undo()
	require.NoError(t, err)
	assert.Equal(t, "drag", label)
	for _, x := range []float32{mid, terrain.ChunkSize + mid} {
		h, err := tile.HeightAt(x, mid)
		require.NoError(t, err)
		assert.Zero(t, h)
	}
}
