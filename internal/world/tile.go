// Package world holds loaded terrain tiles and applies brush operations
// across their chunks.
package world

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/history"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/internal/metrics"
	"github.com/Faultbox/midgard-terrain/pkg/encoding"
	"github.com/Faultbox/midgard-terrain/pkg/formats"
)

const gridSize = formats.ChunksPerTile

// Errors reported by tile operations.
var (
	ErrNoChunk     = errors.New("no chunk at position")
	ErrUnknownName = errors.New("unknown pick name")
)

// Options configure a tile.
type Options struct {
	Format    formats.TileOptions
	PaintMode terrain.PaintMode
	// History, Metrics and Areas are optional.
	History *history.History
	Metrics *metrics.Editor
	Areas   *terrain.AreaColors
}

// Tile is a 16x16 grid of chunks sharing one texture table.
//
// Tile is safe for concurrent use: edits hold the write lock for their
// whole duration, queries hold the read lock. Chunks read neighbouring
// heights through a view that does not lock, since they only do so while
// an edit already holds the lock.
type Tile struct {
	mu sync.RWMutex

	textures []string
	chunks   [gridSize][gridSize]*terrain.Chunk
	// origin is the minimum chunk base; grid cells are ChunkSize apart.
	origin mgl32.Vec2
	count  int

	// stroke is the open undo group, if any.
	stroke *stroke

	svc     terrain.Services
	opts    Options
	painter terrain.Painter
	log     *zap.Logger
}

// Load builds a tile from encoded tile data. svc.Heights is replaced by
// the tile's own cross-chunk lookup.
func Load(data []byte, svc terrain.Services, opts Options) (*Tile, error) {
	parsed, err := formats.ParseTile(data, opts.Format)
	if err != nil {
		return nil, err
	}
	return New(parsed, svc, opts)
}

// LoadFile builds a tile from a file on disk.
func LoadFile(path string, svc terrain.Services, opts Options) (*Tile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tile: %w", err)
	}
	return Load(data, svc, opts)
}

// New builds a tile from decoded chunks. On error every chunk built so far
// is destroyed.
func New(parsed *formats.Tile, svc terrain.Services, opts Options) (_ *Tile, err error) {
	painter, err := terrain.NewPainter(opts.PaintMode)
	if err != nil {
		return nil, err
	}

	t := &Tile{
		textures: append([]string(nil), parsed.Textures...),
		opts:     opts,
		painter:  painter,
		log:      logger.Named("world"),
	}
	svc.Heights = view{t}
	t.svc = svc

	t.origin = mgl32.Vec2{math.MaxFloat32, math.MaxFloat32}
	for _, m := range parsed.Chunks {
		t.origin = mgl32.Vec2{min(t.origin.X(), m.Base[0]), min(t.origin.Y(), m.Base[2])}
	}

	defer func() {
		if err != nil {
			t.Close()
		}
	}()

	for i, m := range parsed.Chunks {
		cx, cz := t.cell(m.Base[0], m.Base[2])
		if cx < 0 || cz < 0 || cx >= gridSize || cz >= gridSize {
			return nil, fmt.Errorf("chunk %d at (%.1f, %.1f) lies outside the tile", i, m.Base[0], m.Base[2])
		}
		if t.chunks[cz][cx] != nil {
			return nil, fmt.Errorf("chunk %d overlaps another chunk at cell (%d, %d)", i, cx, cz)
		}
		c, err := terrain.NewChunk(m, t.textures, t.svc)
		if err != nil {
			return nil, fmt.Errorf("building chunk %d: %w", i, err)
		}
		t.chunks[cz][cx] = c
		t.count++
		if opts.Areas != nil {
			opts.Areas.Color(c.AreaID)
		}
	}

	// Chunks without stored normals get them once every neighbour exists.
	t.forEach(func(c *terrain.Chunk) { c.RecalcNormals() })

	opts.Metrics.SetChunksLoaded(t.count)
	t.log.Info("tile loaded", zap.Int("chunks", t.count), zap.Int("textures", len(t.textures)))
	return t, nil
}

// cell returns the grid cell holding world position (x, z), without bounds
// checks.
func (t *Tile) cell(x, z float32) (int, int) {
	cx := int(math.Floor(float64((x - t.origin.X()) / terrain.ChunkSize)))
	cz := int(math.Floor(float64((z - t.origin.Y()) / terrain.ChunkSize)))
	return cx, cz
}

func (t *Tile) chunkAt(x, z float32) *terrain.Chunk {
	cx, cz := t.cell(x, z)
	if cx < 0 || cz < 0 || cx >= gridSize || cz >= gridSize {
		return nil
	}
	return t.chunks[cz][cx]
}

func (t *Tile) forEach(fn func(c *terrain.Chunk)) {
	for z := range t.chunks {
		for x := range t.chunks[z] {
			if c := t.chunks[z][x]; c != nil {
				fn(c)
			}
		}
	}
}

// Close destroys every chunk.
func (t *Tile) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.forEach(func(c *terrain.Chunk) { c.Destroy() })
	t.chunks = [gridSize][gridSize]*terrain.Chunk{}
	t.count = 0
	t.opts.Metrics.SetChunksLoaded(0)
}

// Len returns the number of chunks.
func (t *Tile) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// Textures returns a copy of the texture table.
func (t *Tile) Textures() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.textures...)
}

// Chunk returns the chunk in grid cell (cx, cz), or nil.
func (t *Tile) Chunk(cx, cz int) *terrain.Chunk {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if cx < 0 || cz < 0 || cx >= gridSize || cz >= gridSize {
		return nil
	}
	return t.chunks[cz][cx]
}

// Each calls fn for every chunk under the read lock. fn must not edit.
func (t *Tile) Each(fn func(c *terrain.Chunk)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	t.forEach(fn)
}

// VertexAt returns the vertex nearest to (x, z) from whichever chunk
// covers it.
func (t *Tile) VertexAt(x, z float32) (mgl32.Vec3, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return view{t}.VertexAt(x, z)
}

// HeightAt returns the terrain height at (x, z).
func (t *Tile) HeightAt(x, z float32) (float32, error) {
	v, ok := t.VertexAt(x, z)
	if !ok {
		return 0, fmt.Errorf("%w: (%.2f, %.2f)", ErrNoChunk, x, z)
	}
	return v.Y(), nil
}

// view is the lock-free height lookup handed to chunks.
type view struct{ t *Tile }

func (v view) VertexAt(x, z float32) (mgl32.Vec3, bool) {
	if c := v.t.chunkAt(x, z); c != nil {
		if p, ok := c.VertexAt(x, z); ok {
			return p, true
		}
	}
	// Near a chunk edge the rounded vertex can belong to a neighbour.
	for _, d := range [...][2]float32{{-1, 0}, {1, 0}, {0, -1}, {0, 1}, {-1, -1}, {1, -1}, {-1, 1}, {1, 1}} {
		c := v.t.chunkAt(x+d[0]*terrain.UnitSize, z+d[1]*terrain.UnitSize)
		if c == nil {
			continue
		}
		if p, ok := c.VertexAt(x, z); ok {
			return p, true
		}
	}
	return mgl32.Vec3{}, false
}

// Save encodes the tile with the options it was loaded with.
func (t *Tile) Save() []byte {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := append([]string(nil), t.textures...)
	index := make(map[string]uint32, len(names))
	for i, n := range names {
		index[encoding.NormalizeTexturePath(n)] = uint32(i)
	}
	lookup := func(name string) uint32 {
		key := encoding.NormalizeTexturePath(name)
		if i, ok := index[key]; ok {
			return i
		}
		index[key] = uint32(len(names))
		names = append(names, name)
		return index[key]
	}

	out := &formats.Tile{}
	t.forEach(func(c *terrain.Chunk) {
		out.Chunks = append(out.Chunks, c.ToMCNK(lookup))
	})
	out.Textures = names
	return formats.EncodeTile(out, t.opts.Format)
}

// SaveFile writes the encoded tile to path.
func (t *Tile) SaveFile(path string) error {
	if err := os.WriteFile(path, t.Save(), 0o644); err != nil {
		return fmt.Errorf("writing tile: %w", err)
	}
	t.log.Info("tile saved", zap.String("path", path))
	return nil
}
