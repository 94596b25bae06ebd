package terrain

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/logger"
	"github.com/Faultbox/midgard-terrain/pkg/formats"
)

// Chunk is one editable terrain patch: a 145-vertex height grid, up to four
// texture layers with alpha maps, a shadow mask and a hole mask.
//
// A Chunk is not safe for concurrent use. Every mutation uploads the
// affected GPU buffers before returning.
type Chunk struct {
	// Header is the decoded header, kept for re-encoding.
	Header formats.MCNKHeader
	IX, IY int
	Flags  uint32
	AreaID uint32

	Base     mgl32.Vec3
	Vertices [VertexCount]mgl32.Vec3
	Normals  [VertexCount]mgl32.Vec3
	// FakeShadows holds a per-vertex shade in W derived from the normal.
	FakeShadows [VertexCount]mgl32.Vec4
	// Minimap places each vertex in tile chunk-grid units.
	Minimap [VertexCount]mgl32.Vec3
	Bounds  Bounds

	Holes uint16
	Strip []uint16

	Layers []Layer
	// Alpha holds the 64x64 coverage maps of layers 1..3, indexed layer-1.
	Alpha  [MaxLayers - 1][]byte
	Shadow []byte

	HasShadow bool
	HasLiquid bool
	// Changed is set by sculpting and cleared once normals are recomputed
	// and uploaded.
	Changed bool
	// Name is the pick name, or 0 when unregistered.
	Name int

	svc       Services
	res       *resources
	destroyed bool
}

// RenderHandles are the GPU resources a renderer binds to draw a chunk.
type RenderHandles struct {
	Vertices    gpu.Buffer
	Normals     gpu.Buffer
	FakeShadows gpu.Buffer
	Minimap     gpu.Buffer
	Strip       gpu.Buffer
	Alpha       [MaxLayers - 1]gpu.Texture
	Shadow      gpu.Texture
}

// NewChunk builds a chunk from a decoded block. textures is the tile's
// texture filename table that layer texture ids index into.
//
// GPU resources are acquired up front; if any step fails, everything
// acquired so far is released and the error returned.
func NewChunk(m *formats.MCNK, textures []string, svc Services) (_ *Chunk, err error) {
	res, err := acquireResources(svc.GPU)
	if err != nil {
		return nil, err
	}

	c := &Chunk{
		Header:    m.Header,
		IX:        int(m.Header.IX),
		IY:        int(m.Header.IY),
		Flags:     m.Header.Flags,
		AreaID:    m.Header.AreaID,
		Base:      mgl32.Vec3(m.Base),
		Holes:     m.Header.Holes,
		HasShadow: m.HasShadow,
		HasLiquid: m.HasLiquid,
		svc:       svc,
		res:       res,
	}
	defer func() {
		if err != nil {
			c.Destroy()
		}
	}()

	for i := range c.Vertices {
		c.Vertices[i] = mgl32.Vec3(m.Positions[i])
		c.Normals[i] = mgl32.Vec3(m.Normals[i])
	}
	if !m.HasNormals {
		c.Changed = true
	}
	c.Bounds = computeBounds(c.Base, &c.Vertices)

	for i := range c.Alpha {
		c.Alpha[i] = make([]byte, AlphaMapSize)
		if m.Alpha[i] != nil {
			copy(c.Alpha[i], m.Alpha[i])
		}
	}
	c.Shadow = make([]byte, AlphaMapSize)
	copy(c.Shadow, m.Shadow)

	for i, l := range m.Layers {
		name := ""
		if int(l.TextureID) < len(textures) {
			name = textures[l.TextureID]
		}
		tex, err := c.acquireTexture(name)
		if err != nil {
			return nil, fmt.Errorf("layer %d texture %q: %w", i, name, err)
		}
		c.Layers = append(c.Layers, Layer{
			Name:      name,
			Texture:   tex,
			Flags:     l.Flags,
			Animation: l.Animation,
			EffectID:  l.EffectID,
		})
	}

	for i := range c.Alpha {
		c.uploadAlpha(i)
	}
	c.uploadShadow()
	c.buildMinimap()
	c.computeFakeShadows()
	c.uploadVertices()
	c.uploadNormals()
	c.rebuildStrip()
	c.RegisterName()

	return c, nil
}

// Destroy releases the chunk's GPU resources, texture references and pick
// name. It is safe to call more than once.
func (c *Chunk) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.EraseTextures()
	c.res.release()
	if c.Name != 0 && c.svc.Names != nil {
		c.svc.Names.Del(c.Name)
		c.Name = 0
	}
}

// Destroyed reports whether Destroy has been called.
func (c *Chunk) Destroyed() bool {
	return c.destroyed
}

// RegisterName registers the chunk in the pick table if it has no name yet
// and returns its name.
func (c *Chunk) RegisterName() int {
	if c.Name == 0 && c.svc.Names != nil && !c.destroyed {
		c.Name = c.svc.Names.Add(c)
	}
	return c.Name
}

// Handles returns the GPU resources for drawing.
func (c *Chunk) Handles() RenderHandles {
	return RenderHandles{
		Vertices:    c.res.vertices,
		Normals:     c.res.normals,
		FakeShadows: c.res.fakeShadows,
		Minimap:     c.res.minimap,
		Strip:       c.res.strip,
		Alpha:       c.res.alpha,
		Shadow:      c.res.shadow,
	}
}

// IsHole reports whether sub-square (i, j) is masked out.
func (c *Chunk) IsHole(i, j int) bool {
	return isHole(c.Holes, i, j)
}

// AddHole masks out sub-square (i, j) and rebuilds the strip.
func (c *Chunk) AddHole(i, j int) {
	c.Holes |= 1 << uint(j*4+i)
	c.rebuildStrip()
}

// RemoveHole restores sub-square (i, j) and rebuilds the strip.
func (c *Chunk) RemoveHole(i, j int) {
	c.Holes &^= 1 << uint(j*4+i)
	c.rebuildStrip()
}

// SetAreaID changes the chunk's area identifier.
func (c *Chunk) SetAreaID(id uint32) {
	c.AreaID = id
}

// SetFlag sets or clears the given chunk flag bits.
func (c *Chunk) SetFlag(mask uint32, on bool) {
	if on {
		c.Flags |= mask
	} else {
		c.Flags &^= mask
	}
}

// Contains reports whether (x, z) lies on the chunk's footprint.
func (c *Chunk) Contains(x, z float32) bool {
	return x >= c.Base.X() && x < c.Base.X()+ChunkSize &&
		z >= c.Base.Z() && z < c.Base.Z()+ChunkSize
}

// ToMCNK converts the chunk back into its decoded block form.
func (c *Chunk) ToMCNK(textureIndex func(name string) uint32) *formats.MCNK {
	m := &formats.MCNK{
		Header:     c.Header,
		Base:       c.Base,
		MinY:       c.Bounds.Min.Y(),
		MaxY:       c.Bounds.Max.Y(),
		HasHeights: true,
		HasNormals: true,
		HasShadow:  c.HasShadow,
		Shadow:     append([]byte(nil), c.Shadow...),
	}
	m.Header.Flags = c.Flags
	m.Header.AreaID = c.AreaID
	m.Header.Holes = c.Holes
	m.ShadowRaw = formats.PackShadow(c.Shadow)
	for i := range c.Vertices {
		m.Positions[i] = c.Vertices[i]
		m.Normals[i] = c.Normals[i]
	}
	for i, l := range c.Layers {
		m.Layers = append(m.Layers, formats.ChunkLayer{
			TextureID: textureIndex(l.Name),
			Flags:     l.Flags,
			EffectID:  l.EffectID,
			Animation: l.Animation,
		})
		if i > 0 {
			m.Alpha[i-1] = append([]byte(nil), c.Alpha[i-1]...)
		}
	}
	return m
}

func (c *Chunk) acquireTexture(name string) (gpu.Texture, error) {
	if c.svc.Textures == nil {
		return 0, nil
	}
	return c.svc.Textures.Acquire(name)
}

func (c *Chunk) releaseTexture(name string) {
	if c.svc.Textures != nil {
		c.svc.Textures.Release(name)
	}
}

func (c *Chunk) buildMinimap() {
	for i := range c.Minimap {
		row, col := formats.VertexRowColumn(i)
		x, z := formats.VertexOffset(col, row)
		c.Minimap[i] = mgl32.Vec3{x/ChunkSize + float32(c.IX), z/ChunkSize + float32(c.IY), -1}
	}
	c.upload("minimap", c.svc.GPU.UploadVec3(c.res.minimap, c.Minimap[:]))
}

func (c *Chunk) rebuildStrip() {
	c.Strip = BuildStrip(c.Holes)
	c.upload("strip", c.svc.GPU.UploadIndices(c.res.strip, c.Strip))
}

func (c *Chunk) uploadVertices() {
	c.upload("vertices", c.svc.GPU.UploadVec3(c.res.vertices, c.Vertices[:]))
}

func (c *Chunk) uploadNormals() {
	c.upload("normals", c.svc.GPU.UploadVec3(c.res.normals, c.Normals[:]))
	c.upload("fake shadows", c.svc.GPU.UploadVec4(c.res.fakeShadows, c.FakeShadows[:]))
}

// uploadAlpha pushes alpha map i (layer i+1) to its texture.
func (c *Chunk) uploadAlpha(i int) {
	c.upload("alpha map", c.svc.GPU.UploadAlpha(c.res.alpha[i], AlphaSize, c.Alpha[i]))
}

func (c *Chunk) uploadShadow() {
	c.upload("shadow map", c.svc.GPU.UploadAlpha(c.res.shadow, AlphaSize, c.Shadow))
}

func (c *Chunk) upload(what string, err error) {
	if err != nil {
		logger.Error("chunk upload failed",
			zap.String("buffer", what),
			zap.Int("ix", c.IX), zap.Int("iy", c.IY),
			zap.Error(err))
	}
}
