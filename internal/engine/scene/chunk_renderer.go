// Package scene draws terrain chunks with OpenGL.
package scene

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/engine/lighting"
	"github.com/Faultbox/midgard-terrain/internal/engine/scene/shaders"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/logger"
)

// Mode selects how chunk surfaces are coloured.
type Mode int

const (
	// ModeTextured blends the texture layers.
	ModeTextured Mode = iota
	// ModeHeight colours vertices by elevation.
	ModeHeight
	// ModeArea colours each chunk by its area id.
	ModeArea
)

// Texture units used by the chunk shader.
const (
	unitLayer0  = 0
	unitAlpha0  = terrain.MaxLayers
	unitShadow  = unitAlpha0 + terrain.MaxLayers - 1
	unitContour = unitShadow + 1
)

// Params are the per-frame drawing settings.
type Params struct {
	ViewProj mgl32.Mat4
	Mode     Mode

	LightDir mgl32.Vec3
	Ambient  mgl32.Vec3
	Diffuse  mgl32.Vec3

	// AnimTime is in milliseconds; DetailSize is the texture repeat count
	// per chunk.
	AnimTime   int
	DetailSize int

	Contours        bool
	ContourInterval float32

	// Chunks farther than DrawDistance from Eye use the low-detail strip.
	// Zero disables the switch.
	Eye          mgl32.Vec3
	DrawDistance float32

	// Areas is required for ModeArea.
	Areas *terrain.AreaColors
}

// DefaultParams lights the terrain with sun for the given camera matrix.
func DefaultParams(viewProj mgl32.Mat4, sun lighting.Sun) Params {
	return Params{
		ViewProj:        viewProj,
		LightDir:        sun.Direction(),
		Ambient:         sun.Ambient,
		Diffuse:         sun.Diffuse,
		DetailSize:      8,
		ContourInterval: 8,
	}
}

// ChunkRenderer draws chunks, their outlines and the pick pass.
type ChunkRenderer struct {
	dev gpu.Device

	surface *gpu.Program
	pick    *gpu.Program
	line    *gpu.Program

	vao uint32
	// colors is a scratch buffer for per-vertex colours.
	colors gpu.Buffer
	// noDetail, selection, outline and holeLines are the shared index
	// buffers.
	noDetail  gpu.Buffer
	selection gpu.Buffer
	outline   gpu.Buffer
	holeLines gpu.Buffer
	contour   gpu.Texture

	log *zap.Logger
}

// NewChunkRenderer compiles the chunk shaders and uploads the shared index
// buffers. It needs a current GL context.
func NewChunkRenderer(dev gpu.Device) (_ *ChunkRenderer, err error) {
	r := &ChunkRenderer{dev: dev, log: logger.Named("scene")}
	defer func() {
		if err != nil {
			r.Destroy()
		}
	}()

	if r.surface, err = gpu.NewProgram(shaders.ChunkVertexShader, shaders.ChunkFragmentShader); err != nil {
		return nil, fmt.Errorf("chunk shader: %w", err)
	}
	if r.pick, err = gpu.NewProgram(shaders.PickVertexShader, shaders.PickFragmentShader); err != nil {
		return nil, fmt.Errorf("pick shader: %w", err)
	}
	if r.line, err = gpu.NewProgram(shaders.LineVertexShader, shaders.LineFragmentShader); err != nil {
		return nil, fmt.Errorf("line shader: %w", err)
	}

	if r.colors, err = dev.NewBuffer(); err != nil {
		return nil, err
	}
	indices := []struct {
		buf  *gpu.Buffer
		data []uint16
	}{
		{&r.noDetail, terrain.NoDetailStrip},
		{&r.selection, terrain.SelectionStrip},
		{&r.outline, terrain.LineStrip},
		{&r.holeLines, terrain.HoleLineStrip},
	}
	for _, ix := range indices {
		if *ix.buf, err = dev.NewBuffer(); err != nil {
			return nil, err
		}
		if err = dev.UploadIndices(*ix.buf, ix.data); err != nil {
			return nil, err
		}
	}

	if r.contour, err = dev.NewRGBATexture(terrain.ContourWidth, 1, terrain.ContourTexture(terrain.ContourWidth)); err != nil {
		return nil, fmt.Errorf("contour texture: %w", err)
	}

	gl.GenVertexArrays(1, &r.vao)
	r.log.Debug("chunk renderer ready")
	return r, nil
}

func bindAttrib(loc uint32, buf gpu.Buffer, size int32) {
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(buf))
	gl.VertexAttribPointerWithOffset(loc, size, gl.FLOAT, false, 0, 0)
	gl.EnableVertexAttribArray(loc)
}

func bindTexture(unit int, tex gpu.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
}

// Draw renders chunk surfaces. Destroyed chunks are skipped.
func (r *ChunkRenderer) Draw(chunks []*terrain.Chunk, p Params) {
	prog := r.surface
	prog.Use()
	gl.UniformMatrix4fv(prog.Uniform("uViewProj"), 1, false, &p.ViewProj[0])
	gl.Uniform1f(prog.Uniform("uChunkSize"), terrain.ChunkSize)
	gl.Uniform1f(prog.Uniform("uDetailSize"), float32(p.DetailSize))
	gl.Uniform1i(prog.Uniform("uMode"), int32(p.Mode))
	gl.Uniform3fv(prog.Uniform("uLightDir"), 1, &p.LightDir[0])
	gl.Uniform3fv(prog.Uniform("uAmbient"), 1, &p.Ambient[0])
	gl.Uniform3fv(prog.Uniform("uDiffuse"), 1, &p.Diffuse[0])

	layerUnits := [terrain.MaxLayers]int32{}
	for i := range layerUnits {
		layerUnits[i] = int32(unitLayer0 + i)
	}
	alphaUnits := [terrain.MaxLayers - 1]int32{}
	for i := range alphaUnits {
		alphaUnits[i] = int32(unitAlpha0 + i)
	}
	gl.Uniform1iv(prog.Uniform("uTexture"), int32(len(layerUnits)), &layerUnits[0])
	gl.Uniform1iv(prog.Uniform("uAlpha"), int32(len(alphaUnits)), &alphaUnits[0])
	gl.Uniform1i(prog.Uniform("uShadow"), unitShadow)
	gl.Uniform1i(prog.Uniform("uContour"), unitContour)

	if p.Contours {
		gl.Uniform1i(prog.Uniform("uContours"), 1)
		gl.Uniform1f(prog.Uniform("uContourInterval"), p.ContourInterval)
		bindTexture(unitContour, r.contour)
	} else {
		gl.Uniform1i(prog.Uniform("uContours"), 0)
	}

	gl.BindVertexArray(r.vao)
	for _, c := range chunks {
		if c.Destroyed() {
			continue
		}
		r.drawSurface(c, p)
	}
	gl.BindVertexArray(0)
	gl.ActiveTexture(gl.TEXTURE0)
}

func (r *ChunkRenderer) drawSurface(c *terrain.Chunk, p Params) {
	prog := r.surface
	h := c.Handles()

	gl.Uniform3fv(prog.Uniform("uBase"), 1, &c.Base[0])
	bindAttrib(0, h.Vertices, 3)
	bindAttrib(1, h.Normals, 3)
	bindAttrib(2, h.FakeShadows, 4)

	switch p.Mode {
	case ModeHeight:
		if err := r.dev.UploadVec3(r.colors, c.HeightColors()); err != nil {
			r.log.Warn("height colour upload failed", zap.Error(err))
		}
		bindAttrib(3, r.colors, 3)
	case ModeArea:
		var col mgl32.Vec3
		if p.Areas != nil {
			col = p.Areas.Color(c.AreaID)
		}
		gl.Uniform3fv(prog.Uniform("uAreaColor"), 1, &col[0])
		gl.DisableVertexAttribArray(3)
	default:
		gl.DisableVertexAttribArray(3)
	}

	var anim [terrain.MaxLayers * 2]float32
	for i, l := range c.Layers {
		bindTexture(unitLayer0+i, l.Texture)
		anim[i*2], anim[i*2+1] = l.AnimOffset(p.AnimTime, p.DetailSize)
		if i > 0 {
			bindTexture(unitAlpha0+i-1, h.Alpha[i-1])
		}
	}
	gl.Uniform2fv(prog.Uniform("uAnim"), terrain.MaxLayers, &anim[0])
	gl.Uniform1i(prog.Uniform("uLayers"), int32(len(c.Layers)))

	if c.HasShadow {
		gl.Uniform1i(prog.Uniform("uHasShadow"), 1)
		bindTexture(unitShadow, h.Shadow)
	} else {
		gl.Uniform1i(prog.Uniform("uHasShadow"), 0)
	}

	if lowDetail(c, p) {
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(r.noDetail))
		gl.DrawElements(gl.TRIANGLE_STRIP, terrain.NoDetailStripLen, gl.UNSIGNED_SHORT, nil)
		return
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(h.Strip))
	gl.DrawElements(gl.TRIANGLE_STRIP, int32(len(c.Strip)), gl.UNSIGNED_SHORT, nil)
}

// lowDetail reports whether c is far enough to draw with the low-detail
// strip. Chunks with holes always use their own strip.
func lowDetail(c *terrain.Chunk, p Params) bool {
	if p.DrawDistance <= 0 || c.Holes != 0 {
		return false
	}
	return c.Bounds.Center.Sub(p.Eye).Len() > p.DrawDistance
}

// DrawPick renders the selection strips into the bound framebuffer with
// each triangle coloured by EncodePickID. The framebuffer must be cleared
// to zero alpha first. Chunks without a name or with a name past
// MaxPickName are skipped.
func (r *ChunkRenderer) DrawPick(chunks []*terrain.Chunk, viewProj mgl32.Mat4) {
	prog := r.pick
	prog.Use()
	gl.UniformMatrix4fv(prog.Uniform("uViewProj"), 1, false, &viewProj[0])
	gl.Uniform1i(prog.Uniform("uTriBits"), triBits)

	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(r.selection))
	for _, c := range chunks {
		if c.Destroyed() || c.Name <= 0 || c.Name > MaxPickName {
			continue
		}
		gl.Uniform1i(prog.Uniform("uName"), int32(c.Name))
		bindAttrib(0, c.Handles().Vertices, 3)
		gl.DrawElements(gl.TRIANGLE_STRIP, terrain.SelectionStripLen, gl.UNSIGNED_SHORT, nil)
	}
	gl.BindVertexArray(0)
}

// OutlineColors are the line colours for DrawOutlines.
type OutlineColors struct {
	Edge     mgl32.Vec3
	TileEdge mgl32.Vec3
	Holes    mgl32.Vec3
}

// DrawOutlines draws chunk borders and, for chunks with holes, the hole
// grid, lifted slightly above the surface.
func (r *ChunkRenderer) DrawOutlines(chunks []*terrain.Chunk, viewProj mgl32.Mat4, colors OutlineColors) {
	prog := r.line
	prog.Use()
	gl.UniformMatrix4fv(prog.Uniform("uViewProj"), 1, false, &viewProj[0])
	gl.Uniform1f(prog.Uniform("uLift"), 0.1)

	gl.BindVertexArray(r.vao)
	for _, c := range chunks {
		if c.Destroyed() {
			continue
		}
		bindAttrib(0, c.Handles().Vertices, 3)

		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(r.outline))
		for _, seg := range terrain.OutlineSegments(c.IX, c.IY) {
			col := colors.Edge
			if seg.TileEdge {
				col = colors.TileEdge
			}
			gl.Uniform3fv(prog.Uniform("uColor"), 1, &col[0])
			gl.DrawElementsWithOffset(gl.LINE_STRIP, int32(seg.Count), gl.UNSIGNED_SHORT, uintptr(seg.Start*2))
		}

		if c.Holes == 0 {
			continue
		}
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(r.holeLines))
		gl.Uniform3fv(prog.Uniform("uColor"), 1, &colors.Holes[0])
		for i := 0; i < terrain.HoleLineStripLen; i += 9 {
			gl.DrawElementsWithOffset(gl.LINE_STRIP, 9, gl.UNSIGNED_SHORT, uintptr(i*2))
		}
	}
	gl.BindVertexArray(0)
}

// Destroy releases the renderer's GPU resources.
func (r *ChunkRenderer) Destroy() {
	for _, p := range []*gpu.Program{r.surface, r.pick, r.line} {
		if p != nil {
			p.Delete()
		}
	}
	r.surface, r.pick, r.line = nil, nil, nil
	for _, b := range []*gpu.Buffer{&r.colors, &r.noDetail, &r.selection, &r.outline, &r.holeLines} {
		if *b != 0 {
			r.dev.DeleteBuffer(*b)
			*b = 0
		}
	}
	if r.contour != 0 {
		r.dev.DeleteTexture(r.contour)
		r.contour = 0
	}
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
		r.vao = 0
	}
}
