package scene

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/internal/engine/framebuffer"
	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
)

// Hit is a resolved pick: the chunk's pick name and the selection strip
// triangle under the cursor.
type Hit struct {
	Name int
	Tri  int
}

// Pick renders the pick pass into fb and reads back the pixel under
// window coordinates (x, y). ok is false when the cursor is over nothing.
func (r *ChunkRenderer) Pick(fb *framebuffer.Framebuffer, chunks []*terrain.Chunk, viewProj mgl32.Mat4, x, y int) (Hit, bool) {
	restore := fb.Bind()
	defer restore()

	fb.Clear()
	gl.Enable(gl.DEPTH_TEST)
	r.DrawPick(chunks, viewProj)

	name, tri, ok := DecodePickID(fb.ReadPixel(x, y))
	return Hit{Name: name, Tri: tri}, ok
}
