package terrain

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-terrain/internal/engine/gpu"
	"github.com/Faultbox/midgard-terrain/internal/selection"
	"github.com/Faultbox/midgard-terrain/pkg/formats"
)

// fakeTextures hands out texture handles and tracks reference counts.
type fakeTextures struct {
	next    gpu.Texture
	handles map[string]gpu.Texture
	refs    map[string]int
	fail    map[string]bool
}

func newFakeTextures() *fakeTextures {
	return &fakeTextures{
		next:    1000,
		handles: make(map[string]gpu.Texture),
		refs:    make(map[string]int),
		fail:    make(map[string]bool),
	}
}

func (f *fakeTextures) Acquire(name string) (gpu.Texture, error) {
	if f.fail[name] {
		return 0, errors.New("texture not found")
	}
	if _, ok := f.handles[name]; !ok {
		f.next++
		f.handles[name] = f.next
	}
	f.refs[name]++
	return f.handles[name], nil
}

func (f *fakeTextures) Release(name string) {
	f.refs[name]--
	if f.refs[name] == 0 {
		delete(f.refs, name)
	}
}

func (f *fakeTextures) total() int {
	n := 0
	for _, r := range f.refs {
		n += r
	}
	return n
}

type testEnv struct {
	rec   *gpu.Recorder
	tex   *fakeTextures
	names *selection.Names
}

func newTestEnv() *testEnv {
	return &testEnv{
		rec:   gpu.NewRecorder(),
		tex:   newFakeTextures(),
		names: selection.NewNames(),
	}
}

func (e *testEnv) services() Services {
	return Services{GPU: e.rec, Textures: e.tex, Names: e.names}
}

// chunk builds a flat chunk at height 100 with its origin at (0, 0) and the
// given layer textures.
func (e *testEnv) chunk(t *testing.T, layers ...string) *Chunk {
	t.Helper()
	m := formats.NewMCNK(0, 0, [3]float32{0, 100, 0})
	for i := range layers {
		m.Layers = append(m.Layers, formats.ChunkLayer{TextureID: uint32(i)})
		if i > 0 {
			m.Alpha[i-1] = make([]byte, AlphaMapSize)
		}
	}
	c, err := NewChunk(m, layers, e.services())
	require.NoError(t, err)
	return c
}

// centre is the middle of the test chunk.
var centre = mgl32.Vec2{ChunkSize / 2, ChunkSize / 2}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}
