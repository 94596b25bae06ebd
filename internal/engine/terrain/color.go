package terrain

import (
	"math/rand/v2"
	"sync"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl32"
)

// Height bands for elevation colouring.
const (
	heightTop     = 1000
	heightMid     = 600
	heightLow     = 300
	heightZero    = 0
	heightShallow = -100
	heightDeep    = -250
)

// HeightColor maps an absolute height to a colour running from black (deep)
// through blue, green and brown to white (peaks).
func HeightColor(h float32) mgl32.Vec3 {
	band := func(lo, hi float32) float32 { return (h - lo) / (hi - lo) }
	switch {
	case h > heightTop:
		return mgl32.Vec3{1, 1, 1}
	case h > heightMid:
		a := band(heightMid, heightTop)
		return mgl32.Vec3{0.75 + 0.25*a, 0.5 + 0.5*a, a}
	case h > heightLow:
		a := band(heightLow, heightMid)
		return mgl32.Vec3{0.75 * a, 1 - 0.5*a, 0}
	case h > heightZero:
		a := band(heightZero, heightLow)
		return mgl32.Vec3{1 - a, 1, 0}
	case h > heightShallow:
		a := band(heightShallow, heightZero)
		return mgl32.Vec3{0, a, 1}
	case h > heightDeep:
		a := band(heightDeep, heightShallow)
		return mgl32.Vec3{0, 0, a}
	}
	return mgl32.Vec3{}
}

// HeightColors returns HeightColor for every vertex.
func (c *Chunk) HeightColors() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, VertexCount)
	for i, v := range c.Vertices {
		out[i] = HeightColor(v.Y())
	}
	return out
}

// AreaColors assigns each area id a stable random colour in first-seen
// order. It is safe for concurrent use.
type AreaColors struct {
	mu     sync.Mutex
	rng    *rand.Rand
	colors *orderedmap.OrderedMap[uint32, mgl32.Vec3]
}

// NewAreaColors creates an empty registry seeded for reproducible colours.
func NewAreaColors(seed uint64) *AreaColors {
	return &AreaColors{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		colors: orderedmap.NewOrderedMap[uint32, mgl32.Vec3](),
	}
}

// Color returns the colour of an area, assigning one on first use.
func (a *AreaColors) Color(id uint32) mgl32.Vec3 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if c, ok := a.colors.Get(id); ok {
		return c
	}
	c := mgl32.Vec3{a.rng.Float32(), a.rng.Float32(), a.rng.Float32()}
	a.colors.Set(id, c)
	return c
}

// Areas returns the known area ids in first-seen order.
func (a *AreaColors) Areas() []uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.colors.Keys()
}
