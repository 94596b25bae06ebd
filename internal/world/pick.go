package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
)

// Names resolves pick names to their owners.
type Names interface {
	Get(name int) (any, bool)
}

// PickChunk returns the chunk registered under a pick name.
func PickChunk(names Names, name int) (*terrain.Chunk, error) {
	owner, ok := names.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownName, name)
	}
	c, ok := owner.(*terrain.Chunk)
	if !ok {
		return nil, fmt.Errorf("%w: %d is not a chunk", ErrUnknownName, name)
	}
	return c, nil
}

// PickPosition resolves a hit (pick name, selection triangle) to the
// triangle's centroid.
func (t *Tile) PickPosition(names Names, name, tri int) (mgl32.Vec3, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c, err := PickChunk(names, name)
	if err != nil {
		return terrain.OffMapPosition, err
	}
	return c.SelectionPosition(tri)
}
