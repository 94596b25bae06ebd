package terrain

import "fmt"

// State is a copy of everything an edit can change on a chunk.
type State struct {
	Heights   []float32
	Holes     uint16
	AreaID    uint32
	Flags     uint32
	Layers    []Layer
	Alpha     [MaxLayers - 1][]byte
	Shadow    []byte
	HasShadow bool
}

// State captures the chunk's editable state. Texture handles in the
// returned layers are informational only.
func (c *Chunk) State() State {
	s := State{
		Heights:   c.Heights(),
		Holes:     c.Holes,
		AreaID:    c.AreaID,
		Flags:     c.Flags,
		Layers:    append([]Layer(nil), c.Layers...),
		Shadow:    append([]byte(nil), c.Shadow...),
		HasShadow: c.HasShadow,
	}
	for i := range c.Alpha {
		s.Alpha[i] = append([]byte(nil), c.Alpha[i]...)
	}
	return s
}

// Restore puts the chunk back into a captured state and uploads every
// buffer. New textures are acquired before the old ones are released, so
// textures shared by both states stay loaded. The chunk is left untouched
// when an acquire fails.
func (c *Chunk) Restore(s State) error {
	if len(s.Layers) > MaxLayers {
		return fmt.Errorf("%w: %d layers", ErrNoFreeSlot, len(s.Layers))
	}
	if len(s.Shadow) != AlphaMapSize {
		return fmt.Errorf("shadow map has %d texels, want %d", len(s.Shadow), AlphaMapSize)
	}
	for i := range s.Alpha {
		if s.Alpha[i] != nil && len(s.Alpha[i]) != AlphaMapSize {
			return fmt.Errorf("alpha map %d has %d texels, want %d", i, len(s.Alpha[i]), AlphaMapSize)
		}
	}
	if len(s.Heights) != VertexCount {
		return fmt.Errorf("expected %d heights, got %d", VertexCount, len(s.Heights))
	}

	layers := make([]Layer, 0, len(s.Layers))
	for _, l := range s.Layers {
		tex, err := c.acquireTexture(l.Name)
		if err != nil {
			for _, got := range layers {
				c.releaseTexture(got.Name)
			}
			return fmt.Errorf("texture %q: %w", l.Name, err)
		}
		l.Texture = tex
		layers = append(layers, l)
	}
	c.EraseTextures()
	c.Layers = layers
	if err := c.SetHeights(s.Heights); err != nil {
		return err
	}

	for i := range c.Alpha {
		if s.Alpha[i] == nil {
			clear(c.Alpha[i])
		} else {
			copy(c.Alpha[i], s.Alpha[i])
		}
		c.uploadAlpha(i)
	}
	copy(c.Shadow, s.Shadow)
	c.HasShadow = s.HasShadow
	c.uploadShadow()

	c.AreaID = s.AreaID
	c.Flags = s.Flags
	if c.Holes != s.Holes {
		c.Holes = s.Holes
		c.rebuildStrip()
	}
	return nil
}
