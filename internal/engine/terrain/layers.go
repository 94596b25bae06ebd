package terrain

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/logger"
)

// LayerIndex returns the level holding the named texture, or -1.
func (c *Chunk) LayerIndex(name string) int {
	for i, l := range c.Layers {
		if l.Name == name {
			return i
		}
	}
	return -1
}

// AddTexture appends a layer for the named texture with an empty alpha map
// and returns its level. It fails with ErrNoFreeSlot when all four levels
// are in use, and with ErrInvalidAlphaHandle when the alpha texture the new
// level would use is not a live device texture.
func (c *Chunk) AddTexture(name string) (int, error) {
	level := len(c.Layers)
	if level >= MaxLayers {
		return -1, ErrNoFreeSlot
	}
	if level > 0 && !c.svc.GPU.IsTexture(c.res.alpha[level-1]) {
		logger.Error("alpha map texture is not valid",
			zap.Int("ix", c.IX), zap.Int("iy", c.IY), zap.Int("level", level))
		return -1, ErrInvalidAlphaHandle
	}

	tex, err := c.acquireTexture(name)
	if err != nil {
		return -1, fmt.Errorf("texture %q: %w", name, err)
	}
	c.Layers = append(c.Layers, Layer{Name: name, Texture: tex})
	if level > 0 {
		clear(c.Alpha[level-1])
		c.uploadAlpha(level - 1)
	}
	return level, nil
}

// SwitchTexture replaces the texture of the layer currently showing oldName,
// keeping its alpha map. It reports whether a layer was switched.
func (c *Chunk) SwitchTexture(oldName, newName string) (bool, error) {
	i := c.LayerIndex(oldName)
	if i < 0 {
		return false, nil
	}
	tex, err := c.acquireTexture(newName)
	if err != nil {
		return false, fmt.Errorf("texture %q: %w", newName, err)
	}
	c.releaseTexture(oldName)
	c.Layers[i].Name = newName
	c.Layers[i].Texture = tex
	return true, nil
}

// RemoveLayer drops the layer at level, shifting the layers (and alpha
// maps) above it down by one. Removing the base layer promotes layer 1 to
// the base and discards its alpha map.
func (c *Chunk) RemoveLayer(level int) error {
	if level < 0 || level >= len(c.Layers) {
		return fmt.Errorf("%w: level %d", ErrLayerNotFound, level)
	}
	c.releaseTexture(c.Layers[level].Name)

	n := len(c.Layers)
	c.Layers = append(c.Layers[:level], c.Layers[level+1:]...)

	// Alpha map i belongs to layer i+1. The first alpha map to move is the
	// removed layer's own, or layer 1's when the base was removed.
	first := max(level-1, 0)
	for i := first; i < n-2; i++ {
		copy(c.Alpha[i], c.Alpha[i+1])
	}
	if n >= 2 {
		clear(c.Alpha[n-2])
	}
	for i := first; i < n-1; i++ {
		c.uploadAlpha(i)
	}
	return nil
}

// Visibility returns the coverage each texel of the layer actually shows:
// its own alpha (full for the base layer) minus every layer above it,
// saturating at zero.
func (c *Chunk) Visibility(level int) []byte {
	out := make([]byte, AlphaMapSize)
	if level < 0 || level >= len(c.Layers) {
		return out
	}
	for t := range out {
		v := 255
		if level > 0 {
			v = int(c.Alpha[level-1][t])
		}
		for k := level + 1; k < len(c.Layers) && v > 0; k++ {
			v -= int(c.Alpha[k-1][t])
		}
		out[t] = byte(max(v, 0))
	}
	return out
}

// EvictOccludedLayers removes every layer whose visible coverage is zero
// across the whole map and returns how many were removed.
func (c *Chunk) EvictOccludedLayers() int {
	removed := 0
	for level := 0; level < len(c.Layers); {
		visible := false
		for _, v := range c.Visibility(level) {
			if v != 0 {
				visible = true
				break
			}
		}
		if visible {
			level++
			continue
		}
		logger.Debug("evicting occluded layer",
			zap.Int("ix", c.IX), zap.Int("iy", c.IY),
			zap.Int("level", level), zap.String("texture", c.Layers[level].Name))
		_ = c.RemoveLayer(level)
		removed++
	}
	return removed
}

// EraseTextures releases every layer's texture and drops the layers.
func (c *Chunk) EraseTextures() {
	for _, l := range c.Layers {
		c.releaseTexture(l.Name)
	}
	c.Layers = nil
}
