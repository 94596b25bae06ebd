package terrain

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/logger"
)

// PaintMode selects how a paint stroke changes alpha maps.
type PaintMode string

const (
	// PaintPressure blends the target layer toward the stroke strength and
	// the layers above it toward the remainder.
	PaintPressure PaintMode = "pressure"
	// PaintAdditive only adds coverage to the target layer, evicting fully
	// occluded layers when all slots are taken.
	PaintAdditive PaintMode = "additive"
)

// paintStep is the world distance between painted alpha texels.
const paintStep = ChunkSize / 62

// Painter applies a texture stroke to one chunk. Strength and pressure are
// in [0, 1]. Paint reports whether the stroke affected the chunk.
type Painter interface {
	Paint(c *Chunk, x, z float32, b Brush, strength, pressure float32, texture string) (bool, error)
}

// NewPainter returns the painter for a mode.
func NewPainter(mode PaintMode) (Painter, error) {
	switch mode {
	case PaintPressure, "":
		return PressurePainter{}, nil
	case PaintAdditive:
		return AdditivePainter{}, nil
	}
	return nil, fmt.Errorf("unknown paint mode %q", mode)
}

func blendAlpha(cur byte, target, p float32) byte {
	v := (1-p)*float32(cur) + p*target + 0.5
	return byte(mgl32.Clamp(v, 0, 255))
}

// PressurePainter blends toward the stroke strength.
type PressurePainter struct{}

// Paint implements Painter.
func (PressurePainter) Paint(c *Chunk, x, z float32, b Brush, strength, pressure float32, texture string) (bool, error) {
	radius := b.Radius()
	if c.outOfReach(x, z, radius) {
		return false, nil
	}

	level := c.LayerIndex(texture)
	if level < 0 && len(c.Layers) >= MaxLayers {
		logger.Debug("no free texture slot", zap.Int("ix", c.IX), zap.Int("iy", c.IY))
		return false, ErrNoFreeSlot
	}
	if level >= 0 && len(c.Layers) == 1 {
		return true, nil
	}

	target := strength * 255
	above := 255 - target

	for j := 0; j < AlphaSize-1; j++ {
		zPos := c.Base.Z() + float32(j)*paintStep
		for i := 0; i < AlphaSize-1; i++ {
			xPos := c.Base.X() + float32(i)*paintStep
			dx, dz := xPos-x, zPos-z
			dist := math32.Sqrt(dx*dx + dz*dz)
			if dist > radius {
				continue
			}

			if level < 0 {
				var err error
				if level, err = c.AddTexture(texture); err != nil {
					return false, err
				}
				if level == 0 {
					return true, nil
				}
			}

			p := pressure * b.Value(dist)
			t := i + j*AlphaSize
			if level > 0 {
				c.Alpha[level-1][t] = blendAlpha(c.Alpha[level-1][t], target, p)
			}
			for k := level; k < len(c.Layers)-1; k++ {
				c.Alpha[k][t] = blendAlpha(c.Alpha[k][t], above, p)
			}
		}
	}

	if level < 0 {
		return false, nil
	}
	for k := max(level-1, 0); k < len(c.Layers)-1; k++ {
		c.uploadAlpha(k)
	}
	return true, nil
}

// AdditivePainter adds coverage to the target layer.
type AdditivePainter struct{}

// Paint implements Painter.
func (AdditivePainter) Paint(c *Chunk, x, z float32, b Brush, strength, pressure float32, texture string) (bool, error) {
	radius := b.Radius()
	if c.outOfReach(x, z, radius) {
		return false, nil
	}

	level := c.LayerIndex(texture)
	if level < 0 {
		evicted := false
		if len(c.Layers) >= MaxLayers {
			evicted = c.EvictOccludedLayers() > 0
		}
		if len(c.Layers) >= MaxLayers {
			logger.Debug("no free texture slot", zap.Int("ix", c.IX), zap.Int("iy", c.IY))
			return false, ErrNoFreeSlot
		}
		var err error
		if level, err = c.AddTexture(texture); err != nil {
			// Eviction already changed the layers.
			return evicted, err
		}
	} else if len(c.Layers) == 1 {
		return true, nil
	}
	if level == 0 {
		return true, nil
	}

	amount := pressure * strength * 255
	alpha := c.Alpha[level-1]
	for j := 0; j < AlphaSize; j++ {
		for i := 0; i < AlphaSize; i++ {
			dx := c.Base.X() + paintStep*float32(i) - x
			dz := c.Base.Z() + paintStep*float32(j) - z
			dist := math32.Sqrt(dx*dx + dz*dz)
			if dist > radius {
				continue
			}
			t := i + j*AlphaSize
			v := float32(alpha[t]) + amount*b.Value(dist) + 0.5
			alpha[t] = byte(mgl32.Clamp(v, 0, 255))
		}
	}

	for k := level - 1; k < len(c.Layers)-1; k++ {
		c.uploadAlpha(k)
	}
	return true, nil
}
