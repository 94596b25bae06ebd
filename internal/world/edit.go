package world

import (
	"errors"
	"fmt"
	"time"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/history"
)

// Operation names used for history labels and metrics.
const (
	OpRaise   = "raise"
	OpFlatten = "flatten"
	OpBlur    = "blur"
	OpPaint   = "paint"
	OpHole    = "hole"
	OpArea    = "area"
)

// inReach returns the chunks a brush at (x, z) could touch.
func (t *Tile) inReach(x, z, radius float32) []*terrain.Chunk {
	var out []*terrain.Chunk
	t.forEach(func(c *terrain.Chunk) {
		dx := c.Base.X() + terrain.ChunkSize/2 - x
		dz := c.Base.Z() + terrain.ChunkSize/2 - z
		if math32.Sqrt(dx*dx+dz*dz) <= radius+terrain.ChunkDiameter {
			out = append(out, c)
		}
	})
	return out
}

// edit runs fn over the chunks in reach under the write lock, recording
// their prior state and refreshing normals around whatever changed.
func (t *Tile) edit(op string, x, z, radius float32, fn func(c *terrain.Chunk) (bool, error)) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := time.Now()
	chunks := t.inReach(x, z, radius)
	before := make([]history.Snapshot, 0, len(chunks))
	for _, c := range chunks {
		before = append(before, snapshot(c))
	}

	var errs []error
	var changed []*terrain.Chunk
	var recorded []history.Snapshot
	for i, c := range chunks {
		ok, err := fn(c)
		if err != nil {
			t.opts.Metrics.ObserveFailure(failureReason(err))
			errs = append(errs, fmt.Errorf("chunk (%d, %d): %w", c.IX, c.IY, err))
		}
		if ok {
			changed = append(changed, c)
			recorded = append(recorded, before[i])
		}
	}

	t.refreshNormals(changed)
	t.record(op, recorded)
	t.opts.Metrics.ObserveEdit(op, len(changed), time.Since(start))

	t.log.Debug("edit applied",
		zap.String("op", op),
		zap.Float32("x", x), zap.Float32("z", z), zap.Float32("radius", radius),
		zap.Int("candidates", len(chunks)), zap.Int("changed", len(changed)))
	return len(changed), errors.Join(errs...)
}

// refreshNormals recomputes normals on changed chunks and their neighbours,
// whose edge normals sample the changed heights.
func (t *Tile) refreshNormals(changed []*terrain.Chunk) {
	if len(changed) == 0 {
		return
	}
	dirty := make(map[*terrain.Chunk]bool)
	for _, c := range changed {
		cx, cz := t.cell(c.Base.X()+terrain.ChunkSize/2, c.Base.Z()+terrain.ChunkSize/2)
		for dz := -1; dz <= 1; dz++ {
			for dx := -1; dx <= 1; dx++ {
				x, z := cx+dx, cz+dz
				if x < 0 || z < 0 || x >= gridSize || z >= gridSize || t.chunks[z][x] == nil {
					continue
				}
				dirty[t.chunks[z][x]] = true
			}
		}
	}
	t.forEach(func(c *terrain.Chunk) {
		if dirty[c] {
			c.Changed = true
			c.RecalcNormals()
		}
	})
}

// stroke gathers the first prior state of every chunk an open stroke
// touches, so the whole stroke undoes as one entry.
type stroke struct {
	label  string
	before []history.Snapshot
	seen   map[history.Key]bool
}

// BeginStroke groups the following edits into one undo entry labelled
// label, until EndStroke. An open stroke is ended first.
func (t *Tile) BeginStroke(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endStroke()
	t.stroke = &stroke{label: label, seen: make(map[history.Key]bool)}
}

// EndStroke records the open stroke, if any.
func (t *Tile) EndStroke() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endStroke()
}

func (t *Tile) endStroke() {
	s := t.stroke
	if s == nil {
		return
	}
	t.stroke = nil
	t.push(s.label, s.before)
}

func (t *Tile) record(op string, before []history.Snapshot) {
	if s := t.stroke; s != nil {
		for _, b := range before {
			if !s.seen[b.Key] {
				s.seen[b.Key] = true
				s.before = append(s.before, b)
			}
		}
		return
	}
	t.push(op, before)
}

func (t *Tile) push(label string, before []history.Snapshot) {
	if t.opts.History == nil || !t.opts.History.Record(label, before) {
		return
	}
	undo, redo := t.opts.History.Len()
	t.opts.Metrics.SetUndo(undo+redo, t.opts.History.Size())
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, terrain.ErrNoFreeSlot):
		return "no_free_slot"
	case errors.Is(err, terrain.ErrInvalidAlphaHandle):
		return "invalid_alpha_handle"
	}
	return "other"
}

// ChangeTerrain raises or lowers the terrain around (x, z) and returns the
// number of chunks changed.
func (t *Tile) ChangeTerrain(x, z, change, radius float32, shape terrain.BrushShape) int {
	n, _ := t.edit(OpRaise, x, z, radius, func(c *terrain.Chunk) (bool, error) {
		return c.ChangeTerrain(x, z, change, radius, shape), nil
	})
	return n
}

// FlattenTerrain blends the terrain around (x, z) toward height h.
func (t *Tile) FlattenTerrain(x, z, h, remain, radius float32, shape terrain.BrushShape) int {
	n, _ := t.edit(OpFlatten, x, z, radius, func(c *terrain.Chunk) (bool, error) {
		return c.FlattenTerrain(x, z, h, remain, radius, shape), nil
	})
	return n
}

// BlurTerrain smooths the terrain around (x, z), sampling across chunk
// borders.
func (t *Tile) BlurTerrain(x, z, remain, radius float32, shape terrain.BrushShape) int {
	n, _ := t.edit(OpBlur, x, z, radius, func(c *terrain.Chunk) (bool, error) {
		return c.BlurTerrain(x, z, remain, radius, shape), nil
	})
	return n
}

// Paint applies a texture stroke with the tile's paint mode. Chunks that
// reject the stroke are reported in the joined error; the others are
// still painted.
func (t *Tile) Paint(x, z float32, b terrain.Brush, strength, pressure float32, texture string) (int, error) {
	return t.edit(OpPaint, x, z, b.Radius(), func(c *terrain.Chunk) (bool, error) {
		return t.painter.Paint(c, x, z, b, strength, pressure, texture)
	})
}

// SetHole masks out (or restores) the sub-square under (x, z).
func (t *Tile) SetHole(x, z float32, hole bool) error {
	_, err := t.single(OpHole, x, z, func(c *terrain.Chunk) bool {
		i, j := subSquare(c, x, z)
		if c.IsHole(i, j) == hole {
			return false
		}
		if hole {
			c.AddHole(i, j)
		} else {
			c.RemoveHole(i, j)
		}
		return true
	})
	return err
}

// SetAreaID assigns an area to the chunk under (x, z).
func (t *Tile) SetAreaID(x, z float32, id uint32) error {
	_, err := t.single(OpArea, x, z, func(c *terrain.Chunk) bool {
		if c.AreaID == id {
			return false
		}
		c.SetAreaID(id)
		if t.opts.Areas != nil {
			t.opts.Areas.Color(id)
		}
		return true
	})
	return err
}

// single edits the one chunk under (x, z).
func (t *Tile) single(op string, x, z float32, fn func(c *terrain.Chunk) bool) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := t.chunkAt(x, z)
	if c == nil {
		return false, fmt.Errorf("%w: (%.2f, %.2f)", ErrNoChunk, x, z)
	}
	before := snapshot(c)
	if !fn(c) {
		return false, nil
	}
	t.record(op, []history.Snapshot{before})
	t.opts.Metrics.ObserveEdit(op, 1, 0)
	return true, nil
}

// subSquare returns the hole grid cell of (x, z) within c.
func subSquare(c *terrain.Chunk, x, z float32) (int, int) {
	const cell = terrain.ChunkSize / 4
	i := int((x - c.Base.X()) / cell)
	j := int((z - c.Base.Z()) / cell)
	return min(max(i, 0), 3), min(max(j, 0), 3)
}
