package world

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
	"github.com/Faultbox/midgard-terrain/internal/history"
)

func snapshot(c *terrain.Chunk) history.Snapshot {
	st := c.State()
	s := history.Snapshot{
		Key:       history.Key{IX: c.IX, IY: c.IY},
		Heights:   st.Heights,
		Holes:     st.Holes,
		AreaID:    st.AreaID,
		Flags:     st.Flags,
		Shadow:    st.Shadow,
		HasShadow: st.HasShadow,
	}
	for _, l := range st.Layers {
		s.Layers = append(s.Layers, history.LayerState{
			Name:      l.Name,
			Flags:     l.Flags,
			Animation: l.Animation,
			EffectID:  l.EffectID,
		})
	}
	s.Alpha = append(s.Alpha, st.Alpha[:]...)
	return s
}

func state(s history.Snapshot) terrain.State {
	st := terrain.State{
		Heights:   s.Heights,
		Holes:     s.Holes,
		AreaID:    s.AreaID,
		Flags:     s.Flags,
		Shadow:    s.Shadow,
		HasShadow: s.HasShadow,
	}
	for _, l := range s.Layers {
		st.Layers = append(st.Layers, terrain.Layer{
			Name:      l.Name,
			Flags:     l.Flags,
			Animation: l.Animation,
			EffectID:  l.EffectID,
		})
	}
	for i := range st.Alpha {
		if i < len(s.Alpha) {
			st.Alpha[i] = s.Alpha[i]
		}
	}
	return st
}

// chunkByKey finds a chunk by its header grid index.
func (t *Tile) chunkByKey(k history.Key) *terrain.Chunk {
	var found *terrain.Chunk
	t.forEach(func(c *terrain.Chunk) {
		if c.IX == k.IX && c.IY == k.IY {
			found = c
		}
	})
	return found
}

func (t *Tile) capture(keys []history.Key) []history.Snapshot {
	out := make([]history.Snapshot, 0, len(keys))
	for _, k := range keys {
		if c := t.chunkByKey(k); c != nil {
			out = append(out, snapshot(c))
		}
	}
	return out
}

// Undo reverts the newest recorded edit and returns its label.
func (t *Tile) Undo() (string, error) {
	return t.travel("undo", func(h *history.History) (string, []history.Snapshot, error) {
		return h.Undo(t.capture)
	})
}

// Redo reapplies the newest undone edit.
func (t *Tile) Redo() (string, error) {
	return t.travel("redo", func(h *history.History) (string, []history.Snapshot, error) {
		return h.Redo(t.capture)
	})
}

func (t *Tile) travel(dir string, step func(h *history.History) (string, []history.Snapshot, error)) (string, error) {
	if t.opts.History == nil {
		return "", history.ErrEmpty
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.endStroke()
	label, snaps, err := step(t.opts.History)
	if err != nil {
		return "", err
	}

	var restored []*terrain.Chunk
	for _, s := range snaps {
		c := t.chunkByKey(s.Key)
		if c == nil {
			return label, fmt.Errorf("%w: chunk (%d, %d) from history", ErrNoChunk, s.Key.IX, s.Key.IY)
		}
		if err := c.Restore(state(s)); err != nil {
			return label, fmt.Errorf("restoring chunk (%d, %d): %w", s.Key.IX, s.Key.IY, err)
		}
		restored = append(restored, c)
	}
	t.refreshNormals(restored)

	undo, redo := t.opts.History.Len()
	t.opts.Metrics.SetUndo(undo+redo, t.opts.History.Size())
	t.log.Debug("history step", zap.String("dir", dir), zap.String("label", label), zap.Int("chunks", len(restored)))
	return label, nil
}
