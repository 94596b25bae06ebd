// Package history keeps a bounded undo/redo stack of chunk snapshots.
//
// Each entry is compressed with zstd. Entries whose uncompressed content
// hashes (xxh3) to the same value as the newest undo entry are dropped, so
// repeated no-op strokes do not fill the history.
package history

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/xxh3"
)

// ErrEmpty is returned by Undo and Redo when there is nothing to apply.
var ErrEmpty = errors.New("history is empty")

// Capture returns the current state of the given chunks.
type Capture func(keys []Key) []Snapshot

type entry struct {
	label string
	hash  uint64
	data  []byte
}

// History is an undo/redo stack. It is not safe for concurrent use.
type History struct {
	depth int
	undo  []entry
	redo  []entry

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// New creates a history that keeps at most depth undo entries, compressed
// at the given zstd level (1 fastest .. 22 smallest).
func New(depth, level int) (*History, error) {
	if depth < 1 {
		return nil, fmt.Errorf("history depth must be positive, got %d", depth)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &History{depth: depth, enc: enc, dec: dec}, nil
}

// Close releases the compressor.
func (h *History) Close() {
	h.enc.Close()
	h.dec.Close()
}

func (h *History) pack(label string, snaps []Snapshot) entry {
	raw := encodeSnapshots(snaps)
	return entry{
		label: label,
		hash:  xxh3.Hash(raw),
		data:  h.enc.EncodeAll(raw, nil),
	}
}

func (h *History) unpack(e entry) ([]Snapshot, error) {
	raw, err := h.dec.DecodeAll(e.data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return decodeSnapshots(raw)
}

// Record pushes the state of chunks before an edit. It clears the redo
// stack and reports false when the entry duplicates the newest one.
func (h *History) Record(label string, before []Snapshot) bool {
	if len(before) == 0 {
		return false
	}
	e := h.pack(label, before)
	if n := len(h.undo); n > 0 && h.undo[n-1].hash == e.hash {
		return false
	}
	h.undo = append(h.undo, e)
	if len(h.undo) > h.depth {
		h.undo = h.undo[len(h.undo)-h.depth:]
	}
	h.redo = h.redo[:0]
	return true
}

// Undo pops the newest entry and returns the snapshots to restore. The
// chunks' current state, read through capture, becomes the redo entry.
func (h *History) Undo(capture Capture) (string, []Snapshot, error) {
	return h.step(&h.undo, &h.redo, capture)
}

// Redo reapplies the newest undone entry.
func (h *History) Redo(capture Capture) (string, []Snapshot, error) {
	return h.step(&h.redo, &h.undo, capture)
}

func (h *History) step(from, to *[]entry, capture Capture) (string, []Snapshot, error) {
	n := len(*from)
	if n == 0 {
		return "", nil, ErrEmpty
	}
	e := (*from)[n-1]
	snaps, err := h.unpack(e)
	if err != nil {
		return "", nil, err
	}
	*from = (*from)[:n-1]
	*to = append(*to, h.pack(e.label, capture(Keys(snaps))))
	return e.label, snaps, nil
}

// Len returns the number of undo and redo entries.
func (h *History) Len() (undo, redo int) {
	return len(h.undo), len(h.redo)
}

// Clear drops both stacks, as when another tile is opened.
func (h *History) Clear() {
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}

// Size returns the compressed bytes held by both stacks.
func (h *History) Size() int {
	n := 0
	for _, e := range h.undo {
		n += len(e.data)
	}
	for _, e := range h.redo {
		n += len(e.data)
	}
	return n
}

// Labels returns the undo labels, oldest first.
func (h *History) Labels() []string {
	labels := make([]string, len(h.undo))
	for i, e := range h.undo {
		labels[i] = e.label
	}
	return labels
}
