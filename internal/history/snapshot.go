package history

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrCorrupt is returned when a stored snapshot cannot be decoded.
var ErrCorrupt = errors.New("corrupt history snapshot")

// Key identifies a chunk within a tile.
type Key struct {
	IX, IY int
}

// LayerState is the persistent part of a texture layer.
type LayerState struct {
	Name      string
	Flags     uint32
	Animation uint32
	EffectID  uint32
}

// Snapshot is the editable state of one chunk.
type Snapshot struct {
	Key       Key
	Heights   []float32
	Holes     uint16
	AreaID    uint32
	Flags     uint32
	Layers    []LayerState
	Alpha     [][]byte
	Shadow    []byte
	HasShadow bool
}

// encodeSnapshots serializes snapshots into a flat little-endian record
// stream.
func encodeSnapshots(snaps []Snapshot) []byte {
	var buf bytes.Buffer
	w := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }
	blob := func(b []byte) {
		w(uint32(len(b)))
		buf.Write(b)
	}

	w(uint32(len(snaps)))
	for _, s := range snaps {
		w(int32(s.Key.IX))
		w(int32(s.Key.IY))
		w(uint32(len(s.Heights)))
		w(s.Heights)
		w(s.Holes)
		w(s.AreaID)
		w(s.Flags)
		w(s.HasShadow)
		w(uint32(len(s.Layers)))
		for _, l := range s.Layers {
			blob([]byte(l.Name))
			w(l.Flags)
			w(l.Animation)
			w(l.EffectID)
		}
		w(uint32(len(s.Alpha)))
		for _, a := range s.Alpha {
			blob(a)
		}
		blob(s.Shadow)
	}
	return buf.Bytes()
}

// maxField bounds every length prefix so corrupt input cannot force huge
// allocations.
const maxField = 1 << 20

type decoder struct {
	r   *bytes.Reader
	err error
}

func (d *decoder) read(v any) {
	if d.err == nil {
		d.err = binary.Read(d.r, binary.LittleEndian, v)
	}
}

func (d *decoder) length() int {
	var n uint32
	d.read(&n)
	if d.err == nil && n > maxField {
		d.err = fmt.Errorf("length %d too large", n)
	}
	return int(n)
}

func (d *decoder) blob() []byte {
	n := d.length()
	if d.err != nil {
		return nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		d.err = err
	}
	return b
}

func decodeSnapshots(data []byte) ([]Snapshot, error) {
	d := &decoder{r: bytes.NewReader(data)}

	count := d.length()
	snaps := make([]Snapshot, 0, min(count, 256))
	for i := 0; i < count && d.err == nil; i++ {
		var s Snapshot
		var ix, iy int32
		d.read(&ix)
		d.read(&iy)
		s.Key = Key{int(ix), int(iy)}

		if n := d.length(); d.err == nil {
			s.Heights = make([]float32, n)
			d.read(s.Heights)
		}
		d.read(&s.Holes)
		d.read(&s.AreaID)
		d.read(&s.Flags)
		d.read(&s.HasShadow)

		nl := d.length()
		for j := 0; j < nl && d.err == nil; j++ {
			var l LayerState
			l.Name = string(d.blob())
			d.read(&l.Flags)
			d.read(&l.Animation)
			d.read(&l.EffectID)
			s.Layers = append(s.Layers, l)
		}

		na := d.length()
		for j := 0; j < na && d.err == nil; j++ {
			s.Alpha = append(s.Alpha, d.blob())
		}
		s.Shadow = d.blob()
		snaps = append(snaps, s)
	}

	if d.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, d.err)
	}
	if d.r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, d.r.Len())
	}
	return snaps, nil
}

// Keys returns the chunk keys of snaps in order.
func Keys(snaps []Snapshot) []Key {
	keys := make([]Key, len(snaps))
	for i, s := range snaps {
		keys[i] = s.Key
	}
	return keys
}
