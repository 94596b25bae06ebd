package formats

import (
	"encoding/binary"
	"io"
	"math"
)

// Stream is a positioned, seekable view over a tagged-block container.
// Positions are absolute byte offsets from the start of the container.
type Stream interface {
	// Read fills p completely or returns io.ErrUnexpectedEOF.
	Read(p []byte) (int, error)
	Seek(pos int)
	SeekRelative(delta int)
	Pos() int
	// Bytes returns the unread data at the current position without copying.
	Bytes() []byte
}

// Reader is an in-memory Stream.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Stream over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Read implements Stream.
func (r *Reader) Read(p []byte) (int, error) {
	if r.pos < 0 || r.pos+len(p) > len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

// Seek moves to an absolute position. Out-of-range positions are allowed;
// the next read fails.
func (r *Reader) Seek(pos int) {
	r.pos = pos
}

// SeekRelative moves the position by delta bytes.
func (r *Reader) SeekRelative(delta int) {
	r.pos += delta
}

// Pos returns the current absolute position.
func (r *Reader) Pos() int {
	return r.pos
}

// Bytes returns the unread remainder.
func (r *Reader) Bytes() []byte {
	if r.pos < 0 || r.pos >= len(r.data) {
		return nil
	}
	return r.data[r.pos:]
}

// Len returns the total container size.
func (r *Reader) Len() int {
	return len(r.data)
}

func readUint32(s Stream) (uint32, error) {
	var b [4]byte
	if _, err := s.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readFloat32(s Stream) (float32, error) {
	v, err := readUint32(s)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// readBlockHeader reads a 4-byte tag and its 4-byte payload size.
func readBlockHeader(s Stream) (Tag, uint32, error) {
	tag, err := readUint32(s)
	if err != nil {
		return 0, 0, err
	}
	size, err := readUint32(s)
	if err != nil {
		return 0, 0, err
	}
	return Tag(tag), size, nil
}
