package formats

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/Faultbox/midgard-terrain/pkg/encoding"
)

// ChunksPerTile is the number of chunks along one side of a tile.
const ChunksPerTile = 16

// Tile is a parsed terrain tile: its texture filename table and chunks.
type Tile struct {
	Textures []string
	Chunks   []*MCNK
}

// TileOptions controls tile decoding.
type TileOptions struct {
	// BigAlpha selects 8-bit uncompressed alpha maps.
	BigAlpha bool
	// EUCKRNames decodes texture filenames from EUC-KR.
	EUCKRNames bool
}

// ParseTile parses a sequence of top-level blocks: an MTEX texture table
// and any number of MCNK chunks. Unknown blocks are skipped.
func ParseTile(data []byte, opts TileOptions) (*Tile, error) {
	r := NewReader(data)
	t := &Tile{}

	for r.Pos() < r.Len() {
		start := r.Pos()
		tag, size, err := readBlockHeader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: reading block header at %d", ErrTruncatedChunk, start)
		}
		next := r.Pos() + int(size)
		if next > r.Len() {
			return nil, fmt.Errorf("%w: block %q at %d overruns data", ErrTruncatedChunk, tag, start)
		}

		switch tag {
		case TagMTEX:
			t.Textures = ParseTextureNames(data[r.Pos():next], opts.EUCKRNames)
		case TagMCNK:
			r.Seek(start)
			c, err := ParseChunk(r, opts.BigAlpha)
			if err != nil {
				return nil, fmt.Errorf("parsing chunk %d: %w", len(t.Chunks), err)
			}
			t.Chunks = append(t.Chunks, c)
		}
		r.Seek(next)
	}

	return t, nil
}

// ParseTileFile parses a tile file from disk.
func ParseTileFile(path string, opts TileOptions) (*Tile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tile file: %w", err)
	}
	return ParseTile(data, opts)
}

// ParseTextureNames splits a null-separated filename table.
func ParseTextureNames(data []byte, euckr bool) []string {
	var names []string
	for _, part := range bytes.Split(data, []byte{0}) {
		if len(part) == 0 {
			continue
		}
		if euckr {
			names = append(names, encoding.EUCKRToUTF8(part))
		} else {
			names = append(names, string(part))
		}
	}
	return names
}

// EncodeTile serializes a tile: the texture table followed by its chunks.
func EncodeTile(t *Tile, opts TileOptions) []byte {
	var w blockWriter
	var names bytes.Buffer
	for _, name := range t.Textures {
		name = strings.ReplaceAll(name, "\x00", "")
		if opts.EUCKRNames {
			names.Write(encoding.UTF8ToEUCKR(name))
		} else {
			names.WriteString(name)
		}
		names.WriteByte(0)
	}
	w.block(TagMTEX, names.Bytes())
	for _, c := range t.Chunks {
		w.buf.Write(EncodeChunk(c, opts.BigAlpha))
	}
	return w.buf.Bytes()
}

// TextureName returns the filename of texture id, or "" if out of range.
func (t *Tile) TextureName(id uint32) string {
	if int(id) >= len(t.Textures) {
		return ""
	}
	return t.Textures[id]
}
