package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Chunk format errors.
var (
	ErrInvalidChunkTag = errors.New("invalid chunk tag: expected 'MCNK'")
	ErrTruncatedChunk  = errors.New("truncated chunk data")
	ErrTooManyLayers   = errors.New("too many texture layers")
)

// Tag is a four-character block code as read from the stream (little-endian).
type Tag uint32

func makeTag(s string) Tag {
	return Tag(uint32(s[0])<<24 | uint32(s[1])<<16 | uint32(s[2])<<8 | uint32(s[3]))
}

// String returns the tag as its four characters.
func (t Tag) String() string {
	return string([]byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)})
}

// Block tags.
var (
	TagMTEX = makeTag("MTEX")
	TagMCNK = makeTag("MCNK")
	TagMCVT = makeTag("MCVT")
	TagMCNR = makeTag("MCNR")
	TagMCLY = makeTag("MCLY")
	TagMCSH = makeTag("MCSH")
	TagMCAL = makeTag("MCAL")
	TagMCLQ = makeTag("MCLQ")
	TagMCCV = makeTag("MCCV")
)

// Chunk header flags.
const (
	FlagHasShadow   = 0x1
	FlagImpassable  = 0x2
	FlagLiquidRiver = 0x4
	FlagLiquidOcean = 0x8
	FlagLiquidMagma = 0x10
	FlagLiquidSlime = 0x20
)

// Layer flags.
const (
	LayerFlagAnimSpeed       = 0x38
	LayerFlagAnimDirection   = 0x07
	LayerFlagAnimate         = 0x40
	LayerFlagUseAlpha        = 0x100
	LayerFlagCompressedAlpha = 0x200
)

// Sizes of fixed records.
const (
	HeaderSize      = 0x80
	normalBlockSize = 0x1C0
	layerRecordSize = 16
	ShadowRawSize   = 512
	AlphaSize       = 64
	AlphaMapSize    = AlphaSize * AlphaSize
	MaxLayers       = 4
)

// MCNKHeader is the fixed 128-byte chunk header.
type MCNKHeader struct {
	Flags          uint32
	IX             uint32
	IY             uint32
	NLayers        uint32
	NDoodadRefs    uint32
	OfsHeight      uint32
	OfsNormal      uint32
	OfsLayer       uint32
	OfsRefs        uint32
	OfsAlpha       uint32
	SizeAlpha      uint32
	OfsShadow      uint32
	SizeShadow     uint32
	AreaID         uint32
	NMapObjRefs    uint32
	Holes          uint16
	Pad            uint16
	PredTex        [8]uint16
	NoEffectDoodad [8]uint8
	OfsSndEmitters uint32
	NSndEmitters   uint32
	OfsLiquid      uint32
	SizeLiquid     uint32
	Position       [3]float32 // stored as z, x, y
	OfsMCCV        uint32
	Props          uint32
	EffectID       uint32
}

// ChunkLayer is one texture layer record.
type ChunkLayer struct {
	TextureID   uint32
	Flags       uint32
	AlphaOffset uint32
	EffectID    uint32
	// Animation holds Flags when the layer is animated, otherwise 0.
	Animation uint32
}

// MCNK is a decoded terrain chunk.
type MCNK struct {
	Header MCNKHeader
	// Base is the world-space chunk origin (x, y, z).
	Base      [3]float32
	Positions [VertexCount][3]float32
	Normals   [VertexCount][3]float32
	MinY      float32
	MaxY      float32
	Layers    []ChunkLayer
	// Alpha holds 64x64 coverage maps for layers 1..3, indexed layer-1.
	Alpha [MaxLayers - 1][]byte
	// ShadowRaw is the bit-packed shadow block; Shadow the expanded mask.
	ShadowRaw [ShadowRawSize]byte
	Shadow    []byte

	HasHeights bool
	HasNormals bool
	HasShadow  bool
	// HasLiquid reports that a liquid block was seen; its contents are not decoded.
	HasLiquid bool
}

// ParseChunk decodes one MCNK block at the stream's current position.
// bigAlpha selects 8-bit uncompressed alpha maps instead of the legacy 4-bit form.
func ParseChunk(s Stream, bigAlpha bool) (*MCNK, error) {
	tag, size, err := readBlockHeader(s)
	if err != nil {
		return nil, fmt.Errorf("%w: reading chunk tag", ErrTruncatedChunk)
	}
	if tag != TagMCNK {
		return nil, fmt.Errorf("%w, got %q", ErrInvalidChunkTag, tag)
	}
	end := s.Pos() + int(size)

	c := &MCNK{}
	var raw [HeaderSize]byte
	if _, err := s.Read(raw[:]); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedChunk)
	}
	if err := binary.Read(bytes.NewReader(raw[:]), binary.LittleEndian, &c.Header); err != nil {
		return nil, fmt.Errorf("%w: decoding header", ErrTruncatedChunk)
	}

	c.Base = [3]float32{
		-c.Header.Position[1] + ZeroPoint,
		c.Header.Position[2],
		-c.Header.Position[0] + ZeroPoint,
	}
	c.MinY = 9999999.0
	c.MaxY = -9999999.0

loop:
	for s.Pos() < end {
		tag, size, err := readBlockHeader(s)
		if err != nil {
			return nil, fmt.Errorf("%w: reading sub-block header at %d", ErrTruncatedChunk, s.Pos())
		}
		next := s.Pos() + int(size)

		switch tag {
		case TagMCNR:
			next = s.Pos() + normalBlockSize
			if err := c.readNormals(s); err != nil {
				return nil, err
			}
		case TagMCVT:
			if err := c.readHeights(s); err != nil {
				return nil, err
			}
		case TagMCLY:
			if err := c.readLayers(s, size); err != nil {
				return nil, err
			}
		case TagMCSH:
			if _, err := s.Read(c.ShadowRaw[:]); err != nil {
				return nil, fmt.Errorf("%w: reading shadow map", ErrTruncatedChunk)
			}
			c.Shadow = ExpandShadow(c.ShadowRaw[:])
			c.HasShadow = true
		case TagMCAL:
			if err := c.readAlpha(s, bigAlpha); err != nil {
				return nil, err
			}
		case TagMCLQ:
			// Liquid decoding is unsupported; nothing after it is read.
			c.HasLiquid = true
			break loop
		case TagMCCV:
			// Vertex colours are reserved.
		}
		s.Seek(next)
	}

	if !c.HasHeights {
		c.flatten()
	}
	if c.Header.Flags&FlagHasShadow == 0 {
		c.ShadowRaw = [ShadowRawSize]byte{}
		c.Shadow = make([]byte, AlphaMapSize)
		c.HasShadow = false
	} else if c.Shadow == nil {
		c.Shadow = make([]byte, AlphaMapSize)
	}

	return c, nil
}

func (c *MCNK) readNormals(s Stream) error {
	var buf [VertexCount * 3]byte
	if _, err := s.Read(buf[:]); err != nil {
		return fmt.Errorf("%w: reading normals", ErrTruncatedChunk)
	}
	for row := 0; row < GridRows; row++ {
		for col := 0; col < RowWidth(row); col++ {
			i := VertexIndex(col, row)
			// Stored as X, Z, Y.
			n := buf[i*3 : i*3+3]
			c.Normals[i] = [3]float32{
				-float32(int8(n[1])) / 127.0,
				float32(int8(n[2])) / 127.0,
				-float32(int8(n[0])) / 127.0,
			}
		}
	}
	c.HasNormals = true
	return nil
}

func (c *MCNK) readHeights(s Stream) error {
	for row := 0; row < GridRows; row++ {
		for col := 0; col < RowWidth(row); col++ {
			h, err := readFloat32(s)
			if err != nil {
				return fmt.Errorf("%w: reading height %d/%d", ErrTruncatedChunk, row, col)
			}
			x, z := VertexOffset(col, row)
			y := c.Base[1] + h
			c.Positions[VertexIndex(col, row)] = [3]float32{c.Base[0] + x, y, c.Base[2] + z}
			if y < c.MinY {
				c.MinY = y
			}
			if y > c.MaxY {
				c.MaxY = y
			}
		}
	}
	c.HasHeights = true
	return nil
}

// flatten places every vertex at the base height when no height block exists.
func (c *MCNK) flatten() {
	for i := range c.Positions {
		row, col := VertexRowColumn(i)
		x, z := VertexOffset(col, row)
		c.Positions[i] = [3]float32{c.Base[0] + x, c.Base[1], c.Base[2] + z}
	}
	c.MinY, c.MaxY = c.Base[1], c.Base[1]
}

func (c *MCNK) readLayers(s Stream, size uint32) error {
	n := int(size / layerRecordSize)
	if n > MaxLayers {
		return fmt.Errorf("%w: %d", ErrTooManyLayers, n)
	}
	c.Layers = make([]ChunkLayer, n)
	for i := range c.Layers {
		var rec [layerRecordSize]byte
		if _, err := s.Read(rec[:]); err != nil {
			return fmt.Errorf("%w: reading layer %d", ErrTruncatedChunk, i)
		}
		l := ChunkLayer{
			TextureID:   binary.LittleEndian.Uint32(rec[0:]),
			Flags:       binary.LittleEndian.Uint32(rec[4:]),
			AlphaOffset: binary.LittleEndian.Uint32(rec[8:]),
			EffectID:    binary.LittleEndian.Uint32(rec[12:]),
		}
		if l.Flags&LayerFlagAnimate != 0 {
			l.Animation = l.Flags
		}
		c.Layers[i] = l
	}
	return nil
}

func (c *MCNK) readAlpha(s Stream, bigAlpha bool) error {
	base := s.Pos()
	layers := int(c.Header.NLayers)
	if layers > len(c.Layers) {
		layers = len(c.Layers)
	}
	// Layer 0 is the opaque base and never carries alpha.
	for layer := 1; layer < layers; layer++ {
		l := c.Layers[layer]
		if l.Flags&LayerFlagUseAlpha == 0 {
			continue
		}
		s.Seek(base + int(l.AlphaOffset))

		var (
			amap []byte
			err  error
		)
		switch {
		case l.Flags&LayerFlagCompressedAlpha != 0:
			amap, _, err = DecompressAlpha(s.Bytes())
		case bigAlpha:
			amap, err = copyAlpha8(s.Bytes())
		default:
			amap, err = ExpandAlpha4(s.Bytes())
		}
		if err != nil {
			return fmt.Errorf("layer %d alpha: %w", layer, err)
		}
		c.Alpha[layer-1] = amap
	}
	return nil
}

func copyAlpha8(src []byte) ([]byte, error) {
	if len(src) < AlphaMapSize {
		return nil, fmt.Errorf("%w: 8-bit alpha map needs %d bytes, have %d", ErrTruncatedChunk, AlphaMapSize, len(src))
	}
	out := make([]byte, AlphaMapSize)
	copy(out, src)
	return out, nil
}

// IsHole reports whether sub-square (i, j) of the header hole mask is set.
func (h *MCNKHeader) IsHole(i, j int) bool {
	return h.Holes&(1<<uint(j*4+i)) != 0
}
