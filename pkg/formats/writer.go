package formats

import (
	"bytes"
	"encoding/binary"
	"math"
)

// blockWriter accumulates tagged blocks.
type blockWriter struct {
	buf bytes.Buffer
}

// block appends a tagged block and returns the offset of its tag.
func (w *blockWriter) block(tag Tag, payload []byte) uint32 {
	at := uint32(w.buf.Len())
	w.u32(uint32(tag))
	w.u32(uint32(len(payload)))
	w.buf.Write(payload)
	return at
}

func (w *blockWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

// blockHeaderSize is the tag and size preceding every block.
const blockHeaderSize = 8

// subBlockBase is where sub-blocks start, counted from the MCNK tag.
const subBlockBase = blockHeaderSize + HeaderSize

const liquidFlags = FlagLiquidRiver | FlagLiquidOcean | FlagLiquidMagma | FlagLiquidSlime

// EncodeChunk serializes c as an MCNK block. Alpha maps are written
// compressed for layers flagged LayerFlagCompressedAlpha, otherwise as
// 8-bit (bigAlpha) or legacy 4-bit maps. Liquid data is never written, so
// the liquid flags are cleared. Header offsets point at the blocks
// actually written; blocks that are absent get zero.
func EncodeChunk(c *MCNK, bigAlpha bool) []byte {
	var sub blockWriter

	hdr := c.Header
	hdr.NLayers = uint32(len(c.Layers))
	hdr.Position = [3]float32{
		-(c.Base[2] - ZeroPoint),
		-(c.Base[0] - ZeroPoint),
		c.Base[1],
	}
	if c.HasShadow {
		hdr.Flags |= FlagHasShadow
	} else {
		hdr.Flags &^= FlagHasShadow
	}
	hdr.Flags &^= liquidFlags
	hdr.NDoodadRefs, hdr.NMapObjRefs, hdr.OfsRefs = 0, 0, 0
	hdr.OfsSndEmitters, hdr.NSndEmitters = 0, 0
	hdr.OfsLiquid, hdr.SizeLiquid = 0, 0
	hdr.OfsMCCV = 0
	hdr.OfsAlpha, hdr.SizeAlpha = 0, 0
	hdr.OfsShadow, hdr.SizeShadow = 0, 0

	heights := make([]byte, 0, VertexCount*4)
	for i := 0; i < VertexCount; i++ {
		heights = binary.LittleEndian.AppendUint32(heights, math.Float32bits(c.Positions[i][1]-c.Base[1]))
	}
	hdr.OfsHeight = subBlockBase + sub.block(TagMCVT, heights)

	normals := make([]byte, VertexCount*3, normalBlockSize)
	for i, n := range c.Normals {
		normals[i*3+0] = byte(packNormal(-n[2]))
		normals[i*3+1] = byte(packNormal(-n[0]))
		normals[i*3+2] = byte(packNormal(n[1]))
	}
	hdr.OfsNormal = subBlockBase + sub.block(TagMCNR, normals)
	// The normal block is always followed by padding up to its fixed size.
	sub.buf.Write(make([]byte, normalBlockSize-len(normals)))

	var alpha []byte
	layers := make([]byte, 0, len(c.Layers)*layerRecordSize)
	for i, l := range c.Layers {
		flags := l.Flags
		offset := uint32(0)
		if i > 0 && c.Alpha[i-1] != nil {
			flags |= LayerFlagUseAlpha
			offset = uint32(len(alpha))
			switch {
			case flags&LayerFlagCompressedAlpha != 0:
				alpha = append(alpha, CompressAlpha(c.Alpha[i-1])...)
			case bigAlpha:
				alpha = append(alpha, c.Alpha[i-1]...)
			default:
				alpha = append(alpha, PackAlpha4(c.Alpha[i-1])...)
			}
		} else {
			flags &^= LayerFlagUseAlpha
		}
		layers = binary.LittleEndian.AppendUint32(layers, l.TextureID)
		layers = binary.LittleEndian.AppendUint32(layers, flags)
		layers = binary.LittleEndian.AppendUint32(layers, offset)
		layers = binary.LittleEndian.AppendUint32(layers, l.EffectID)
	}
	hdr.OfsLayer = subBlockBase + sub.block(TagMCLY, layers)

	if c.HasShadow {
		hdr.OfsShadow = subBlockBase + sub.block(TagMCSH, c.ShadowRaw[:])
		hdr.SizeShadow = blockHeaderSize + ShadowRawSize
	}
	if len(alpha) > 0 {
		hdr.OfsAlpha = subBlockBase + sub.block(TagMCAL, alpha)
		hdr.SizeAlpha = blockHeaderSize + uint32(len(alpha))
	}

	// Cannot fail: MCNKHeader has only fixed-size fields.
	body, _ := binary.Append(make([]byte, 0, HeaderSize+sub.buf.Len()), binary.LittleEndian, &hdr)
	body = append(body, sub.buf.Bytes()...)

	var out blockWriter
	out.block(TagMCNK, body)
	return out.buf.Bytes()
}

func packNormal(v float32) int8 {
	f := math.Round(float64(v) * 127)
	if f > 127 {
		f = 127
	}
	if f < -127 {
		f = -127
	}
	return int8(f)
}

// NewMCNK returns a flat chunk at grid cell (ix, iy) with its origin at
// base, upward normals, no layers and no shadow.
func NewMCNK(ix, iy uint32, base [3]float32) *MCNK {
	c := &MCNK{
		Base:       base,
		HasHeights: true,
		HasNormals: true,
		Shadow:     make([]byte, AlphaMapSize),
	}
	c.Header.IX = ix
	c.Header.IY = iy
	c.flatten()
	for i := range c.Normals {
		c.Normals[i] = [3]float32{0, 1, 0}
	}
	return c
}

// SetHeight sets the height of vertex i relative to the chunk base.
func (c *MCNK) SetHeight(i int, h float32) {
	c.Positions[i][1] = c.Base[1] + h
	c.MinY, c.MaxY = c.Positions[0][1], c.Positions[0][1]
	for _, p := range c.Positions {
		c.MinY = min(c.MinY, p[1])
		c.MaxY = max(c.MaxY, p[1])
	}
}
