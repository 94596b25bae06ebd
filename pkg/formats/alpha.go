package formats

import "fmt"

const (
	rleFillBit  = 0x80
	rleCountMax = 0x7F
	// ShadowIntensity is the mask value of a shadowed texel.
	ShadowIntensity = 85
	alpha4RowBytes  = AlphaSize / 2
	alpha4Rows      = AlphaSize - 1
	// Alpha4Size is the stored size of a legacy 4-bit alpha map.
	Alpha4Size = AlphaSize * alpha4RowBytes
)

// DecompressAlpha expands a run-length coded alpha map into 4096 bytes.
// Each control byte holds a 7-bit count; the high bit selects fill (repeat
// the next byte count times) or copy (count literal bytes follow).
// It returns the number of input bytes consumed.
func DecompressAlpha(src []byte) ([]byte, int, error) {
	out := make([]byte, AlphaMapSize)
	in, o := 0, 0
	for o < AlphaMapSize {
		if in >= len(src) {
			return nil, in, fmt.Errorf("%w: compressed alpha ended after %d of %d texels", ErrTruncatedChunk, o, AlphaMapSize)
		}
		ctrl := src[in]
		in++
		fill := ctrl&rleFillBit != 0
		n := int(ctrl & rleCountMax)
		if fill {
			if n > 0 && in >= len(src) {
				return nil, in, fmt.Errorf("%w: missing fill value", ErrTruncatedChunk)
			}
			for k := 0; k < n && o < AlphaMapSize; k++ {
				out[o] = src[in]
				o++
			}
			in++
			continue
		}
		for k := 0; k < n && o < AlphaMapSize; k++ {
			if in >= len(src) {
				return nil, in, fmt.Errorf("%w: copy run overruns input", ErrTruncatedChunk)
			}
			out[o] = src[in]
			o++
			in++
		}
	}
	return out, in, nil
}

// CompressAlpha run-length codes an alpha map with the scheme read by
// DecompressAlpha. Runs never cross a 64-texel row.
func CompressAlpha(alpha []byte) []byte {
	out := make([]byte, 0, len(alpha)/2)
	for rowStart := 0; rowStart < len(alpha); rowStart += AlphaSize {
		row := alpha[rowStart:min(rowStart+AlphaSize, len(alpha))]
		i := 0
		for i < len(row) {
			run := 1
			for i+run < len(row) && run < rleCountMax && row[i+run] == row[i] {
				run++
			}
			if run > 1 {
				out = append(out, rleFillBit|byte(run), row[i])
				i += run
				continue
			}
			start := i
			for i < len(row) && i-start < rleCountMax {
				if i+1 < len(row) && row[i+1] == row[i] {
					break
				}
				i++
			}
			if i == start {
				i++
			}
			out = append(out, byte(i-start))
			out = append(out, row[start:i]...)
		}
	}
	return out
}

// ExpandAlpha4 unpacks a legacy 4-bit alpha map. 63 rows of 32 bytes are
// read, low nibble first, each nibble scaled to 0-255.
//
// Known format oddity: the last texel of each row repeats the low nibble of
// the final byte instead of its high nibble, and row 63 is a copy of row 62.
func ExpandAlpha4(src []byte) ([]byte, error) {
	if len(src) < alpha4Rows*alpha4RowBytes {
		return nil, fmt.Errorf("%w: 4-bit alpha map needs %d bytes, have %d", ErrTruncatedChunk, alpha4Rows*alpha4RowBytes, len(src))
	}
	out := make([]byte, AlphaMapSize)
	p := 0
	for j := 0; j < alpha4Rows; j++ {
		for i := 0; i < alpha4RowBytes; i++ {
			c := src[j*alpha4RowBytes+i]
			out[p] = scaleNibble(c & 0x0f)
			p++
			if i != alpha4RowBytes-1 {
				out[p] = scaleNibble(c >> 4)
			} else {
				out[p] = scaleNibble(c & 0x0f)
			}
			p++
		}
	}
	copy(out[63*AlphaSize:], out[62*AlphaSize:63*AlphaSize])
	return out, nil
}

// PackAlpha4 packs an 8-bit alpha map into the 2048-byte legacy 4-bit layout.
func PackAlpha4(alpha []byte) []byte {
	out := make([]byte, Alpha4Size)
	for j := 0; j < AlphaSize; j++ {
		for i := 0; i < alpha4RowBytes; i++ {
			lo := quantizeNibble(alpha[j*AlphaSize+i*2])
			hi := quantizeNibble(alpha[j*AlphaSize+i*2+1])
			out[j*alpha4RowBytes+i] = lo | hi<<4
		}
	}
	return out
}

func scaleNibble(v byte) byte {
	return byte(255 * int(v) / 15)
}

func quantizeNibble(v byte) byte {
	return byte((int(v) + 8) / 17)
}

// ExpandShadow unpacks a 64x64 1-bit shadow block (8 bytes per row, least
// significant bit first) into one intensity byte per texel.
func ExpandShadow(raw []byte) []byte {
	out := make([]byte, AlphaMapSize)
	p := 0
	for j := 0; j < AlphaSize; j++ {
		for i := 0; i < AlphaSize/8; i++ {
			c := raw[j*8+i]
			for b := 0; b < 8; b++ {
				if c&(1<<uint(b)) != 0 {
					out[p] = ShadowIntensity
				}
				p++
			}
		}
	}
	return out
}

// PackShadow is the inverse of ExpandShadow; any non-zero texel sets its bit.
func PackShadow(mask []byte) [ShadowRawSize]byte {
	var raw [ShadowRawSize]byte
	for i, v := range mask {
		if i >= AlphaMapSize {
			break
		}
		if v != 0 {
			raw[i/8] |= 1 << uint(i%8)
		}
	}
	return raw
}
