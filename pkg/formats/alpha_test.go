package formats

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"
)

func TestExpandShadow(t *testing.T) {
	tests := []struct {
		name string
		fill byte
		want byte
	}{
		{"all clear", 0x00, 0},
		{"all set", 0xFF, ShadowIntensity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := bytes.Repeat([]byte{tt.fill}, ShadowRawSize)
			mask := ExpandShadow(raw)
			if len(mask) != AlphaMapSize {
				t.Fatalf("len = %d, want %d", len(mask), AlphaMapSize)
			}
			for i, v := range mask {
				if v != tt.want {
					t.Fatalf("texel %d = %d, want %d", i, v, tt.want)
				}
			}
		})
	}
}

func TestExpandShadow_BitOrder(t *testing.T) {
	raw := make([]byte, ShadowRawSize)
	raw[0] = 0x01 // texel 0
	raw[9] = 0x80 // row 1, texel 15

	mask := ExpandShadow(raw)
	if mask[0] != ShadowIntensity {
		t.Errorf("texel 0 = %d, want %d", mask[0], ShadowIntensity)
	}
	if mask[1] != 0 {
		t.Errorf("texel 1 = %d, want 0", mask[1])
	}
	if mask[AlphaSize+15] != ShadowIntensity {
		t.Errorf("row 1 texel 15 = %d, want %d", mask[AlphaSize+15], ShadowIntensity)
	}

	packed := PackShadow(mask)
	if !bytes.Equal(packed[:], raw) {
		t.Error("PackShadow did not restore the raw block")
	}
}

func TestAlphaRLE_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	random := make([]byte, AlphaMapSize)
	for i := range random {
		random[i] = byte(rng.IntN(256))
	}

	runs := make([]byte, AlphaMapSize)
	for i := range runs {
		runs[i] = byte(i / 300)
	}

	mixed := make([]byte, AlphaMapSize)
	for i := range mixed {
		if (i/50)%2 == 0 {
			mixed[i] = 200
		} else {
			mixed[i] = byte(rng.IntN(4))
		}
	}

	inputs := map[string][]byte{
		"zeros":  make([]byte, AlphaMapSize),
		"full":   bytes.Repeat([]byte{255}, AlphaMapSize),
		"random": random,
		"runs":   runs,
		"mixed":  mixed,
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			packed := CompressAlpha(in)
			out, n, err := DecompressAlpha(packed)
			if err != nil {
				t.Fatalf("DecompressAlpha: %v", err)
			}
			if n != len(packed) {
				t.Errorf("consumed %d bytes, want %d", n, len(packed))
			}
			if !bytes.Equal(out, in) {
				t.Error("round trip changed the alpha map")
			}
		})
	}
}

func TestDecompressAlpha_FillAndCopy(t *testing.T) {
	// Each row: fill 60 x 0x10, copy 4 literals.
	var src []byte
	for row := 0; row < AlphaSize; row++ {
		src = append(src, 0x80|60, 0x10)
		src = append(src, 4, 1, 2, 3, 4)
	}

	out, _, err := DecompressAlpha(src)
	if err != nil {
		t.Fatalf("DecompressAlpha: %v", err)
	}
	if out[0] != 0x10 || out[59] != 0x10 {
		t.Errorf("fill run = %d..%d, want 16", out[0], out[59])
	}
	if !bytes.Equal(out[60:64], []byte{1, 2, 3, 4}) {
		t.Errorf("copy run = %v, want [1 2 3 4]", out[60:64])
	}
}

func TestDecompressAlpha_Truncated(t *testing.T) {
	_, _, err := DecompressAlpha([]byte{0x80 | 10, 0x01})
	if !errors.Is(err, ErrTruncatedChunk) {
		t.Errorf("expected ErrTruncatedChunk, got %v", err)
	}
}

func TestExpandAlpha4(t *testing.T) {
	tests := []struct {
		name string
		in   byte
		want [2]byte
	}{
		{"both max", 0xFF, [2]byte{255, 255}},
		{"both zero", 0x00, [2]byte{0, 0}},
		{"low only", 0x0F, [2]byte{255, 0}},
		{"high only", 0xF0, [2]byte{0, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := bytes.Repeat([]byte{tt.in}, Alpha4Size)
			out, err := ExpandAlpha4(src)
			if err != nil {
				t.Fatalf("ExpandAlpha4: %v", err)
			}
			if out[0] != tt.want[0] || out[1] != tt.want[1] {
				t.Errorf("first pair = %d,%d, want %d,%d", out[0], out[1], tt.want[0], tt.want[1])
			}
		})
	}
}

func TestExpandAlpha4_RowQuirk(t *testing.T) {
	src := make([]byte, Alpha4Size)
	for j := 0; j < AlphaSize; j++ {
		for i := 0; i < alpha4RowBytes; i++ {
			src[j*alpha4RowBytes+i] = byte(j%16) | 0x50
		}
	}
	// Last byte of row 0: low nibble 3, high nibble 9.
	src[alpha4RowBytes-1] = 0x93

	out, err := ExpandAlpha4(src)
	if err != nil {
		t.Fatalf("ExpandAlpha4: %v", err)
	}

	// The last texel repeats the low nibble.
	if got, want := out[AlphaSize-1], scaleNibble(3); got != want {
		t.Errorf("row 0 last texel = %d, want %d", got, want)
	}
	if got, want := out[AlphaSize-2], scaleNibble(3); got != want {
		t.Errorf("row 0 texel 62 = %d, want %d", got, want)
	}

	// Row 63 is a copy of row 62, not its own stored data.
	if !bytes.Equal(out[63*AlphaSize:], out[62*AlphaSize:63*AlphaSize]) {
		t.Error("row 63 differs from row 62")
	}
	if out[63*AlphaSize] != scaleNibble(62%16) {
		t.Errorf("row 63 texel 0 = %d, want %d", out[63*AlphaSize], scaleNibble(62%16))
	}
}

func TestExpandAlpha4_Short(t *testing.T) {
	_, err := ExpandAlpha4(make([]byte, 100))
	if !errors.Is(err, ErrTruncatedChunk) {
		t.Errorf("expected ErrTruncatedChunk, got %v", err)
	}
}

func TestPackAlpha4(t *testing.T) {
	in := make([]byte, AlphaMapSize)
	for i := range in {
		in[i] = scaleNibble(byte(i % 16))
	}
	out, err := ExpandAlpha4(PackAlpha4(in))
	if err != nil {
		t.Fatalf("ExpandAlpha4: %v", err)
	}
	// Texels unaffected by the row quirk survive quantization exactly.
	for j := 0; j < 63; j++ {
		for i := 0; i < AlphaSize-1; i++ {
			if out[j*AlphaSize+i] != in[j*AlphaSize+i] {
				t.Fatalf("texel (%d,%d) = %d, want %d", i, j, out[j*AlphaSize+i], in[j*AlphaSize+i])
			}
		}
	}
}
