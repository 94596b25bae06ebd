package scene

// triBits is the width of the triangle index in a pick colour. Selection
// strips have fewer than 512 triangles.
const triBits = 9

// MaxPickName is the largest chunk name the pick pass can encode.
const MaxPickName = 1<<(24-triBits) - 1

// EncodePickID packs a chunk name and selection triangle into an RGB
// colour, matching the pick fragment shader.
func EncodePickID(name, tri int) (r, g, b byte) {
	id := name<<triBits | tri
	return byte(id >> 16), byte(id >> 8), byte(id)
}

// DecodePickID unpacks a pixel read from the pick target. Background pixels
// have zero alpha and report ok=false.
func DecodePickID(px [4]byte) (name, tri int, ok bool) {
	if px[3] == 0 {
		return 0, 0, false
	}
	id := int(px[0])<<16 | int(px[1])<<8 | int(px[2])
	return id >> triBits, id & (1<<triBits - 1), true
}
