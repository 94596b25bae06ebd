package terrain

// ContourWidth is the texel width of the contour line texture.
const ContourWidth = 128

// ContourTexture returns the RGBA row used to draw height contour lines:
// fully transparent except for three opaque alpha bytes near the middle.
func ContourTexture(width int) []byte {
	tex := make([]byte, width*4)
	for _, i := range []int{3, 7, 11} {
		if j := i + width/2; j < len(tex) {
			tex[j] = 0xff
		}
	}
	return tex
}
