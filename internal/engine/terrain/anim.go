package terrain

// Direction tables for animated layers, indexed by the low three flag bits.
var (
	animDirX = [8]float32{0, 1, 1, 1, 0, -1, -1, -1}
	animDirY = [8]float32{1, 1, 0, -1, -1, -1, 0, 1}
)

// AnimSpeed decodes the speed bits of a layer animation word.
func AnimSpeed(flags uint32) uint32 {
	return flags&0x08 | (flags&0x10)>>2 | (flags&0x20)>>4 | (flags&0x40)>>6
}

// AnimOffset returns the texture coordinate offset of an animated layer at
// animTime milliseconds. detailSize is the texture repeat count per chunk.
func AnimOffset(flags uint32, animTime int, detailSize int) (dx, dy float32) {
	spd := int(AnimSpeed(flags))
	dir := flags & 7
	period := 200 * detailSize
	if period <= 0 {
		return 0, 0
	}
	f := float32((animTime*spd/15)%period) / float32(period)
	return -animDirX[dir] * f, animDirY[dir] * f
}

// AnimOffset returns the current offset of this layer, or zero when it is
// not animated.
func (l Layer) AnimOffset(animTime, detailSize int) (dx, dy float32) {
	if l.Animation == 0 {
		return 0, 0
	}
	return AnimOffset(l.Animation, animTime, detailSize)
}
