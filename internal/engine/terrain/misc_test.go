package terrain

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestAnimOffset(t *testing.T) {
	tests := []struct {
		name   string
		flags  uint32
		time   int
		dx, dy float32
	}{
		{"north", 0x48, 1000, 0, 0.375},
		{"east", 0x0A, 1500, -0.5, 0},
		{"south west", 0x0D, 750, 0.25, -0.25},
		{"still", 0x00, 5000, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dx, dy := AnimOffset(tt.flags, tt.time, 8)
			assert.InDelta(t, tt.dx, dx, 1e-6)
			assert.InDelta(t, tt.dy, dy, 1e-6)
		})
	}
}

func TestAnimSpeed(t *testing.T) {
	assert.Equal(t, uint32(0), AnimSpeed(0x07))
	assert.Equal(t, uint32(8), AnimSpeed(0x08))
	assert.Equal(t, uint32(4), AnimSpeed(0x10))
	assert.Equal(t, uint32(2), AnimSpeed(0x20))
	assert.Equal(t, uint32(1), AnimSpeed(0x40))
	assert.Equal(t, uint32(15), AnimSpeed(0x78))
}

func TestLayerAnimOffset(t *testing.T) {
	dx, dy := Layer{Animation: 0}.AnimOffset(1000, 8)
	assert.Zero(t, dx)
	assert.Zero(t, dy)
}

func TestHeightColor(t *testing.T) {
	tests := []struct {
		h    float32
		want mgl32.Vec3
	}{
		{1500, mgl32.Vec3{1, 1, 1}},
		{800, mgl32.Vec3{0.875, 0.75, 0.5}},
		{450, mgl32.Vec3{0.375, 0.75, 0}},
		{150, mgl32.Vec3{0.5, 1, 0}},
		{-50, mgl32.Vec3{0, 0.5, 1}},
		{-175, mgl32.Vec3{0, 0, 0.5}},
		{-300, mgl32.Vec3{0, 0, 0}},
	}

	for _, tt := range tests {
		got := HeightColor(tt.h)
		assert.True(t, got.ApproxEqualThreshold(tt.want, 1e-5), "height %v: got %v, want %v", tt.h, got, tt.want)
	}
}

func TestAreaColors(t *testing.T) {
	a := NewAreaColors(7)
	first := a.Color(12)
	assert.Equal(t, first, a.Color(12))
	a.Color(3)
	assert.Equal(t, []uint32{12, 3}, a.Areas())

	for _, v := range first {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.Less(t, v, float32(1))
	}

	b := NewAreaColors(7)
	assert.Equal(t, first, b.Color(12), "same seed gives the same colours")
}

func TestContourTexture(t *testing.T) {
	tex := ContourTexture(ContourWidth)
	assert.Len(t, tex, ContourWidth*4)

	var set []int
	for i, v := range tex {
		if v != 0 {
			set = append(set, i)
		}
	}
	assert.Equal(t, []int{67, 71, 75}, set)
}
