package brush

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue(t *testing.T) {
	b := New(10, 0.5)

	assert.Equal(t, float32(1), b.Value(0))
	assert.Equal(t, float32(1), b.Value(5))
	assert.InDelta(t, 0.5, b.Value(7.5), 1e-6)
	assert.InDelta(t, 0, b.Value(10), 1e-6)
	assert.Equal(t, float32(0), b.Value(10.1))
	assert.Equal(t, b.Value(3), b.Value(-3))
}

func TestHardBrush(t *testing.T) {
	b := New(4, 1)
	assert.Equal(t, float32(1), b.Value(4))
	assert.Equal(t, float32(0), b.Value(4.01))
}

func TestClamping(t *testing.T) {
	b := New(-3, 2)
	assert.Equal(t, float32(0), b.Radius())
	assert.Equal(t, float32(1), b.Hardness())

	b.SetRadius(8)
	b.SetHardness(-1)
	assert.Equal(t, float32(0), b.Hardness())
	assert.InDelta(t, 0.5, b.Value(4), 1e-6)
}

func TestMask(t *testing.T) {
	m := New(10, 0.5).Mask(16)
	assert.Len(t, m, 256)
	assert.Equal(t, byte(255), m[8*16+8])
	assert.Equal(t, byte(0), m[0])
}
