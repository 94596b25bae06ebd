package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/midgard-terrain/internal/engine/terrain"
)

func TestPickIDRoundTrip(t *testing.T) {
	cases := []struct{ name, tri int }{
		{1, 0},
		{1, terrain.SelectionStripLen - 3},
		{256, 17},
		{MaxPickName, 511},
	}
	for _, tc := range cases {
		r, g, b := EncodePickID(tc.name, tc.tri)
		name, tri, ok := DecodePickID([4]byte{r, g, b, 255})
		assert.True(t, ok)
		assert.Equal(t, tc.name, name)
		assert.Equal(t, tc.tri, tri)
	}
}

func TestPickIDBackground(t *testing.T) {
	_, _, ok := DecodePickID([4]byte{0, 0, 0, 0})
	assert.False(t, ok)
}
