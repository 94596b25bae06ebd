package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	n := NewNames()

	a := n.Add("chunk a")
	b := n.Add("chunk b")
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, n.Len())

	owner, ok := n.Get(b)
	require.True(t, ok)
	assert.Equal(t, "chunk b", owner)

	n.Del(a)
	n.Del(a)
	_, ok = n.Get(a)
	assert.False(t, ok)
	assert.Equal(t, []int{b}, n.Names())

	c := n.Add("chunk c")
	assert.Equal(t, a, c, "freed name is handed out again")
	assert.Equal(t, []int{b, c}, n.Names())

	d := n.Add("chunk d")
	assert.Equal(t, 3, d)
}

func TestNames_ReuseKeepsNamesSmall(t *testing.T) {
	n := NewNames()
	const owners = 256

	for round := 0; round < 200; round++ {
		names := make([]int, 0, owners)
		for i := 0; i < owners; i++ {
			names = append(names, n.Add(i))
		}
		for _, name := range names {
			assert.LessOrEqual(t, name, owners)
			n.Del(name)
		}
	}
	assert.Zero(t, n.Len())
}

func TestNames_ReusesLowestFirst(t *testing.T) {
	n := NewNames()
	for i := 0; i < 5; i++ {
		n.Add(i)
	}
	n.Del(4)
	n.Del(2)
	n.Del(2)

	assert.Equal(t, 2, n.Add("x"))
	assert.Equal(t, 4, n.Add("y"))
	assert.Equal(t, 6, n.Add("z"))
}
