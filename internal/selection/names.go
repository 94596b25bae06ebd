// Package selection maps integer pick names to the objects that own them.
//
// A renderer tags each pickable draw with its owner's name; a hit test
// reports (name, sub-index) and the table resolves the name back to the
// owner.
package selection

import (
	"slices"

	"github.com/elliotchance/orderedmap/v2"
)

// Names is a pick-name table. Deleted names are handed out again, lowest
// first, so the largest live name stays close to the number of owners.
// Names is not safe for concurrent use.
type Names struct {
	next    int
	free    []int // sorted
	entries *orderedmap.OrderedMap[int, any]
}

// NewNames creates an empty table. The first name handed out is 1.
func NewNames() *Names {
	return &Names{entries: orderedmap.NewOrderedMap[int, any]()}
}

// Add registers owner and returns its name.
func (n *Names) Add(owner any) int {
	var name int
	if len(n.free) > 0 {
		name, n.free = n.free[0], n.free[1:]
	} else {
		n.next++
		name = n.next
	}
	n.entries.Set(name, owner)
	return name
}

// Del removes a name. Unknown names are ignored.
func (n *Names) Del(name int) {
	if _, ok := n.entries.Get(name); !ok {
		return
	}
	n.entries.Delete(name)
	i, _ := slices.BinarySearch(n.free, name)
	n.free = slices.Insert(n.free, i, name)
}

// Get returns the owner of name.
func (n *Names) Get(name int) (any, bool) {
	return n.entries.Get(name)
}

// Len returns the number of registered names.
func (n *Names) Len() int {
	return n.entries.Len()
}

// Names returns the registered names in registration order.
func (n *Names) Names() []int {
	return n.entries.Keys()
}
