package item

import (
	"fmt"
	"maps"
	"reflect"

	"github.com/go-mclib/data/pkg/data/items"
)

// MaxStackSize is the largest count a single slot may hold.
const MaxStackSize = 64

// Stack is an item stack: registry item ID, count, and optional tag data.
// The zero value is the empty stack.
type Stack struct {
	ID    int32
	Count int
	// Tag holds auxiliary item data (enchantments, display name, ...).
	// It is treated as immutable and shared between copies.
	Tag map[string]any
}

// Empty is the canonical empty stack.
var Empty = Stack{}

// Air is the registry ID of minecraft:air, which never occupies a slot.
const Air int32 = 0

// New creates a stack of the given registry ID. Non-positive counts, unknown
// IDs and air yield Empty.
func New(id int32, count int) Stack {
	if count <= 0 || id <= Air {
		return Empty
	}
	return Stack{ID: id, Count: count}
}

// Of creates a stack from a namespaced item name such as "minecraft:stone".
// Unknown names yield Empty.
func Of(name string, count int) Stack {
	return New(items.ItemID(name), count)
}

// ID resolves a namespaced item name to its registry ID, or -1 when unknown.
func ID(name string) int32 {
	return items.ItemID(name)
}

// IsEmpty reports whether the stack holds nothing.
func (s Stack) IsEmpty() bool {
	return s.Count <= 0 || s.ID <= Air
}

// Name returns the namespaced registry name of the stack's item.
func (s Stack) Name() string {
	return items.ItemName(s.ID)
}

// WithCount returns a copy of s holding n items. Non-positive n yields Empty.
func (s Stack) WithCount(n int) Stack {
	if n <= 0 {
		return Empty
	}
	s.Count = n
	return s
}

// Copy returns an independent copy of the stack.
func (s Stack) Copy() Stack {
	if s.IsEmpty() {
		return Empty
	}
	if s.Tag != nil {
		s.Tag = maps.Clone(s.Tag)
	}
	return s
}

// SameItem reports whether two stacks hold the same item type and tag data,
// ignoring their counts. Empty stacks never match.
func (s Stack) SameItem(o Stack) bool {
	if s.IsEmpty() || o.IsEmpty() {
		return false
	}
	if s.ID != o.ID {
		return false
	}
	if len(s.Tag) == 0 && len(o.Tag) == 0 {
		return true
	}
	return reflect.DeepEqual(s.Tag, o.Tag)
}

// Split removes up to n items from s. It returns the removed part and what is left.
func (s Stack) Split(n int) (taken, rest Stack) {
	if s.IsEmpty() || n <= 0 {
		return Empty, s
	}
	n = min(n, s.Count)
	return s.WithCount(n), s.WithCount(s.Count - n)
}

func (s Stack) String() string {
	if s.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("%s x%d", s.Name(), s.Count)
}
