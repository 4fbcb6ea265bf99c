package chest

import (
	"strings"

	"github.com/go-mclib/chests/pkg/item"
)

// Type is a chest variant. It fixes the capacity, whether the chest shows a
// top-stacks summary, and which items it accepts.
type Type uint8

const (
	Iron Type = iota
	Gold
	Diamond
	Copper
	Silver
	Crystal
	Obsidian
	Dirt9000
)

// NumTypes is the number of chest variants.
const NumTypes = 8

type typeInfo struct {
	name        string
	capacity    int
	transparent bool
	only        string
}

var types = [NumTypes]typeInfo{
	Iron:     {name: "IRON", capacity: 54},
	Gold:     {name: "GOLD", capacity: 81},
	Diamond:  {name: "DIAMOND", capacity: 108},
	Copper:   {name: "COPPER", capacity: 45},
	Silver:   {name: "SILVER", capacity: 72},
	Crystal:  {name: "CRYSTAL", capacity: 108, transparent: true},
	Obsidian: {name: "OBSIDIAN", capacity: 108},
	Dirt9000: {name: "DIRTCHEST9000", capacity: 1, only: "minecraft:dirt"},
}

// Valid reports whether t is a known variant.
func (t Type) Valid() bool { return t < NumTypes }

func (t Type) info() typeInfo {
	if !t.Valid() {
		return types[Iron]
	}
	return types[t]
}

func (t Type) String() string { return t.info().name }

// Capacity returns the number of slots.
func (t Type) Capacity() int { return t.info().capacity }

// Transparent reports whether the chest exposes a top-stacks summary.
func (t Type) Transparent() bool { return t.info().transparent }

// Accepts reports whether a stack may be stored in this chest type.
func (t Type) Accepts(s item.Stack) bool {
	only := t.info().only
	if only == "" {
		return true
	}
	return s.ID == item.ID(only)
}

// State returns the block state id of a chest of this type. Zero is air.
func (t Type) State() int32 { return int32(t) + 1 }

// TypeFromState is the inverse of Type.State.
func TypeFromState(state int32) (Type, bool) {
	if state <= 0 || state > NumTypes {
		return 0, false
	}
	return Type(state - 1), true
}

// ParseType resolves a type name, case-insensitively.
func ParseType(name string) (Type, bool) {
	name = strings.ToUpper(name)
	if name == "DIRT9000" {
		return Dirt9000, true
	}
	for t, info := range types {
		if info.name == name {
			return Type(t), true
		}
	}
	return 0, false
}
