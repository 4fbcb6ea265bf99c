package direction

import "strings"

// Facing is one of the six axis-aligned block faces. The ordinal matches the
// protocol face numbering, so it can travel on the wire as-is.
type Facing uint8

const (
	Down  Facing = 0 // -Y
	Up    Facing = 1 // +Y
	North Facing = 2 // -Z
	South Facing = 3 // +Z
	West  Facing = 4 // -X
	East  Facing = 5 // +X
)

// Count is the number of facings.
const Count = 6

var names = [Count]string{"down", "up", "north", "south", "west", "east"}

// Valid reports whether f is one of the six facings.
func (f Facing) Valid() bool { return f < Count }

func (f Facing) String() string {
	if !f.Valid() {
		return "invalid"
	}
	return names[f]
}

// RotateY turns a horizontal facing clockwise when seen from above.
// Up and Down have no horizontal component and are returned unchanged.
func (f Facing) RotateY() Facing {
	switch f {
	case North:
		return East
	case East:
		return South
	case South:
		return West
	case West:
		return North
	default:
		return f
	}
}

// Opposite returns the facing pointing the other way along the same axis.
func (f Facing) Opposite() Facing {
	switch f {
	case Down:
		return Up
	case Up:
		return Down
	case North:
		return South
	case South:
		return North
	case West:
		return East
	case East:
		return West
	default:
		return f
	}
}

// Offset returns the unit block offset of the facing.
func (f Facing) Offset() (dx, dy, dz int) {
	switch f {
	case Down:
		return 0, -1, 0
	case Up:
		return 0, 1, 0
	case North:
		return 0, 0, -1
	case South:
		return 0, 0, 1
	case West:
		return -1, 0, 0
	case East:
		return 1, 0, 0
	}
	return 0, 0, 0
}

// FromIndex converts a wire ordinal into a facing, reporting false when out of range.
func FromIndex(i int) (Facing, bool) {
	if i < 0 || i >= Count {
		return 0, false
	}
	return Facing(i), true
}

// Parse resolves a facing by name ("north", "EAST", ...).
func Parse(name string) (Facing, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range names {
		if n == name {
			return Facing(i), true
		}
	}
	return 0, false
}
