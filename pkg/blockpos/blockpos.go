package blockpos

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/go-mclib/chests/pkg/direction"
)

// Pos is an integer block position.
type Pos struct {
	X, Y, Z int
}

// Offset returns the neighbouring position in direction f.
func (p Pos) Offset(f direction.Facing) Pos {
	dx, dy, dz := f.Offset()
	return Pos{p.X + dx, p.Y + dy, p.Z + dz}
}

// Down returns the position directly below.
func (p Pos) Down() Pos { return p.Offset(direction.Down) }

// Sum returns X+Y+Z, a cheap per-position hash used to stagger work.
func (p Pos) Sum() int { return p.X + p.Y + p.Z }

// Center returns the centre of the block in world coordinates.
func (p Pos) Center() mgl64.Vec3 {
	return mgl64.Vec3{float64(p.X) + 0.5, float64(p.Y) + 0.5, float64(p.Z) + 0.5}
}

// Box returns the unit cube occupied by the block.
func (p Pos) Box() AABB {
	min := mgl64.Vec3{float64(p.X), float64(p.Y), float64(p.Z)}
	return AABB{Min: min, Max: min.Add(mgl64.Vec3{1, 1, 1})}
}

// DistanceSq returns the squared distance from v to the block centre.
func (p Pos) DistanceSq(v mgl64.Vec3) float64 {
	d := v.Sub(p.Center())
	return d.Dot(d)
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl64.Vec3
}

// Grow expands the box by d on every side.
func (b AABB) Grow(d float64) AABB {
	g := mgl64.Vec3{d, d, d}
	return AABB{Min: b.Min.Sub(g), Max: b.Max.Add(g)}
}

// Contains reports whether v lies inside the box (inclusive bounds).
func (b AABB) Contains(v mgl64.Vec3) bool {
	return v.X() >= b.Min.X() && v.X() <= b.Max.X() &&
		v.Y() >= b.Min.Y() && v.Y() <= b.Max.Y() &&
		v.Z() >= b.Min.Z() && v.Z() <= b.Max.Z()
}
