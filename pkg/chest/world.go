package chest

import (
	"github.com/go-gl/mathgl/mgl64"

	pk "github.com/Tnze/go-mc/net/packet"

	"github.com/go-mclib/chests/pkg/blockpos"
	"github.com/go-mclib/chests/pkg/chest/blockevent"
	"github.com/go-mclib/chests/pkg/chest/inventory"
	"github.com/go-mclib/chests/pkg/chest/lid"
)

// World is the part of the game world a chest talks to.
type World interface {
	// IsRemote reports whether this is a client-side mirror of the world.
	IsRemote() bool
	// BlockType returns the chest type of the block at pos, if it is a chest.
	BlockType(pos blockpos.Pos) (Type, bool)
	// EntityAt returns the chest entity currently placed at pos.
	EntityAt(pos blockpos.Pos) *Entity

	NotifyBlockRedraw(pos blockpos.Pos)
	NotifyNeighborUpdate(pos blockpos.Pos)
	AddBlockEvent(pos blockpos.Pos, ev blockevent.Event)
	PlaySound(pos blockpos.Pos, sound lid.Sound, volume, pitch float32)
}

// Player is someone who can open a chest.
type Player interface {
	Spectator() bool
	EyePos() mgl64.Vec3
}

// Census counts the players whose open container is e and who stand inside box.
type Census interface {
	CountObservers(e *Entity, box blockpos.AABB) int
}

// Broadcaster sends a packet to every player within radius of center.
type Broadcaster interface {
	SendToAllAround(center mgl64.Vec3, radius float64, p pk.Packet)
}

// LootFiller rolls a loot table into an inventory.
type LootFiller interface {
	FillLoot(table string, seed int64, inv *inventory.Store)
}
