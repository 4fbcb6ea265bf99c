package server

import (
	"sync"

	pk "github.com/Tnze/go-mc/net/packet"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/go-mclib/chests/pkg/blockpos"
)

// EyeHeight is the distance from a player's feet to their eyes.
const EyeHeight = 1.62

// Player is a connected player. Packets sent to it are handed to its sink.
type Player struct {
	ID   uuid.UUID
	Name string

	sink func(pk.Packet)

	mu        sync.RWMutex
	pos       mgl64.Vec3
	spectator bool
	open      *blockpos.Pos
}

// Pos returns the player's feet position.
func (p *Player) Pos() mgl64.Vec3 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pos
}

func (p *Player) SetPos(v mgl64.Vec3) {
	p.mu.Lock()
	p.pos = v
	p.mu.Unlock()
}

// EyePos returns the position of the player's eyes.
func (p *Player) EyePos() mgl64.Vec3 {
	return p.Pos().Add(mgl64.Vec3{0, EyeHeight, 0})
}

func (p *Player) Spectator() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.spectator
}

func (p *Player) SetSpectator(v bool) {
	p.mu.Lock()
	p.spectator = v
	p.mu.Unlock()
}

// OpenContainer returns the position of the chest the player has open.
func (p *Player) OpenContainer() (blockpos.Pos, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.open == nil {
		return blockpos.Pos{}, false
	}
	return *p.open, true
}

func (p *Player) SetOpenContainer(pos blockpos.Pos) {
	p.mu.Lock()
	p.open = &pos
	p.mu.Unlock()
}

func (p *Player) CloseContainer() {
	p.mu.Lock()
	p.open = nil
	p.mu.Unlock()
}

// Send delivers a packet to the player. Delivery is fire-and-forget.
func (p *Player) Send(pkt pk.Packet) {
	if p.sink != nil {
		p.sink(pkt)
	}
}
