package chests

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/go-mclib/chests/pkg/blockpos"
	"github.com/go-mclib/chests/pkg/chest"
	"github.com/go-mclib/chests/pkg/chest/blockevent"
	"github.com/go-mclib/chests/pkg/chest/wire"
	"github.com/go-mclib/chests/pkg/direction"
	"github.com/go-mclib/chests/pkg/item"
	"github.com/go-mclib/chests/pkg/server"
)

var (
	ErrOccupied      = errors.New("chests: position already holds a chest")
	ErrNoChest       = errors.New("chests: no chest at position")
	ErrUnknownPlayer = errors.New("chests: unknown player")
	ErrOutOfReach    = errors.New("chests: chest out of reach")
	ErrBadSlot       = errors.New("chests: slot out of range")
	ErrRejected      = errors.New("chests: item not accepted")
)

// Chest returns the chest entity at pos, or nil.
func (m *Module) Chest(pos blockpos.Pos) *chest.Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chests[pos]
}

func (m *Module) mustChest(pos blockpos.Pos) (*chest.Entity, error) {
	e := m.Chest(pos)
	if e == nil {
		return nil, fmt.Errorf("%w: %v", ErrNoChest, pos)
	}
	return e, nil
}

func (m *Module) newEntity(pos blockpos.Pos) *chest.Entity {
	return chest.New(m, pos,
		chest.WithCensus(m),
		chest.WithBroadcaster(m.server),
		chest.WithLoot(m.Loot),
		chest.WithLogger(m.server.Logger),
	)
}

// Place puts a chest of type t at pos and tells nearby players about it.
func (m *Module) Place(pos blockpos.Pos, t chest.Type, facing direction.Facing) (*chest.Entity, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("chests: invalid chest type %d", t)
	}
	m.mu.Lock()
	if _, ok := m.blocks[pos]; ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrOccupied, pos)
	}
	m.blocks[pos] = t
	m.mu.Unlock()

	e := m.newEntity(pos)
	e.SetFacing(facing)

	m.mu.Lock()
	m.chests[pos] = e
	m.mu.Unlock()

	center := pos.Center()
	m.server.SendToAllAround(center, m.server.ViewRadius, wire.BlockChange{Pos: pos, State: t.State()}.Packet())
	delta, err := e.UpdatePacket()
	if err != nil {
		return e, err
	}
	m.server.SendToAllAround(center, m.server.ViewRadius, delta.Packet())
	m.markSeen(pos)

	m.server.Logger.Printf("chests: placed %v chest at %v facing %v", t, pos, facing)
	return e, nil
}

// Break removes the chest at pos, closes it for anyone viewing it and hands
// its contents to the drop callbacks.
func (m *Module) Break(pos blockpos.Pos) ([]item.Stack, error) {
	e, err := m.mustChest(pos)
	if err != nil {
		return nil, err
	}
	drops := e.Drops()

	for _, p := range m.server.Players() {
		if open, ok := p.OpenContainer(); ok && open == pos {
			p.CloseContainer()
		}
	}

	m.mu.Lock()
	delete(m.chests, pos)
	delete(m.blocks, pos)
	m.mu.Unlock()
	for _, seen := range m.tracked {
		delete(seen, pos)
	}

	m.server.SendToAllAround(pos.Center(), m.server.ViewRadius, wire.BlockChange{Pos: pos, State: 0}.Packet())
	for _, cb := range m.onDrop {
		cb(pos, drops)
	}
	m.server.Logger.Printf("chests: broke chest at %v, dropped %d stacks", pos, len(drops))
	return drops, nil
}

func (m *Module) player(id uuid.UUID) (*server.Player, error) {
	p := m.server.Player(id)
	if p == nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownPlayer, id)
	}
	return p, nil
}

// Open makes a player open the chest at pos, closing whatever it had open.
func (m *Module) Open(playerID uuid.UUID, pos blockpos.Pos) error {
	p, err := m.player(playerID)
	if err != nil {
		return err
	}
	e, err := m.mustChest(pos)
	if err != nil {
		return err
	}
	if !e.IsUsableBy(p) {
		return fmt.Errorf("%w: %s at %v", ErrOutOfReach, p.Name, pos)
	}

	if open, ok := p.OpenContainer(); ok {
		if open == pos {
			return nil
		}
		m.closeFor(p)
	}
	p.SetOpenContainer(pos)
	e.Open(p)
	return nil
}

// Close makes a player close its open chest, if any.
func (m *Module) Close(playerID uuid.UUID) error {
	p, err := m.player(playerID)
	if err != nil {
		return err
	}
	m.closeFor(p)
	return nil
}

func (m *Module) closeFor(p *server.Player) {
	open, ok := p.OpenContainer()
	if !ok {
		return
	}
	p.CloseContainer()
	if e := m.Chest(open); e != nil {
		e.Close(p)
	}
}

// Rotate turns the chest at pos clockwise.
func (m *Module) Rotate(pos blockpos.Pos) error {
	e, err := m.mustChest(pos)
	if err != nil {
		return err
	}
	e.Rotate()
	return nil
}

func (m *Module) slot(pos blockpos.Pos, slot int) (*chest.Entity, error) {
	e, err := m.mustChest(pos)
	if err != nil {
		return nil, err
	}
	if slot < 0 || slot >= e.Capacity() {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrBadSlot, slot, e.Capacity())
	}
	return e, nil
}

// SetSlot replaces one slot of the chest at pos.
func (m *Module) SetSlot(pos blockpos.Pos, slot int, s item.Stack) error {
	e, err := m.slot(pos, slot)
	if err != nil {
		return err
	}
	if !s.IsEmpty() && !e.IsValidFor(slot, s) {
		return fmt.Errorf("%w: %v in %v chest", ErrRejected, s, e.Type())
	}
	e.Set(slot, s)
	return nil
}

// TakeSlot removes up to n items from one slot of the chest at pos.
func (m *Module) TakeSlot(pos blockpos.Pos, slot, n int) (item.Stack, error) {
	e, err := m.slot(pos, slot)
	if err != nil {
		return item.Empty, err
	}
	return e.Take(slot, n), nil
}

// Insert adds s to the chest at pos, topping up matching stacks before
// using empty slots. It returns what did not fit.
func (m *Module) Insert(pos blockpos.Pos, s item.Stack) (item.Stack, error) {
	e, err := m.mustChest(pos)
	if err != nil {
		return s, err
	}
	if s.IsEmpty() {
		return item.Empty, nil
	}
	if !e.IsValidFor(0, s) {
		return s, fmt.Errorf("%w: %v in %v chest", ErrRejected, s, e.Type())
	}

	for i := 0; i < e.Capacity() && !s.IsEmpty(); i++ {
		cur := e.Get(i)
		if !cur.SameItem(s) || cur.Count >= item.MaxStackSize {
			continue
		}
		add := min(item.MaxStackSize-cur.Count, s.Count)
		e.Set(i, cur.WithCount(cur.Count+add))
		s = s.WithCount(s.Count - add)
	}
	for i := 0; i < e.Capacity() && !s.IsEmpty(); i++ {
		if !e.Get(i).IsEmpty() {
			continue
		}
		put, rest := s.Split(item.MaxStackSize)
		e.Set(i, put)
		s = rest
	}
	return s, nil
}

// Track sends a player the full state of every chest that came within view
// since the last call. Chests that left view are forgotten, so they are sent
// again when the player returns.
func (m *Module) Track(p *server.Player) {
	seen := m.tracked[p.ID]
	if seen == nil {
		seen = make(map[blockpos.Pos]bool)
		m.tracked[p.ID] = seen
	}
	for _, e := range m.entities() {
		pos := e.Pos()
		if !m.inView(p, pos) {
			delete(seen, pos)
			continue
		}
		if seen[pos] {
			continue
		}
		if err := m.sendSnapshot(p, e); err != nil {
			m.server.Logger.Println("chests: failed to encode snapshot:", err)
			continue
		}
		seen[pos] = true
	}
}

func (m *Module) inView(p *server.Player, pos blockpos.Pos) bool {
	return p.Pos().Sub(pos.Center()).Len() <= m.server.ViewRadius
}

// markSeen records that every player in view of pos got its state through a
// broadcast.
func (m *Module) markSeen(pos blockpos.Pos) {
	for _, p := range m.server.Players() {
		if seen := m.tracked[p.ID]; seen != nil && m.inView(p, pos) {
			seen[pos] = true
		}
	}
}

func (m *Module) sendSnapshot(p *server.Player, e *chest.Entity) error {
	pos, state := e.Pos(), e.Type().State()
	full, err := e.UpdateTag()
	if err != nil {
		return err
	}
	p.Send(wire.BlockChange{Pos: pos, State: state}.Packet())
	p.Send(full.Packet())

	kind, payload := blockevent.Encode(blockevent.Resync{Count: e.Observers(), Facing: e.Facing()})
	p.Send(wire.BlockEvent{Pos: pos, Kind: kind, Payload: payload, State: state}.Packet())

	if e.Type().Transparent() {
		p.Send(wire.TopStacks{Pos: pos, Stacks: e.TopStacks()}.Packet())
	}
	return nil
}
