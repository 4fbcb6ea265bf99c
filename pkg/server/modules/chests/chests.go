package chests

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/go-mclib/chests/pkg/blockpos"
	"github.com/go-mclib/chests/pkg/chest"
	"github.com/go-mclib/chests/pkg/chest/blockevent"
	"github.com/go-mclib/chests/pkg/chest/lid"
	"github.com/go-mclib/chests/pkg/chest/topstacks"
	"github.com/go-mclib/chests/pkg/chest/wire"
	"github.com/go-mclib/chests/pkg/direction"
	"github.com/go-mclib/chests/pkg/item"
	"github.com/go-mclib/chests/pkg/server"
)

const ModuleName = "chests"

// SoundRadius bounds who hears lid sounds.
const SoundRadius = 16.0

// View is a read-only snapshot of one chest, refreshed every tick.
type View struct {
	Pos       blockpos.Pos
	Type      chest.Type
	Name      string
	Facing    direction.Facing
	Observers int
	Lid       lid.Lid
	LidState  lid.State
	Used      int
	Capacity  int
	Top       topstacks.Summary
}

// Module owns the chest blocks of the world and ticks their entities.
// Methods other than Views must be called from the server's tick goroutine;
// use Server.Do from elsewhere.
type Module struct {
	server *server.Server

	// Loot rolls loot tables into freshly accessed chests.
	Loot chest.LootFiller

	mu     sync.RWMutex
	blocks map[blockpos.Pos]chest.Type
	chests map[blockpos.Pos]*chest.Entity
	views  []View

	// chests each player has been sent a snapshot of and still sees
	tracked map[uuid.UUID]map[blockpos.Pos]bool

	onRedraw         []func(pos blockpos.Pos)
	onNeighborUpdate []func(pos blockpos.Pos)
	onSound          []func(pos blockpos.Pos, sound lid.Sound)
	onDrop           []func(pos blockpos.Pos, drops []item.Stack)
}

func New() *Module {
	return &Module{
		blocks:  make(map[blockpos.Pos]chest.Type),
		chests:  make(map[blockpos.Pos]*chest.Entity),
		tracked: make(map[uuid.UUID]map[blockpos.Pos]bool),
	}
}

func (m *Module) Name() string { return ModuleName }

func (m *Module) Init(s *server.Server) {
	m.server = s
	s.OnJoin(m.Track)
	s.OnLeave(func(p *server.Player) { delete(m.tracked, p.ID) })
}

func (m *Module) Reset() {
	m.mu.Lock()
	m.blocks = make(map[blockpos.Pos]chest.Type)
	m.chests = make(map[blockpos.Pos]*chest.Entity)
	m.views = nil
	m.mu.Unlock()
	m.tracked = make(map[uuid.UUID]map[blockpos.Pos]bool)
}

// From retrieves the chests module from a server.
func From(s *server.Server) *Module {
	mod := s.Module(ModuleName)
	if mod == nil {
		return nil
	}
	return mod.(*Module)
}

// events

func (m *Module) OnRedraw(cb func(pos blockpos.Pos)) { m.onRedraw = append(m.onRedraw, cb) }
func (m *Module) OnNeighborUpdate(cb func(pos blockpos.Pos)) {
	m.onNeighborUpdate = append(m.onNeighborUpdate, cb)
}
func (m *Module) OnSound(cb func(pos blockpos.Pos, sound lid.Sound)) {
	m.onSound = append(m.onSound, cb)
}
func (m *Module) OnDrop(cb func(pos blockpos.Pos, drops []item.Stack)) {
	m.onDrop = append(m.onDrop, cb)
}

// Tick advances every chest, sends snapshots of chests that came into view
// and refreshes the views.
func (m *Module) Tick() {
	for _, e := range m.entities() {
		e.Tick()
	}
	for _, p := range m.server.Players() {
		m.Track(p)
	}
	m.refreshViews()
}

// entities returns the placed chests ordered by position.
func (m *Module) entities() []*chest.Entity {
	m.mu.RLock()
	out := make([]*chest.Entity, 0, len(m.chests))
	for _, e := range m.chests {
		out = append(out, e)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return less(out[i].Pos(), out[j].Pos()) })
	return out
}

func less(a, b blockpos.Pos) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

func (m *Module) refreshViews() {
	es := m.entities()
	views := make([]View, 0, len(es))
	for _, e := range es {
		used, capacity := e.Occupancy()
		l := e.Lid()
		views = append(views, View{
			Pos:       e.Pos(),
			Type:      e.Type(),
			Name:      e.Name(),
			Facing:    e.Facing(),
			Observers: e.Observers(),
			Lid:       l,
			LidState:  l.State(),
			Used:      used,
			Capacity:  capacity,
			Top:       e.TopStacks(),
		})
	}

	m.mu.Lock()
	m.views = views
	m.mu.Unlock()
}

// Views returns the chest snapshots taken at the end of the last tick.
// Safe to call from any goroutine.
func (m *Module) Views() []View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]View, len(m.views))
	copy(out, m.views)
	return out
}

// chest.World

func (m *Module) IsRemote() bool { return false }

func (m *Module) BlockType(pos blockpos.Pos) (chest.Type, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.blocks[pos]
	return t, ok
}

func (m *Module) EntityAt(pos blockpos.Pos) *chest.Entity { return m.Chest(pos) }

func (m *Module) NotifyBlockRedraw(pos blockpos.Pos) {
	for _, cb := range m.onRedraw {
		cb(pos)
	}
}

func (m *Module) NotifyNeighborUpdate(pos blockpos.Pos) {
	for _, cb := range m.onNeighborUpdate {
		cb(pos)
	}
}

func (m *Module) AddBlockEvent(pos blockpos.Pos, ev blockevent.Event) {
	t, ok := m.BlockType(pos)
	if !ok {
		return
	}
	kind, payload := blockevent.Encode(ev)
	m.server.SendToAllAround(pos.Center(), m.server.ViewRadius, wire.BlockEvent{
		Pos:     pos,
		Kind:    kind,
		Payload: payload,
		State:   t.State(),
	}.Packet())
}

func (m *Module) PlaySound(pos blockpos.Pos, sound lid.Sound, volume, pitch float32) {
	m.server.SendToAllAround(pos.Center(), SoundRadius, wire.Sound{
		Pos:    pos,
		Sound:  sound,
		Volume: volume,
		Pitch:  pitch,
	}.Packet())
	for _, cb := range m.onSound {
		cb(pos, sound)
	}
}

// chest.Census

// CountObservers counts the players inside box whose open container is e.
func (m *Module) CountObservers(e *chest.Entity, box blockpos.AABB) int {
	n := 0
	for _, p := range m.server.PlayersWithin(box) {
		if open, ok := p.OpenContainer(); ok && open == e.Pos() {
			n++
		}
	}
	return n
}
