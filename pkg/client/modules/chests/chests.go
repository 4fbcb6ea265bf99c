package chests

import (
	"log"
	"sort"
	"sync"

	pk "github.com/Tnze/go-mc/net/packet"

	"github.com/go-mclib/chests/pkg/blockpos"
	"github.com/go-mclib/chests/pkg/chest"
	"github.com/go-mclib/chests/pkg/chest/blockevent"
	"github.com/go-mclib/chests/pkg/chest/lid"
	"github.com/go-mclib/chests/pkg/chest/topstacks"
	"github.com/go-mclib/chests/pkg/chest/wire"
	"github.com/go-mclib/chests/pkg/client"
	"github.com/go-mclib/chests/pkg/client/modules/world"
	"github.com/go-mclib/chests/pkg/direction"
)

const ModuleName = "chests"

// View is a read-only snapshot of one mirrored chest, refreshed every tick.
type View struct {
	Pos       blockpos.Pos
	Type      chest.Type
	Name      string
	Facing    direction.Facing
	Observers int
	Lid       lid.Lid
	Top       topstacks.Summary
}

// Module mirrors the chests a server announces. It needs the world module,
// which must be registered first.
type Module struct {
	client *client.Client
	world  *world.Module

	mu     sync.RWMutex
	chests map[blockpos.Pos]*chest.Entity
	built  map[blockpos.Pos]chest.Type // type each mirror was sized for
	views  []View

	onTopStacks []func(pos blockpos.Pos, top topstacks.Summary)
	onObservers []func(pos blockpos.Pos, count int)
	onFacing    []func(pos blockpos.Pos, facing direction.Facing)
	onSound     []func(pos blockpos.Pos, sound lid.Sound)
}

func New() *Module {
	return &Module{
		chests: make(map[blockpos.Pos]*chest.Entity),
		built:  make(map[blockpos.Pos]chest.Type),
	}
}

func (m *Module) Name() string { return ModuleName }

func (m *Module) Init(c *client.Client) {
	m.client = c
	m.world = world.From(c)
	if m.world == nil {
		panic("chests: world module must be registered first")
	}
	m.world.OnBlockUpdate(m.blockUpdated)
}

func (m *Module) Reset() {
	m.mu.Lock()
	m.chests = make(map[blockpos.Pos]*chest.Entity)
	m.built = make(map[blockpos.Pos]chest.Type)
	m.views = nil
	m.mu.Unlock()
}

// From retrieves the chests module from a client.
func From(c *client.Client) *Module {
	mod := c.Module(ModuleName)
	if mod == nil {
		return nil
	}
	return mod.(*Module)
}

// events

func (m *Module) OnTopStacks(cb func(pos blockpos.Pos, top topstacks.Summary)) {
	m.onTopStacks = append(m.onTopStacks, cb)
}
func (m *Module) OnObservers(cb func(pos blockpos.Pos, count int)) {
	m.onObservers = append(m.onObservers, cb)
}
func (m *Module) OnFacing(cb func(pos blockpos.Pos, facing direction.Facing)) {
	m.onFacing = append(m.onFacing, cb)
}
func (m *Module) OnSound(cb func(pos blockpos.Pos, sound lid.Sound)) {
	m.onSound = append(m.onSound, cb)
}

// Chest returns the mirrored chest at pos, or nil.
func (m *Module) Chest(pos blockpos.Pos) *chest.Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chests[pos]
}

func (m *Module) blockUpdated(pos blockpos.Pos, stateID int32) {
	t, isChest := chest.TypeFromState(stateID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.built[pos]; ok && (!isChest || old != t) {
		delete(m.chests, pos)
		delete(m.built, pos)
	}
	if _, ok := m.chests[pos]; isChest && !ok {
		m.chests[pos] = chest.New(m, pos, chest.WithLogger(m.logger()))
		m.built[pos] = t
	}
}

func (m *Module) logger() *log.Logger {
	if m.client.Verbose {
		return m.client.Logger
	}
	return nil
}

func (m *Module) HandlePacket(p pk.Packet) {
	switch p.ID {
	case wire.IDBlockEntityData:
		m.handleBlockEntityData(p)
	case wire.IDBlockEvent:
		m.handleBlockEvent(p)
	case wire.IDTopStacks:
		m.handleTopStacks(p)
	case wire.IDSound:
		m.handleSound(p)
	}
}

func (m *Module) handleBlockEntityData(p pk.Packet) {
	d, err := wire.ReadBlockEntityData(p)
	if err != nil {
		m.client.Logger.Println("chests: failed to parse block entity data:", err)
		return
	}
	e := m.Chest(d.Pos)
	if e == nil {
		m.client.Logger.Printf("chests: block entity data for %v, which is not a chest", d.Pos)
		return
	}
	before := e.Facing()
	if err := e.OnDataPacket(d); err != nil {
		m.client.Logger.Printf("chests: bad block entity data for %v: %v", d.Pos, err)
		return
	}
	if after := e.Facing(); after != before {
		for _, cb := range m.onFacing {
			cb(d.Pos, after)
		}
	}
}

func (m *Module) handleBlockEvent(p pk.Packet) {
	d, err := wire.ReadBlockEvent(p)
	if err != nil {
		m.client.Logger.Println("chests: failed to parse block event:", err)
		return
	}
	// events raced by a block change are stale
	if m.world.GetBlock(d.Pos) != d.State {
		return
	}
	e := m.Chest(d.Pos)
	if e == nil {
		return
	}
	ev, err := blockevent.Decode(d.Kind, d.Payload)
	if err != nil {
		m.client.Logger.Printf("chests: bad block event for %v: %v", d.Pos, err)
		return
	}

	observers, facing := e.Observers(), e.Facing()
	e.ReceiveBlockEvent(ev)
	if n := e.Observers(); n != observers {
		for _, cb := range m.onObservers {
			cb(d.Pos, n)
		}
	}
	if f := e.Facing(); f != facing {
		for _, cb := range m.onFacing {
			cb(d.Pos, f)
		}
	}
}

func (m *Module) handleTopStacks(p pk.Packet) {
	d, err := wire.ReadTopStacks(p)
	if err != nil {
		m.client.Logger.Println("chests: failed to parse top stacks:", err)
		return
	}
	e := m.Chest(d.Pos)
	if e == nil {
		return
	}
	e.ReceiveTopStacks(d.Stacks)
	for _, cb := range m.onTopStacks {
		cb(d.Pos, d.Stacks)
	}
}

func (m *Module) handleSound(p pk.Packet) {
	d, err := wire.ReadSound(p)
	if err != nil {
		m.client.Logger.Println("chests: failed to parse sound:", err)
		return
	}
	for _, cb := range m.onSound {
		cb(d.Pos, d.Sound)
	}
}

// Tick steps the lid animation of every mirrored chest.
func (m *Module) Tick() {
	m.mu.RLock()
	es := make([]*chest.Entity, 0, len(m.chests))
	for _, e := range m.chests {
		es = append(es, e)
	}
	m.mu.RUnlock()
	sort.Slice(es, func(i, j int) bool { return less(es[i].Pos(), es[j].Pos()) })

	views := make([]View, 0, len(es))
	for _, e := range es {
		e.Tick()
		views = append(views, View{
			Pos:       e.Pos(),
			Type:      e.Type(),
			Name:      e.Name(),
			Facing:    e.Facing(),
			Observers: e.Observers(),
			Lid:       e.Lid(),
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

func less(a, b blockpos.Pos) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

// chest.World, remote side

func (m *Module) IsRemote() bool { return true }

func (m *Module) BlockType(pos blockpos.Pos) (chest.Type, bool) { return m.world.ChestType(pos) }

func (m *Module) EntityAt(pos blockpos.Pos) *chest.Entity { return m.Chest(pos) }

func (m *Module) NotifyBlockRedraw(blockpos.Pos)                      {}
func (m *Module) NotifyNeighborUpdate(blockpos.Pos)                   {}
func (m *Module) AddBlockEvent(blockpos.Pos, blockevent.Event)        {}
func (m *Module) PlaySound(blockpos.Pos, lid.Sound, float32, float32) {}
