package chest

import (
	"log"
	"math/rand/v2"

	"github.com/go-mclib/chests/pkg/blockpos"
	"github.com/go-mclib/chests/pkg/chest/blockevent"
	"github.com/go-mclib/chests/pkg/chest/inventory"
	"github.com/go-mclib/chests/pkg/chest/lid"
	"github.com/go-mclib/chests/pkg/chest/topstacks"
	"github.com/go-mclib/chests/pkg/chest/wire"
	"github.com/go-mclib/chests/pkg/direction"
	"github.com/go-mclib/chests/pkg/item"
)

const (
	// ResyncInterval is the number of ticks between observer recounts.
	ResyncInterval = 200
	// CensusRange is how far the observer recount reaches past the block.
	CensusRange = 5.0
	// BroadcastRadius bounds who receives top-stacks updates.
	BroadcastRadius = 32.0
	// UseRangeSq is the squared distance within which a player may use the chest.
	UseRangeSq = 64.0

	soundVolume float32 = 0.5
)

// ResyncDue reports whether a chest at pos recounts its observers on the
// given tick. The position sum staggers chests across the interval.
func ResyncDue(ticks int, pos blockpos.Pos) bool {
	return (ticks+pos.Sum())%ResyncInterval == 0
}

// Option configures an Entity at construction.
type Option func(*Entity)

// WithCensus sets the capability used to recount observers on resync.
func WithCensus(c Census) Option {
	return func(e *Entity) { e.census = c }
}

// WithBroadcaster sets where top-stacks updates are sent.
func WithBroadcaster(b Broadcaster) Option {
	return func(e *Entity) { e.broadcaster = b }
}

// WithLoot sets the loot filler invoked on first inventory access.
func WithLoot(l LootFiller) Option {
	return func(e *Entity) { e.loot = l }
}

// WithLogger enables diagnostic logging. Entities are silent by default.
func WithLogger(l *log.Logger) Option {
	return func(e *Entity) { e.logger = l }
}

// WithRand sets the source used for sound pitch variation.
func WithRand(r *rand.Rand) Option {
	return func(e *Entity) { e.rng = r }
}

// Entity is a placed chest: its inventory, observers, facing and lid.
//
// An Entity is not safe for concurrent use; the host ticks and mutates it
// from a single goroutine.
type Entity struct {
	world       World
	pos         blockpos.Pos
	census      Census
	broadcaster Broadcaster
	loot        LootFiller
	logger      *log.Logger
	rng         *rand.Rand

	store *inventory.Store
	agg   topstacks.Aggregator
	top   topstacks.Summary
	lid   lid.Lid

	observers      int
	ticksSinceSync int
	facing         direction.Facing
	customName     string
	lootTable      string
	lootSeed       int64
	saveDirty      bool
}

// New creates the chest entity for the block at pos. The chest type, and so
// the capacity, is read from the world once here.
func New(w World, pos blockpos.Pos, opts ...Option) *Entity {
	e := &Entity{
		world:  w,
		pos:    pos,
		facing: direction.North,
	}
	for _, opt := range opts {
		opt(e)
	}

	t := e.Type()
	e.store = inventory.New(t.Capacity(),
		inventory.WithFilter(t.Accepts),
		inventory.WithFillHook(e.fillLoot),
	)
	return e
}

func (e *Entity) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf("chest %v: "+format, append([]any{e.pos}, args...)...)
	}
}

func (e *Entity) fillLoot() {
	if e.lootTable == "" {
		return
	}
	table, seed := e.lootTable, e.lootSeed
	e.lootTable, e.lootSeed = "", 0
	e.saveDirty = true
	if e.loot == nil {
		e.logf("no loot filler for table %s", table)
		return
	}
	e.loot.FillLoot(table, seed, e.store)
}

// Pos returns the block position.
func (e *Entity) Pos() blockpos.Pos { return e.pos }

// Type returns the chest variant from the world's block state, or Iron when
// the block is not (or no longer) a chest.
func (e *Entity) Type() Type {
	if e.world != nil {
		if t, ok := e.world.BlockType(e.pos); ok {
			return t
		}
	}
	return Iron
}

// Facing returns the horizontal direction the chest front points to.
func (e *Entity) Facing() direction.Facing { return e.facing }

// SetFacing sets the facing without notifying clients.
func (e *Entity) SetFacing(f direction.Facing) {
	if !f.Valid() {
		return
	}
	e.facing = f
	e.saveDirty = true
}

// Rotate turns the chest clockwise around the vertical axis.
func (e *Entity) Rotate() {
	e.SetFacing(e.facing.RotateY())
	e.world.AddBlockEvent(e.pos, blockevent.FacingChanged{Facing: e.facing})
}

// Observers returns how many players currently have the chest open.
func (e *Entity) Observers() int { return e.observers }

// Lid returns the lid animation state.
func (e *Entity) Lid() lid.Lid { return e.lid }

// Open registers p as an observer. Spectators are ignored.
func (e *Entity) Open(p Player) {
	if p.Spectator() {
		return
	}
	if e.observers < 0 {
		e.observers = 0
	}
	e.observers++
	e.observersChanged()
}

// Close unregisters p as an observer. Spectators are ignored.
func (e *Entity) Close(p Player) {
	if p.Spectator() {
		return
	}
	if e.observers > 0 {
		e.observers--
	}
	e.observersChanged()
}

func (e *Entity) observersChanged() {
	e.world.AddBlockEvent(e.pos, blockevent.ObserversChanged{Count: e.observers})
	e.world.NotifyNeighborUpdate(e.pos)
	e.world.NotifyNeighborUpdate(e.pos.Down())
}

// IsUsableBy reports whether p may interact with the chest: it must still be
// the entity at its position and p must be within reach of the block centre.
func (e *Entity) IsUsableBy(p Player) bool {
	if e.world.EntityAt(e.pos) != e {
		return false
	}
	return e.pos.DistanceSq(p.EyePos()) <= UseRangeSq
}

// Name returns the custom name, or the type name when none is set.
func (e *Entity) Name() string {
	if e.HasCustomName() {
		return e.customName
	}
	return e.Type().String()
}

// HasCustomName reports whether a player named the chest.
func (e *Entity) HasCustomName() bool { return e.customName != "" }

// SetCustomName names the chest. An empty name restores the type name.
func (e *Entity) SetCustomName(name string) {
	e.customName = name
	e.saveDirty = true
}

// GUIID identifies the container screen for this chest type.
func (e *Entity) GUIID() string { return "IronChest:" + e.Type().String() }

// Inventory access. Slot indices must lie in [0, Capacity()).

func (e *Entity) Capacity() int                          { return e.store.Capacity() }
func (e *Entity) Get(slot int) item.Stack                { return e.store.Get(slot) }
func (e *Entity) IsValidFor(slot int, s item.Stack) bool { return e.store.IsValidFor(slot, s) }
func (e *Entity) Contents() []item.Stack                 { return e.store.Contents() }

func (e *Entity) Set(slot int, s item.Stack) {
	e.store.Set(slot, s)
	e.saveDirty = true
}

func (e *Entity) Take(slot, n int) item.Stack {
	taken := e.store.Take(slot, n)
	if !taken.IsEmpty() {
		e.saveDirty = true
	}
	return taken
}

func (e *Entity) RemoveAll(slot int) item.Stack {
	old := e.store.RemoveAll(slot)
	if !old.IsEmpty() {
		e.saveDirty = true
	}
	return old
}

func (e *Entity) Clear() {
	e.store.Clear()
	e.saveDirty = true
}

// SetContents replaces the whole inventory, e.g. when upgrading a chest.
// Stacks beyond the capacity are dropped.
func (e *Entity) SetContents(stacks []item.Stack) {
	e.store.SetContents(stacks)
	e.saveDirty = true
}

// Occupancy counts the used slots without rolling pending loot.
func (e *Entity) Occupancy() (used, capacity int) {
	slots := e.store.Slots()
	for _, s := range slots {
		if !s.IsEmpty() {
			used++
		}
	}
	return used, len(slots)
}

// SetLootTable assigns a loot table to roll on the next inventory access.
func (e *Entity) SetLootTable(table string, seed int64) {
	e.lootTable, e.lootSeed = table, seed
	e.store.ResetFill()
	e.saveDirty = true
}

// LootTable returns the pending loot table, if any.
func (e *Entity) LootTable() (string, int64) { return e.lootTable, e.lootSeed }

// TopStacks returns the current summary: the aggregated one on the server,
// the last received one on a client.
func (e *Entity) TopStacks() topstacks.Summary {
	if e.world.IsRemote() {
		return e.top
	}
	return e.agg.Last()
}

// Drops returns the non-empty contents, for the host to spill when the block
// is broken.
func (e *Entity) Drops() []item.Stack {
	var out []item.Stack
	for _, s := range e.store.Contents() {
		if !s.IsEmpty() {
			out = append(out, s)
		}
	}
	return out
}

// SaveDirty reports whether persisted state changed since MarkSaved.
func (e *Entity) SaveDirty() bool { return e.saveDirty }

// MarkSaved clears the persistence dirty flag after a successful save.
func (e *Entity) MarkSaved() { e.saveDirty = false }

// Tick advances the chest by one step. On the server it resyncs observers on
// its cadence, folds this tick's inventory changes into the top-stacks
// summary, and moves the lid. Client mirrors only move the lid.
func (e *Entity) Tick() {
	if e.world.IsRemote() {
		e.ticksSinceSync++
		e.lid.Tick(e.observers)
		return
	}

	if e.observers != 0 && ResyncDue(e.ticksSinceSync, e.pos) {
		e.resync()
	}

	if e.store.Dirty() {
		e.aggregate()
	}

	e.ticksSinceSync++

	if s := e.lid.Tick(e.observers); s != lid.SoundNone {
		e.world.PlaySound(e.pos, s, soundVolume, e.pitch())
	}
}

func (e *Entity) pitch() float32 {
	if e.rng != nil {
		return e.rng.Float32()*0.1 + 0.9
	}
	return rand.Float32()*0.1 + 0.9
}

func (e *Entity) resync() {
	if e.census == nil {
		return
	}
	n := e.census.CountObservers(e, e.pos.Box().Grow(CensusRange))
	if n != e.observers {
		e.logf("observer count drifted from %d to %d", e.observers, n)
	}
	e.observers = n
	e.world.AddBlockEvent(e.pos, blockevent.Resync{Count: n, Facing: e.facing})
}

func (e *Entity) aggregate() {
	e.store.ClearDirty()
	if !e.Type().Transparent() {
		return
	}
	summary, changed := e.agg.Recompute(e.store.Slots())
	if !changed {
		return
	}
	e.world.NotifyBlockRedraw(e.pos)
	if e.broadcaster != nil {
		e.broadcaster.SendToAllAround(e.pos.Center(), BroadcastRadius,
			wire.TopStacks{Pos: e.pos, Stacks: summary}.Packet())
	}
}
