package chests

import (
	"io"
	"log"
	"testing"

	pk "github.com/Tnze/go-mc/net/packet"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/go-mclib/chests/pkg/blockpos"
	"github.com/go-mclib/chests/pkg/chest"
	"github.com/go-mclib/chests/pkg/chest/blockevent"
	"github.com/go-mclib/chests/pkg/chest/lid"
	"github.com/go-mclib/chests/pkg/chest/topstacks"
	"github.com/go-mclib/chests/pkg/chest/wire"
	"github.com/go-mclib/chests/pkg/client"
	"github.com/go-mclib/chests/pkg/client/modules/world"
	"github.com/go-mclib/chests/pkg/direction"
	"github.com/go-mclib/chests/pkg/item"
	"github.com/go-mclib/chests/pkg/server"
	srvchests "github.com/go-mclib/chests/pkg/server/modules/chests"
)

var stone = item.ID("minecraft:stone")

type harness struct {
	srv    *server.Server
	host   *srvchests.Module
	client *client.Client
	mirror *Module
	player *server.Player
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	quiet := log.New(io.Discard, "", 0)

	s := server.New()
	s.Logger = quiet
	host := srvchests.New()
	s.Register(host)

	c := client.New("viewer")
	c.Logger = quiet
	c.Register(world.New())
	mirror := New()
	c.Register(mirror)

	p := s.Join("viewer", mgl64.Vec3{1, 64, 1}, func(p pk.Packet) { c.Deliver(p) })
	return &harness{srv: s, host: host, client: c, mirror: mirror, player: p}
}

func (h *harness) tick(n int) {
	for i := 0; i < n; i++ {
		h.srv.Tick()
		h.client.Tick()
	}
}

func TestRegisterWithoutWorldPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Register without world module did not panic")
		}
	}()
	client.New("x").Register(New())
}

func TestMirrorFollowsServer(t *testing.T) {
	h := newHarness(t)
	pos := blockpos.Pos{X: 0, Y: 64, Z: 0}

	var facings []direction.Facing
	h.mirror.OnFacing(func(_ blockpos.Pos, f direction.Facing) { facings = append(facings, f) })
	var tops []topstacks.Summary
	h.mirror.OnTopStacks(func(_ blockpos.Pos, s topstacks.Summary) { tops = append(tops, s) })

	e, err := h.host.Place(pos, chest.Crystal, direction.East)
	if err != nil {
		t.Fatal(err)
	}
	e.Set(5, item.New(stone, 12))
	h.tick(1)

	m := h.mirror.Chest(pos)
	if m == nil {
		t.Fatal("no mirrored chest after placement")
	}
	if m.Type() != chest.Crystal || m.Facing() != direction.East {
		t.Errorf("mirror = %v facing %v, want CRYSTAL facing east", m.Type(), m.Facing())
	}
	if len(tops) != 1 || tops[0][0].Count != 12 {
		t.Errorf("top stacks updates = %v", tops)
	}

	if err := h.host.Rotate(pos); err != nil {
		t.Fatal(err)
	}
	h.tick(1)
	if m.Facing() != direction.South {
		t.Errorf("mirror facing after rotate = %v, want south", m.Facing())
	}
	if len(facings) != 2 || facings[1] != direction.South {
		t.Errorf("facing callbacks = %v", facings)
	}

	if _, err := h.host.Break(pos); err != nil {
		t.Fatal(err)
	}
	h.tick(1)
	if h.mirror.Chest(pos) != nil {
		t.Error("mirrored chest survives break")
	}
}

func TestMirrorLidOpensWithObservers(t *testing.T) {
	h := newHarness(t)
	pos := blockpos.Pos{X: 0, Y: 64, Z: 0}
	if _, err := h.host.Place(pos, chest.Iron, direction.North); err != nil {
		t.Fatal(err)
	}

	var counts []int
	h.mirror.OnObservers(func(_ blockpos.Pos, n int) { counts = append(counts, n) })
	var sounds []blockpos.Pos
	h.mirror.OnSound(func(p blockpos.Pos, _ lid.Sound) { sounds = append(sounds, p) })

	if err := h.host.Open(h.player.ID, pos); err != nil {
		t.Fatal(err)
	}
	h.tick(10)

	views := h.mirror.Views()
	if len(views) != 1 {
		t.Fatalf("views = %d, want 1", len(views))
	}
	if views[0].Observers != 1 || views[0].Lid.Angle <= 0 {
		t.Errorf("view = %+v, want one observer and a rising lid", views[0])
	}
	if len(counts) != 1 || counts[0] != 1 {
		t.Errorf("observer callbacks = %v, want [1]", counts)
	}
	if len(sounds) != 1 {
		t.Errorf("heard %d sounds, want the open sound", len(sounds))
	}
}

func TestLateJoinerGetsSnapshot(t *testing.T) {
	h := newHarness(t)
	pos := blockpos.Pos{X: 2, Y: 64, Z: 2}
	e, _ := h.host.Place(pos, chest.Gold, direction.West)
	e.SetCustomName("Vault")
	if err := h.host.Open(h.player.ID, pos); err != nil {
		t.Fatal(err)
	}
	h.tick(1)

	late := client.New("late")
	late.Logger = log.New(io.Discard, "", 0)
	late.Register(world.New())
	mirror := New()
	late.Register(mirror)
	h.srv.Join("late", mgl64.Vec3{0, 64, 0}, func(p pk.Packet) { late.Deliver(p) })
	late.Tick()

	m := mirror.Chest(pos)
	if m == nil {
		t.Fatal("late joiner has no chest")
	}
	if m.Name() != "Vault" || m.Facing() != direction.West || m.Observers() != 1 {
		t.Errorf("late mirror = %q facing %v with %d observers", m.Name(), m.Facing(), m.Observers())
	}
}

func TestMalformedAndStalePacketsDropped(t *testing.T) {
	h := newHarness(t)
	pos := blockpos.Pos{X: 0, Y: 64, Z: 0}
	h.host.Place(pos, chest.Iron, direction.North)
	h.tick(1)
	m := h.mirror.Chest(pos)

	h.client.Deliver(pk.Packet{ID: wire.IDTopStacks, Data: []byte{0x01}})
	h.client.Deliver(pk.Packet{ID: wire.IDBlockEntityData, Data: nil})

	kind, payload := blockevent.Encode(blockevent.ObserversChanged{Count: 7})
	h.client.Deliver(wire.BlockEvent{Pos: pos, Kind: kind, Payload: payload, State: chest.Gold.State()}.Packet())
	h.client.Deliver(wire.BlockEvent{Pos: pos, Kind: 9, Payload: 1, State: chest.Iron.State()}.Packet())
	h.client.Tick()

	if m.Observers() != 0 {
		t.Errorf("observers = %d after stale and unknown events, want 0", m.Observers())
	}
	if h.mirror.Chest(pos) != m {
		t.Error("mirror replaced by malformed packets")
	}
}

func TestTypeChangeRebuildsMirror(t *testing.T) {
	h := newHarness(t)
	pos := blockpos.Pos{X: 9, Y: 70, Z: -3}

	h.client.Deliver(wire.BlockChange{Pos: pos, State: chest.Iron.State()}.Packet())
	h.client.Tick()
	iron := h.mirror.Chest(pos)
	if iron == nil {
		t.Fatal("no mirror after iron block change")
	}

	h.client.Deliver(wire.BlockChange{Pos: pos, State: chest.Gold.State()}.Packet())
	h.client.Tick()
	gold := h.mirror.Chest(pos)
	if gold == nil || gold == iron {
		t.Fatalf("mirror after upgrade = %p, want a new chest (old %p)", gold, iron)
	}
	if gold.Capacity() != chest.Gold.Capacity() {
		t.Errorf("upgraded capacity = %d, want %d", gold.Capacity(), chest.Gold.Capacity())
	}

	h.client.Deliver(wire.BlockChange{Pos: pos, State: chest.Gold.State()}.Packet())
	h.client.Tick()
	if h.mirror.Chest(pos) != gold {
		t.Error("same-type block change replaced the mirror")
	}
}

func TestDeliverDropsWhenFull(t *testing.T) {
	c := client.New("slow")
	c.Logger = log.New(io.Discard, "", 0)
	for i := 0; i < client.DefaultQueueSize; i++ {
		if !c.Deliver(pk.Packet{ID: wire.IDSound}) {
			t.Fatalf("Deliver %d dropped below capacity", i)
		}
	}
	if c.Deliver(pk.Packet{ID: wire.IDSound}) {
		t.Error("Deliver accepted past capacity")
	}
	if c.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", c.Dropped())
	}
	c.Tick()
	if !c.Deliver(pk.Packet{ID: wire.IDSound}) {
		t.Error("Deliver refused after the queue drained")
	}
}
