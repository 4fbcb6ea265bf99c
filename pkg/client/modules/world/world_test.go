package world

import (
	"io"
	"log"
	"testing"

	"github.com/Tnze/go-mc/nbt"
	"github.com/go-mclib/data/pkg/data/chunks"

	"github.com/go-mclib/chests/pkg/blockpos"
	"github.com/go-mclib/chests/pkg/chest"
	"github.com/go-mclib/chests/pkg/chest/wire"
	"github.com/go-mclib/chests/pkg/client"
)

func setup() (*client.Client, *Module) {
	c := client.New("tester")
	c.Logger = log.New(io.Discard, "", 0)
	m := New()
	c.Register(m)
	return c, m
}

func TestChunkKey(t *testing.T) {
	tests := []struct {
		x, z int32
	}{
		{0, 0},
		{1, 1},
		{-1, -1},
		{100, -100},
		{-100, 100},
		{2147483647, 0},
		{0, 2147483647},
		{-2147483648, 0},
		{0, -2147483648},
	}

	for _, tt := range tests {
		key := chunkKey(tt.x, tt.z)
		gotX := int32(key >> 32)
		gotZ := int32(key)
		if gotX != tt.x || gotZ != tt.z {
			t.Errorf("chunkKey(%d, %d) roundtrip failed: got (%d, %d)", tt.x, tt.z, gotX, gotZ)
		}
	}
}

func TestBlockChangePacket(t *testing.T) {
	c, m := setup()

	var updates []blockpos.Pos
	m.OnBlockUpdate(func(pos blockpos.Pos, _ int32) { updates = append(updates, pos) })

	pos := blockpos.Pos{X: -3, Y: 64, Z: 17}
	c.Deliver(wire.BlockChange{Pos: pos, State: chest.Obsidian.State()}.Packet())
	c.Tick()

	if got, ok := m.ChestType(pos); !ok || got != chest.Obsidian {
		t.Errorf("ChestType(%v) = %v, %v; want OBSIDIAN", pos, got, ok)
	}
	if len(updates) != 1 || updates[0] != pos {
		t.Errorf("updates = %v, want [%v]", updates, pos)
	}

	c.Deliver(wire.BlockChange{Pos: pos, State: 0}.Packet())
	c.Tick()
	if _, ok := m.ChestType(pos); ok {
		t.Error("chest still present after change to air")
	}
}

func TestBlockEntitySnapshot(t *testing.T) {
	c, m := setup()
	pos := blockpos.Pos{X: 5, Y: 64, Z: 5}

	full, err := nbt.Marshal(chest.Record{CustomName: "Vault", LootTable: "chests/village"})
	if err != nil {
		t.Fatal(err)
	}
	delta, err := nbt.Marshal(chest.Record{CustomName: "Ignored"})
	if err != nil {
		t.Fatal(err)
	}
	c.Deliver(wire.BlockChange{Pos: pos, State: chest.Gold.State()}.Packet())
	c.Deliver(wire.BlockEntityData{Pos: pos, Action: wire.ActionFull, NBT: full}.Packet())
	c.Deliver(wire.BlockEntityData{Pos: pos, Action: wire.ActionDelta, NBT: delta}.Packet())
	c.Tick()

	be, ok := m.BlockEntity(pos)
	if !ok {
		t.Fatal("no block entity after full snapshot")
	}
	if be.State != chest.Gold.State() {
		t.Errorf("State = %d, want %d", be.State, chest.Gold.State())
	}
	if got := be.Data.GetString("CustomName"); got != "Vault" {
		t.Errorf("CustomName = %q, want Vault", got)
	}
	if got := be.Data.GetString("LootTable"); got != "chests/village" {
		t.Errorf("LootTable = %q, want chests/village", got)
	}

	c.Deliver(wire.BlockChange{Pos: pos, State: chest.Gold.State()}.Packet())
	c.Tick()
	if _, ok := m.BlockEntity(pos); !ok {
		t.Error("same-state block change dropped the block entity")
	}

	c.Deliver(wire.BlockChange{Pos: pos, State: 0}.Packet())
	c.Tick()
	if _, ok := m.BlockEntity(pos); ok {
		t.Error("block entity kept after change to air")
	}
}

func TestGetBlockUnloadedChunk(t *testing.T) {
	_, m := setup()

	if got := m.GetBlock(blockpos.Pos{X: 1000, Y: 64, Z: 1000}); got != 0 {
		t.Errorf("GetBlock for unloaded chunk = %d, want 0", got)
	}
}

func TestIsChunkLoaded(t *testing.T) {
	_, m := setup()

	if m.IsChunkLoaded(0, 0) {
		t.Error("IsChunkLoaded(0, 0) = true, want false")
	}

	var loaded int
	m.OnChunkLoad(func(_, _ int32) { loaded++ })
	m.SetBlock(blockpos.Pos{X: 1, Y: 64, Z: 1}, 1)
	m.SetBlock(blockpos.Pos{X: 2, Y: 64, Z: 1}, 1)

	if !m.IsChunkLoaded(0, 0) {
		t.Error("IsChunkLoaded(0, 0) = false, want true")
	}
	if loaded != 1 {
		t.Errorf("chunk load callbacks = %d, want 1", loaded)
	}
}

func TestReset(t *testing.T) {
	_, m := setup()

	m.Chunks[chunkKey(0, 0)] = &chunks.ChunkColumn{X: 0, Z: 0}
	m.Chunks[chunkKey(1, 1)] = &chunks.ChunkColumn{X: 1, Z: 1}

	if m.GetLoadedChunkCount() != 2 {
		t.Errorf("GetLoadedChunkCount() = %d, want 2", m.GetLoadedChunkCount())
	}

	m.Reset()

	if m.GetLoadedChunkCount() != 0 {
		t.Errorf("GetLoadedChunkCount() after Reset() = %d, want 0", m.GetLoadedChunkCount())
	}
}
