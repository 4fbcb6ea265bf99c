package chest

import (
	"testing"

	"github.com/Tnze/go-mc/nbt"
	"github.com/google/go-cmp/cmp"

	"github.com/go-mclib/chests/pkg/blockpos"
	"github.com/go-mclib/chests/pkg/direction"
	"github.com/go-mclib/chests/pkg/item"
)

func TestPersistenceRoundtrip(t *testing.T) {
	w := newWorld(false)
	src := w.place(blockpos.Pos{}, Silver)
	src.SetFacing(direction.South)
	src.SetCustomName("Tools")
	src.Set(0, item.New(stone, 64))
	src.Set(17, item.New(oak, 3))
	enchanted := item.New(dirt, 1)
	enchanted.Tag = map[string]any{"Damage": int32(3)}
	src.Set(71, enchanted)

	data, err := src.MarshalNBT()
	if err != nil {
		t.Fatal(err)
	}

	dst := w.place(blockpos.Pos{X: 1}, Silver)
	dst.Open(player{})
	if err := dst.UnmarshalNBT(data); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(src.Contents(), dst.Contents()); diff != "" {
		t.Errorf("contents mismatch (-src +dst):\n%s", diff)
	}
	if dst.Facing() != direction.South || dst.Name() != "Tools" {
		t.Errorf("loaded facing %v name %q, want south Tools", dst.Facing(), dst.Name())
	}
	if dst.Observers() != 0 {
		t.Errorf("observers after load = %d, want 0", dst.Observers())
	}
	if dst.SaveDirty() {
		t.Error("freshly loaded chest should not need saving")
	}
}

func TestRecordIsSparse(t *testing.T) {
	w := newWorld(false)
	e := w.place(blockpos.Pos{}, Iron)
	e.Set(9, item.New(stone, 2))

	r := e.Record()
	want := []ItemRecord{{Slot: 9, ID: "minecraft:stone", Count: 2}}
	if diff := cmp.Diff(want, r.Items); diff != "" {
		t.Errorf("Items mismatch (-want +got):\n%s", diff)
	}
}

func TestAbsentFacingDefaultsNorth(t *testing.T) {
	data, err := nbt.Marshal(struct {
		CustomName string `nbt:"CustomName"`
	}{"Old"})
	if err != nil {
		t.Fatal(err)
	}

	w := newWorld(false)
	e := w.place(blockpos.Pos{}, Iron)
	e.SetFacing(direction.East)
	if err := e.UnmarshalNBT(data); err != nil {
		t.Fatal(err)
	}
	if e.Facing() != direction.North {
		t.Errorf("facing = %v, want north", e.Facing())
	}
	if e.Name() != "Old" {
		t.Errorf("name = %q, want Old", e.Name())
	}
}

func TestLoadSkipsMalformedEntries(t *testing.T) {
	w := newWorld(false)
	e := w.place(blockpos.Pos{}, Copper)

	e.Load(Record{
		Facing: 9,
		Items: []ItemRecord{
			{Slot: 0, ID: "minecraft:stone", Count: 4},
			{Slot: 45, ID: "minecraft:stone", Count: 1},
			{Slot: -1, ID: "minecraft:stone", Count: 1},
			{Slot: 2, ID: "minecraft:not_an_item", Count: 1},
			{Slot: 3, ID: "minecraft:stone", Count: 0},
		},
	})

	if e.Facing() != direction.North {
		t.Errorf("facing = %v, want north fallback", e.Facing())
	}
	want := make([]item.Stack, 45)
	want[0] = item.New(stone, 4)
	if diff := cmp.Diff(want, e.Contents()); diff != "" {
		t.Errorf("contents mismatch (-want +got):\n%s", diff)
	}
}

func TestLootTablePersistedUntilRolled(t *testing.T) {
	w := newWorld(false)
	src := w.place(blockpos.Pos{}, Iron)
	src.SetLootTable("chests/simple_dungeon", 7)

	data, err := src.MarshalNBT()
	if err != nil {
		t.Fatal(err)
	}

	loot := lootTable{"chests/simple_dungeon": {item.New(oak, 2)}}
	dst := w.place(blockpos.Pos{Y: 1}, Iron, WithLoot(loot))
	if err := dst.UnmarshalNBT(data); err != nil {
		t.Fatal(err)
	}
	if table, seed := dst.LootTable(); table != "chests/simple_dungeon" || seed != 7 {
		t.Errorf("loot table after load = %q/%d", table, seed)
	}
	if got := dst.Get(0); !cmp.Equal(got, item.New(oak, 2)) {
		t.Errorf("slot 0 = %v, want rolled loot", got)
	}
	if r := dst.Record(); r.LootTable != "" || len(r.Items) != 1 {
		t.Errorf("record after roll = %+v, want items only", r)
	}
}
