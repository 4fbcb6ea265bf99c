package chest

import (
	"fmt"

	"github.com/Tnze/go-mc/nbt"

	"github.com/go-mclib/chests/pkg/direction"
	"github.com/go-mclib/chests/pkg/item"
)

// ItemRecord is one persisted slot.
type ItemRecord struct {
	Slot  int8           `nbt:"Slot"`
	ID    string         `nbt:"id"`
	Count int8           `nbt:"Count"`
	Tag   map[string]any `nbt:"tag,omitempty"`
}

// Record is the persisted form of a chest. Items is sparse and omitted while
// a loot table is still pending.
type Record struct {
	Facing        int8         `nbt:"facing"`
	CustomName    string       `nbt:"CustomName,omitempty"`
	Items         []ItemRecord `nbt:"Items,omitempty"`
	LootTable     string       `nbt:"LootTable,omitempty"`
	LootTableSeed int64        `nbt:"LootTableSeed,omitempty"`
}

// Record captures the persisted state. It does not roll pending loot.
func (e *Entity) Record() Record {
	r := Record{
		Facing:     int8(e.facing),
		CustomName: e.customName,
	}
	if e.lootTable != "" {
		r.LootTable, r.LootTableSeed = e.lootTable, e.lootSeed
		return r
	}
	for i, s := range e.store.Slots() {
		if s.IsEmpty() {
			continue
		}
		r.Items = append(r.Items, ItemRecord{
			Slot:  int8(i),
			ID:    s.Name(),
			Count: int8(s.Count),
			Tag:   s.Tag,
		})
	}
	return r
}

// Load replaces the persisted state with r. Entries with an out-of-range
// slot, an unknown item or a non-positive count are skipped, and an invalid
// facing falls back to north. Observers are reset.
func (e *Entity) Load(r Record) {
	f, ok := direction.FromIndex(int(r.Facing))
	if !ok {
		e.logf("invalid facing %d, using north", r.Facing)
		f = direction.North
	}
	e.facing = f
	e.customName = r.CustomName
	e.lootTable, e.lootSeed = r.LootTable, r.LootTableSeed
	e.observers = 0

	stacks := make([]item.Stack, len(e.store.Slots()))
	if r.LootTable == "" {
		for _, it := range r.Items {
			slot := int(uint8(it.Slot))
			if slot >= len(stacks) {
				e.logf("skipping item in slot %d beyond capacity %d", slot, len(stacks))
				continue
			}
			id := item.ID(it.ID)
			if id < 0 {
				e.logf("skipping unknown item %q in slot %d", it.ID, slot)
				continue
			}
			s := item.New(id, int(it.Count))
			if s.IsEmpty() {
				continue
			}
			s.Tag = it.Tag
			stacks[slot] = s
		}
	}

	e.store.MarkFilled()
	e.store.SetContents(stacks)
	if r.LootTable != "" {
		e.store.ResetFill()
	}
	e.saveDirty = false
}

// MarshalNBT encodes the persisted record.
func (e *Entity) MarshalNBT() ([]byte, error) {
	data, err := nbt.Marshal(e.Record())
	if err != nil {
		return nil, fmt.Errorf("chest: encode record: %w", err)
	}
	return data, nil
}

// UnmarshalNBT decodes and loads a persisted record. A record without a
// facing tag faces north.
func (e *Entity) UnmarshalNBT(data []byte) error {
	r, err := DecodeRecord(data)
	if err != nil {
		return err
	}
	e.Load(r)
	return nil
}

// DecodeRecord decodes a persisted record, defaulting an absent facing to north.
func DecodeRecord(data []byte) (Record, error) {
	var r Record
	if err := nbt.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("chest: decode record: %w", err)
	}
	var fields map[string]any
	if err := nbt.Unmarshal(data, &fields); err != nil {
		return Record{}, fmt.Errorf("chest: decode record: %w", err)
	}
	if _, ok := fields["facing"]; !ok {
		r.Facing = int8(direction.North)
	}
	return r, nil
}
