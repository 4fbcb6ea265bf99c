package chest

import (
	"fmt"

	"github.com/Tnze/go-mc/nbt"

	"github.com/go-mclib/chests/pkg/chest/blockevent"
	"github.com/go-mclib/chests/pkg/chest/topstacks"
	"github.com/go-mclib/chests/pkg/chest/wire"
	"github.com/go-mclib/chests/pkg/direction"
)

// deltaRecord is the placement delta: facing only.
type deltaRecord struct {
	Facing int8 `nbt:"facing"`
}

// ReceiveBlockEvent applies a block event sent by the server.
func (e *Entity) ReceiveBlockEvent(ev blockevent.Event) {
	switch ev := ev.(type) {
	case blockevent.ObserversChanged:
		e.observers = ev.Count
	case blockevent.FacingChanged:
		e.facing = ev.Facing
	case blockevent.Resync:
		e.observers = ev.Count
		e.facing = ev.Facing
	}
}

// ReceiveTopStacks stores a summary broadcast by the server.
func (e *Entity) ReceiveTopStacks(s topstacks.Summary) {
	e.top = s
}

// UpdatePacket builds the delta sent when only the facing matters, e.g.
// right after placement.
func (e *Entity) UpdatePacket() (wire.BlockEntityData, error) {
	data, err := nbt.Marshal(deltaRecord{Facing: int8(e.facing)})
	if err != nil {
		return wire.BlockEntityData{}, fmt.Errorf("chest: encode delta: %w", err)
	}
	return wire.BlockEntityData{Pos: e.pos, Action: wire.ActionDelta, NBT: data}, nil
}

// UpdateTag builds the full snapshot a client receives when it first sees
// the chest. It carries the whole persisted record.
func (e *Entity) UpdateTag() (wire.BlockEntityData, error) {
	data, err := e.MarshalNBT()
	if err != nil {
		return wire.BlockEntityData{}, err
	}
	return wire.BlockEntityData{Pos: e.pos, Action: wire.ActionFull, NBT: data}, nil
}

// OnDataPacket applies a delta or full snapshot received from the server.
func (e *Entity) OnDataPacket(d wire.BlockEntityData) error {
	switch d.Action {
	case wire.ActionDelta:
		var rec deltaRecord
		if err := nbt.Unmarshal(d.NBT, &rec); err != nil {
			return fmt.Errorf("chest: decode delta: %w", err)
		}
		f, ok := direction.FromIndex(int(rec.Facing))
		if !ok {
			return fmt.Errorf("chest: delta facing %d out of range", rec.Facing)
		}
		e.facing = f
		return nil
	case wire.ActionFull:
		return e.UnmarshalNBT(d.NBT)
	}
	return fmt.Errorf("chest: unknown block entity action %d", d.Action)
}
