// Package wire encodes the packets a chest exchanges between the
// authoritative world and client mirrors.
package wire

import (
	"errors"
	"fmt"
	"io"

	pk "github.com/Tnze/go-mc/net/packet"

	"github.com/go-mclib/chests/pkg/blockpos"
	"github.com/go-mclib/chests/pkg/chest/blockevent"
	"github.com/go-mclib/chests/pkg/chest/lid"
	"github.com/go-mclib/chests/pkg/chest/topstacks"
	"github.com/go-mclib/chests/pkg/item"
)

// Packet IDs.
const (
	IDBlockEntityData int32 = 0x01
	IDBlockEvent      int32 = 0x02
	IDTopStacks       int32 = 0x03
	IDBlockChange     int32 = 0x04
	IDSound           int32 = 0x05
)

// ErrUnexpectedPacket is returned when a packet is decoded as the wrong kind.
var ErrUnexpectedPacket = errors.New("wire: unexpected packet id")

func expect(p pk.Packet, id int32) error {
	if p.ID != id {
		return fmt.Errorf("%w: got %#02x, want %#02x", ErrUnexpectedPacket, p.ID, id)
	}
	return nil
}

// Position adapts a block position to the go-mc packed position field.
type Position blockpos.Pos

func (p Position) WriteTo(w io.Writer) (int64, error) {
	return pk.Position{X: p.X, Y: p.Y, Z: p.Z}.WriteTo(w)
}

func (p *Position) ReadFrom(r io.Reader) (int64, error) {
	var v pk.Position
	n, err := v.ReadFrom(r)
	if err != nil {
		return n, err
	}
	*p = Position{X: v.X, Y: v.Y, Z: v.Z}
	return n, nil
}

// EntityAction tells a mirror how to apply a BlockEntityData payload.
type EntityAction uint8

const (
	// ActionDelta carries only the replicated update fields.
	ActionDelta EntityAction = 0
	// ActionFull carries a complete persisted snapshot.
	ActionFull EntityAction = 1
)

// BlockEntityData carries an NBT-encoded chest update.
type BlockEntityData struct {
	Pos    blockpos.Pos
	Action EntityAction
	NBT    []byte
}

// Packet encodes the update as an IDBlockEntityData packet.
func (d BlockEntityData) Packet() pk.Packet {
	return pk.Marshal(IDBlockEntityData,
		Position(d.Pos),
		pk.UnsignedByte(d.Action),
		pk.ByteArray(d.NBT),
	)
}

// ReadBlockEntityData decodes p, which must carry IDBlockEntityData.
func ReadBlockEntityData(p pk.Packet) (BlockEntityData, error) {
	if err := expect(p, IDBlockEntityData); err != nil {
		return BlockEntityData{}, err
	}
	var (
		pos    Position
		action pk.UnsignedByte
		data   pk.ByteArray
	)
	if err := p.Scan(&pos, &action, &data); err != nil {
		return BlockEntityData{}, fmt.Errorf("wire: block entity data: %w", err)
	}
	return BlockEntityData{Pos: blockpos.Pos(pos), Action: EntityAction(action), NBT: data}, nil
}

// BlockEvent carries a (kind, payload) signal for the block at Pos. State is
// the block state the sender saw, so the receiver can drop events aimed at a
// block that has since changed.
type BlockEvent struct {
	Pos     blockpos.Pos
	Kind    blockevent.Kind
	Payload int32
	State   int32
}

// Packet encodes the event as an IDBlockEvent packet.
func (e BlockEvent) Packet() pk.Packet {
	return pk.Marshal(IDBlockEvent,
		Position(e.Pos),
		pk.UnsignedByte(e.Kind),
		varInt(e.Payload),
		varInt(e.State),
	)
}

// ReadBlockEvent decodes p, which must carry IDBlockEvent.
func ReadBlockEvent(p pk.Packet) (BlockEvent, error) {
	if err := expect(p, IDBlockEvent); err != nil {
		return BlockEvent{}, err
	}
	var (
		pos            Position
		kind           pk.UnsignedByte
		payload, state varInt
	)
	if err := p.Scan(&pos, &kind, &payload, &state); err != nil {
		return BlockEvent{}, fmt.Errorf("wire: block event: %w", err)
	}
	return BlockEvent{
		Pos:     blockpos.Pos(pos),
		Kind:    blockevent.Kind(kind),
		Payload: int32(payload),
		State:   int32(state),
	}, nil
}

// Summary is the wire form of a top-stacks summary: for each of the fixed
// slots a presence flag, then item id and count when present.
type Summary topstacks.Summary

func (s Summary) WriteTo(w io.Writer) (n int64, err error) {
	for _, st := range s {
		present := !st.IsEmpty()
		fields := []io.WriterTo{pk.Boolean(present)}
		if present {
			fields = append(fields, varInt(st.ID), varInt(st.Count))
		}
		for _, f := range fields {
			nn, err := f.WriteTo(w)
			n += nn
			if err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

func (s *Summary) ReadFrom(r io.Reader) (n int64, err error) {
	var out Summary
	for i := range out {
		var present pk.Boolean
		nn, err := present.ReadFrom(r)
		n += nn
		if err != nil {
			return n, err
		}
		if !present {
			continue
		}
		var id, count varInt
		for _, f := range []io.ReaderFrom{&id, &count} {
			nn, err := f.ReadFrom(r)
			n += nn
			if err != nil {
				return n, err
			}
		}
		out[i] = item.New(int32(id), int(count))
	}
	*s = out
	return n, nil
}

// TopStacks carries a chest's top-stacks summary.
type TopStacks struct {
	Pos    blockpos.Pos
	Stacks topstacks.Summary
}

// Packet encodes the summary as an IDTopStacks packet.
func (t TopStacks) Packet() pk.Packet {
	return pk.Marshal(IDTopStacks, Position(t.Pos), Summary(t.Stacks))
}

// ReadTopStacks decodes p, which must carry IDTopStacks.
func ReadTopStacks(p pk.Packet) (TopStacks, error) {
	if err := expect(p, IDTopStacks); err != nil {
		return TopStacks{}, err
	}
	var (
		pos     Position
		summary Summary
	)
	if err := p.Scan(&pos, &summary); err != nil {
		return TopStacks{}, fmt.Errorf("wire: top stacks: %w", err)
	}
	return TopStacks{Pos: blockpos.Pos(pos), Stacks: topstacks.Summary(summary)}, nil
}

// BlockChange announces a block state change. State 0 is air.
type BlockChange struct {
	Pos   blockpos.Pos
	State int32
}

// Packet encodes the change as an IDBlockChange packet.
func (c BlockChange) Packet() pk.Packet {
	return pk.Marshal(IDBlockChange, Position(c.Pos), varInt(c.State))
}

// ReadBlockChange decodes p, which must carry IDBlockChange.
func ReadBlockChange(p pk.Packet) (BlockChange, error) {
	if err := expect(p, IDBlockChange); err != nil {
		return BlockChange{}, err
	}
	var (
		pos   Position
		state varInt
	)
	if err := p.Scan(&pos, &state); err != nil {
		return BlockChange{}, fmt.Errorf("wire: block change: %w", err)
	}
	return BlockChange{Pos: blockpos.Pos(pos), State: int32(state)}, nil
}

// Sound plays a lid sound at a block.
type Sound struct {
	Pos    blockpos.Pos
	Sound  lid.Sound
	Volume float32
	Pitch  float32
}

// Packet encodes the sound as an IDSound packet.
func (s Sound) Packet() pk.Packet {
	return pk.Marshal(IDSound,
		Position(s.Pos),
		varInt(s.Sound),
		pk.Float(s.Volume),
		pk.Float(s.Pitch),
	)
}

// ReadSound decodes p, which must carry IDSound.
func ReadSound(p pk.Packet) (Sound, error) {
	if err := expect(p, IDSound); err != nil {
		return Sound{}, err
	}
	var (
		pos           Position
		sound         varInt
		volume, pitch pk.Float
	)
	if err := p.Scan(&pos, &sound, &volume, &pitch); err != nil {
		return Sound{}, fmt.Errorf("wire: sound: %w", err)
	}
	return Sound{
		Pos:    blockpos.Pos(pos),
		Sound:  lid.Sound(sound),
		Volume: float32(volume),
		Pitch:  float32(pitch),
	}, nil
}
