// Package blockevent defines the compact side-channel signals a chest sends
// through the world's block-event mechanism, and their wire packing.
//
// On the wire an event is a (kind, payload) pair of small integers. Kind 1
// carries an observer count, kind 2 a facing, and kind 3 both, packed into
// one byte as count<<3 | facing.
package blockevent

import (
	"errors"
	"fmt"

	"github.com/go-mclib/chests/pkg/direction"
)

// Kind tags the payload of a block event.
type Kind uint8

const (
	KindObservers Kind = 1
	KindFacing    Kind = 2
	KindResync    Kind = 3
)

var (
	ErrUnknownKind = errors.New("blockevent: unknown event kind")
	ErrBadFacing   = errors.New("blockevent: facing out of range")
	ErrBadCount    = errors.New("blockevent: negative observer count")
)

// Event is one of ObserversChanged, FacingChanged or Resync.
type Event interface {
	Kind() Kind
	isEvent()
}

// ObserversChanged announces a new observer count.
type ObserversChanged struct {
	Count int
}

// FacingChanged announces a new facing, e.g. after a rotation.
type FacingChanged struct {
	Facing direction.Facing
}

// Resync carries the full replicated state during a periodic resync.
// Only the low five bits of Count survive packing.
type Resync struct {
	Count  int
	Facing direction.Facing
}

func (ObserversChanged) Kind() Kind { return KindObservers }
func (FacingChanged) Kind() Kind    { return KindFacing }
func (Resync) Kind() Kind           { return KindResync }

func (ObserversChanged) isEvent() {}
func (FacingChanged) isEvent()    {}
func (Resync) isEvent()           {}

// Encode packs an event into its wire kind and payload.
func Encode(e Event) (Kind, int32) {
	switch e := e.(type) {
	case ObserversChanged:
		return KindObservers, int32(e.Count)
	case FacingChanged:
		return KindFacing, int32(e.Facing)
	case Resync:
		return KindResync, PackResync(e.Count, e.Facing)
	}
	panic(fmt.Sprintf("blockevent: unhandled event %T", e))
}

// Decode unpacks a wire kind and payload into an event.
func Decode(kind Kind, payload int32) (Event, error) {
	switch kind {
	case KindObservers:
		if payload < 0 {
			return nil, ErrBadCount
		}
		return ObserversChanged{Count: int(payload)}, nil
	case KindFacing:
		f, ok := direction.FromIndex(int(payload))
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrBadFacing, payload)
		}
		return FacingChanged{Facing: f}, nil
	case KindResync:
		count, facing := UnpackResync(payload)
		f, ok := direction.FromIndex(facing)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrBadFacing, facing)
		}
		return Resync{Count: count, Facing: f}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
}

// PackResync packs an observer count and facing into one byte.
func PackResync(count int, facing direction.Facing) int32 {
	return int32((count<<3)&0xF8) | int32(facing&0x7)
}

// UnpackResync is the inverse of PackResync.
func UnpackResync(payload int32) (count, facing int) {
	return int((payload & 0xF8) >> 3), int(payload & 0x7)
}
