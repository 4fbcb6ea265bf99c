package inventory

import "github.com/go-mclib/chests/pkg/item"

// Store is a fixed-capacity array of item slots.
//
// Every read or write first runs the fill hook (loot generation) exactly once
// for the lifetime of the store. Slot indices must lie in [0, Capacity());
// an out-of-range index is a caller bug and panics like any slice access.
type Store struct {
	slots   []item.Stack
	limit   int
	accepts func(item.Stack) bool
	fill    func()
	filling bool
	filled  bool
	dirty   bool
}

// Option configures a Store.
type Option func(*Store)

// WithStackLimit overrides the per-slot count limit (default item.MaxStackSize).
func WithStackLimit(n int) Option {
	return func(s *Store) { s.limit = n }
}

// WithFilter sets the acceptance rule used by IsValidFor.
func WithFilter(accepts func(item.Stack) bool) Option {
	return func(s *Store) { s.accepts = accepts }
}

// WithFillHook sets the hook run once before the first read or write.
func WithFillHook(fill func()) Option {
	return func(s *Store) { s.fill = fill }
}

// New creates a store with the given number of slots.
func New(capacity int, opts ...Option) *Store {
	s := &Store{
		slots: make([]item.Stack, capacity),
		limit: item.MaxStackSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ensureFilled runs the fill hook once. The hook may itself read and write
// slots; those nested calls see the hook as already running.
func (s *Store) ensureFilled() {
	if s.filled || s.filling || s.fill == nil {
		return
	}
	s.filling = true
	s.fill()
	s.filling = false
	s.filled = true
}

// MarkFilled suppresses the fill hook, e.g. after contents were loaded from disk.
func (s *Store) MarkFilled() { s.filled = true }

// ResetFill re-arms the fill hook, e.g. after a loot table was assigned.
func (s *Store) ResetFill() { s.filled = false }

// Capacity returns the number of slots.
func (s *Store) Capacity() int {
	s.ensureFilled()
	return len(s.slots)
}

// StackLimit returns the per-slot count limit.
func (s *Store) StackLimit() int { return s.limit }

// Get returns a copy of the stack in slot i.
func (s *Store) Get(i int) item.Stack {
	s.ensureFilled()
	return s.slots[i].Copy()
}

// Set replaces slot i, clamping the count to the stack limit.
func (s *Store) Set(i int, stack item.Stack) {
	s.ensureFilled()
	if stack.Count > s.limit {
		stack.Count = s.limit
	}
	if stack.IsEmpty() {
		stack = item.Empty
	}
	s.slots[i] = stack
	s.dirty = true
}

// Take removes up to n items from slot i and returns them.
// The slot becomes empty when its last item is taken.
func (s *Store) Take(i, n int) item.Stack {
	s.ensureFilled()
	taken, rest := s.slots[i].Split(n)
	if taken.IsEmpty() {
		return item.Empty
	}
	s.slots[i] = rest
	s.dirty = true
	return taken
}

// RemoveAll empties slot i and returns what it held.
func (s *Store) RemoveAll(i int) item.Stack {
	s.ensureFilled()
	old := s.slots[i]
	if old.IsEmpty() {
		return item.Empty
	}
	s.slots[i] = item.Empty
	s.dirty = true
	return old
}

// Clear empties every slot.
func (s *Store) Clear() {
	s.ensureFilled()
	for i := range s.slots {
		s.slots[i] = item.Empty
	}
	s.dirty = true
}

// IsValidFor reports whether stack may be placed in slot i.
func (s *Store) IsValidFor(i int, stack item.Stack) bool {
	s.ensureFilled()
	_ = s.slots[i]
	if s.accepts == nil {
		return true
	}
	return s.accepts(stack)
}

// Contents returns a copy of all slots.
func (s *Store) Contents() []item.Stack {
	s.ensureFilled()
	out := make([]item.Stack, len(s.slots))
	for i, st := range s.slots {
		out[i] = st.Copy()
	}
	return out
}

// SetContents copies stacks into a fresh slot array of the same capacity.
// Entries beyond the capacity are dropped.
func (s *Store) SetContents(stacks []item.Stack) {
	s.ensureFilled()
	slots := make([]item.Stack, len(s.slots))
	for i := 0; i < len(stacks) && i < len(slots); i++ {
		st := stacks[i]
		if st.Count > s.limit {
			st.Count = s.limit
		}
		if !st.IsEmpty() {
			slots[i] = st
		}
	}
	s.slots = slots
	s.dirty = true
}

// Empty reports whether no slot holds anything.
func (s *Store) Empty() bool {
	s.ensureFilled()
	for _, st := range s.slots {
		if !st.IsEmpty() {
			return false
		}
	}
	return true
}

// Dirty reports whether the store was mutated since the last ClearDirty.
func (s *Store) Dirty() bool { return s.dirty }

// ClearDirty resets the mutation flag.
func (s *Store) ClearDirty() { s.dirty = false }

// Slots exposes the live slot array without triggering the fill hook.
// It is meant for derived views (aggregation, persistence) that must not
// roll loot as a side effect.
func (s *Store) Slots() []item.Stack { return s.slots }
