package inventory

import (
	"math/rand"
	"testing"

	"github.com/go-mclib/chests/pkg/item"
)

func TestCapacityInvariantUnderMutation(t *testing.T) {
	s := New(27)
	r := rand.New(rand.NewSource(1))

	for i := 0; i < 2000; i++ {
		slot := r.Intn(27)
		switch r.Intn(4) {
		case 0:
			s.Set(slot, item.New(int32(r.Intn(5)+1), r.Intn(100)-10))
		case 1:
			s.Take(slot, r.Intn(70))
		case 2:
			s.RemoveAll(slot)
		case 3:
			if r.Intn(50) == 0 {
				s.Clear()
			}
		}
		if got := s.Capacity(); got != 27 {
			t.Fatalf("after %d ops Capacity() = %d, want 27", i, got)
		}
		for j, st := range s.Slots() {
			if !st.IsEmpty() && (st.Count <= 0 || st.Count > item.MaxStackSize) {
				t.Fatalf("slot %d holds invalid count %d", j, st.Count)
			}
			if st.IsEmpty() && (st.ID != 0 || st.Count != 0) {
				t.Fatalf("slot %d holds a non-canonical empty stack %+v", j, st)
			}
		}
	}
}

func TestSetClampsToStackLimit(t *testing.T) {
	s := New(3)
	s.Set(0, item.New(1, 200))
	if got := s.Get(0).Count; got != 64 {
		t.Errorf("Set(200) stored count %d, want 64", got)
	}

	s = New(3, WithStackLimit(16))
	s.Set(1, item.New(1, 20))
	if got := s.Get(1).Count; got != 16 {
		t.Errorf("Set(20) with limit 16 stored count %d, want 16", got)
	}
}

func TestSetZeroCountStoresEmpty(t *testing.T) {
	s := New(2)
	s.Set(0, item.Stack{ID: 9, Count: 0})
	if got := s.Get(0); !got.IsEmpty() || got.ID != 0 {
		t.Errorf("Get(0) = %+v, want the canonical empty stack", got)
	}
}

func TestTake(t *testing.T) {
	s := New(2)
	s.Set(0, item.New(3, 10))
	s.ClearDirty()

	got := s.Take(0, 4)
	if got.Count != 4 || got.ID != 3 {
		t.Errorf("Take(0, 4) = %+v, want 4 of item 3", got)
	}
	if left := s.Get(0).Count; left != 6 {
		t.Errorf("slot 0 count after Take = %d, want 6", left)
	}
	if !s.Dirty() {
		t.Error("Take did not mark the store dirty")
	}

	got = s.Take(0, 100)
	if got.Count != 6 {
		t.Errorf("Take(0, 100) = %d items, want 6", got.Count)
	}
	if !s.Get(0).IsEmpty() {
		t.Error("slot 0 should be empty after taking everything")
	}

	s.ClearDirty()
	if got := s.Take(1, 5); !got.IsEmpty() {
		t.Errorf("Take from empty slot = %+v, want empty", got)
	}
	if s.Dirty() {
		t.Error("taking from an empty slot should not mark the store dirty")
	}
}

func TestRemoveAllAndClearMarkDirty(t *testing.T) {
	s := New(2)
	s.Set(0, item.New(3, 10))
	s.ClearDirty()

	if got := s.RemoveAll(0); got.Count != 10 {
		t.Errorf("RemoveAll(0) = %d items, want 10", got.Count)
	}
	if !s.Dirty() {
		t.Error("RemoveAll did not mark the store dirty")
	}

	s.ClearDirty()
	s.Clear()
	if !s.Dirty() {
		t.Error("Clear did not mark the store dirty")
	}
	if !s.Empty() {
		t.Error("store should be empty after Clear")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := New(1)
	s.Set(0, item.New(3, 10))
	st := s.Get(0)
	st.Count = 1
	if got := s.Get(0).Count; got != 10 {
		t.Errorf("mutating a returned stack changed the store: count = %d", got)
	}
}

func TestFillHookRunsOnceBeforeFirstAccess(t *testing.T) {
	var calls int
	var s *Store
	s = New(5, WithFillHook(func() {
		calls++
		s.Set(2, item.New(4, 8))
	}))

	if calls != 0 {
		t.Fatal("fill hook ran before any access")
	}
	if got := s.Capacity(); got != 5 {
		t.Errorf("Capacity() = %d, want 5", got)
	}
	if calls != 1 {
		t.Errorf("fill hook ran %d times after Capacity(), want 1", calls)
	}
	if got := s.Get(2).Count; got != 8 {
		t.Errorf("loot slot count = %d, want 8", got)
	}
	s.Set(0, item.New(1, 1))
	s.Clear()
	if calls != 1 {
		t.Errorf("fill hook ran %d times, want exactly 1", calls)
	}
}

func TestMarkFilledSkipsHook(t *testing.T) {
	called := false
	s := New(1, WithFillHook(func() { called = true }))
	s.MarkFilled()
	s.Get(0)
	if called {
		t.Error("fill hook ran after MarkFilled")
	}
}

func TestIsValidForUsesFilter(t *testing.T) {
	s := New(1, WithFilter(func(st item.Stack) bool { return st.ID == 42 }))
	if !s.IsValidFor(0, item.New(42, 1)) {
		t.Error("IsValidFor rejected an accepted item")
	}
	if s.IsValidFor(0, item.New(1, 1)) {
		t.Error("IsValidFor accepted a filtered item")
	}
}

func TestSetContentsDropsOverflow(t *testing.T) {
	s := New(2)
	s.SetContents([]item.Stack{item.New(1, 1), item.New(2, 99), item.New(3, 3)})
	if got := s.Capacity(); got != 2 {
		t.Fatalf("Capacity() = %d, want 2", got)
	}
	if got := s.Get(1).Count; got != 64 {
		t.Errorf("slot 1 count = %d, want clamped 64", got)
	}
}

func TestOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Get(out of range) did not panic")
		}
	}()
	New(2).Get(2)
}
