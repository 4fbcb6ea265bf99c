package topstacks

import (
	"math/rand"
	"testing"

	"github.com/go-mclib/chests/pkg/item"
	"github.com/google/go-cmp/cmp"
)

const (
	wood  int32 = 10
	stone int32 = 20
)

func TestRecomputeExample(t *testing.T) {
	slots := []item.Stack{
		item.New(wood, 5),
		item.New(wood, 3),
		item.New(stone, 10),
		item.Empty,
		item.Empty,
	}

	var a Aggregator
	got, changed := a.Recompute(slots)
	if !changed {
		t.Error("first non-empty recompute reported no change")
	}

	want := Summary{item.New(stone, 10), item.New(wood, 8)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Recompute mismatch (-want +got):\n%s", diff)
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	slots := []item.Stack{item.New(1, 4), item.New(2, 9), item.New(1, 4)}

	var a Aggregator
	first, _ := a.Recompute(slots)
	second, changed := a.Recompute(slots)
	if changed {
		t.Error("second recompute without mutation reported a change")
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("summaries differ (-first +second):\n%s", diff)
	}
}

func TestEqualCountsStillMerge(t *testing.T) {
	slots := []item.Stack{item.New(wood, 5), item.New(wood, 5), item.New(wood, 10)}
	got := Aggregate(slots)
	if got[0].Count != 20 {
		t.Errorf("aggregate count = %d, want 20", got[0].Count)
	}
	if got.Len() != 1 {
		t.Errorf("Len() = %d, want 1", got.Len())
	}
}

func TestTaggedStacksStayDistinct(t *testing.T) {
	named := item.New(wood, 2)
	named.Tag = map[string]any{"display": map[string]any{"Name": "Special"}}
	got := Aggregate([]item.Stack{item.New(wood, 3), named, item.New(wood, 1)})

	if got.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", got.Len())
	}
	if got[0].Count != 4 || len(got[0].Tag) != 0 {
		t.Errorf("first entry = %+v, want plain wood x4", got[0])
	}
	if got[1].Count != 2 || len(got[1].Tag) == 0 {
		t.Errorf("second entry = %+v, want tagged wood x2", got[1])
	}
}

func TestBecameEmptyTransitionsOnce(t *testing.T) {
	var a Aggregator
	a.Recompute([]item.Stack{item.New(stone, 1)})

	empty := make([]item.Stack, 4)
	got, changed := a.Recompute(empty)
	if !changed {
		t.Error("emptying the store reported no change")
	}
	if !got.IsEmpty() {
		t.Errorf("summary after emptying = %v, want all empty", got)
	}

	_, changed = a.Recompute(empty)
	if changed {
		t.Error("a second empty recompute reported another change")
	}
}

func TestNeverFilledReportsNoChange(t *testing.T) {
	var a Aggregator
	if _, changed := a.Recompute(make([]item.Stack, 9)); changed {
		t.Error("an always-empty store reported a change")
	}
}

func TestCompactedAndSorted(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		slots := make([]item.Stack, 27)
		for i := range slots {
			if r.Intn(3) == 0 {
				continue
			}
			slots[i] = item.New(int32(r.Intn(14)+1), r.Intn(64)+1)
		}
		got := Aggregate(slots)

		seenEmpty := false
		for i, st := range got {
			if st.IsEmpty() {
				seenEmpty = true
				continue
			}
			if seenEmpty {
				t.Fatalf("round %d: entry %d is non-empty after an empty entry", round, i)
			}
			if i > 0 && got[i-1].Count < st.Count {
				t.Fatalf("round %d: entry %d count %d exceeds previous %d", round, i, st.Count, got[i-1].Count)
			}
		}
	}
}

func TestCountsAreExactAggregates(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for round := 0; round < 200; round++ {
		slots := make([]item.Stack, 54)
		totals := map[int32]int{}
		for i := range slots {
			if r.Intn(4) == 0 {
				continue
			}
			id := int32(r.Intn(12) + 1)
			n := r.Intn(64) + 1
			slots[i] = item.New(id, n)
			totals[id] += n
		}
		got := Aggregate(slots)

		if len(totals) <= Size && got.Len() != len(totals) {
			t.Fatalf("round %d: Len() = %d, want %d distinct items", round, got.Len(), len(totals))
		}
		for _, st := range got {
			if st.IsEmpty() {
				continue
			}
			if st.Count != totals[st.ID] {
				t.Fatalf("round %d: item %d count = %d, want %d", round, st.ID, st.Count, totals[st.ID])
			}
		}
		if len(totals) > Size {
			// every excluded item must have a total no larger than the smallest included one
			smallest := got[Size-1].Count
			included := map[int32]bool{}
			for _, st := range got {
				included[st.ID] = true
			}
			for id, n := range totals {
				if !included[id] && n > smallest {
					t.Fatalf("round %d: item %d with %d items excluded while %d was kept", round, id, n, smallest)
				}
			}
		}
	}
}
