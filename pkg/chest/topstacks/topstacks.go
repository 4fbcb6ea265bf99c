// Package topstacks derives the compact "top stacks" view of a chest: the
// eight most plentiful distinct items with their total counts, which clients
// render on transparent chests without receiving the whole inventory.
package topstacks

import (
	"reflect"
	"sort"

	"github.com/go-mclib/chests/pkg/item"
)

// Size is the number of entries in a summary.
const Size = 8

// Summary lists up to Size distinct items sorted by descending total count.
// Non-empty entries are packed at the front; the rest are item.Empty.
type Summary [Size]item.Stack

// Len returns the number of non-empty entries.
func (s Summary) Len() int {
	n := 0
	for _, st := range s {
		if !st.IsEmpty() {
			n++
		}
	}
	return n
}

// IsEmpty reports whether the summary has no entries.
func (s Summary) IsEmpty() bool { return s.Len() == 0 }

// Equal compares two summaries entry by entry, including counts and tags.
func (s Summary) Equal(o Summary) bool {
	for i := range s {
		a, b := s[i], o[i]
		if a.IsEmpty() != b.IsEmpty() {
			return false
		}
		if a.IsEmpty() {
			continue
		}
		if a.ID != b.ID || a.Count != b.Count {
			return false
		}
		if (len(a.Tag) != 0 || len(b.Tag) != 0) && !reflect.DeepEqual(a.Tag, b.Tag) {
			return false
		}
	}
	return true
}

// Aggregate computes the summary of slots without any history.
func Aggregate(slots []item.Stack) Summary {
	var out Summary
	distinct := merge(slots)
	sortByCount(distinct)
	for i := 0; i < len(distinct) && i < Size; i++ {
		out[i] = distinct[i]
	}
	return out
}

// merge folds same-item stacks together, keeping first-occurrence order.
func merge(slots []item.Stack) []item.Stack {
	distinct := make([]item.Stack, 0, len(slots))
next:
	for _, st := range slots {
		if st.IsEmpty() {
			continue
		}
		for j := range distinct {
			if distinct[j].SameItem(st) {
				distinct[j].Count += st.Count
				continue next
			}
		}
		distinct = append(distinct, st.Copy())
	}
	return distinct
}

func sortByCount(stacks []item.Stack) {
	sort.SliceStable(stacks, func(i, j int) bool {
		return stacks[i].Count > stacks[j].Count
	})
}

// Aggregator keeps the last published summary so callers only redraw and
// broadcast when the summary actually changes.
type Aggregator struct {
	hadStuff bool
	last     Summary
}

// Last returns the most recently computed summary.
func (a *Aggregator) Last() Summary { return a.last }

// Recompute rebuilds the summary from slots and reports whether it differs
// from the previous one. A store that empties out after holding items yields
// an all-empty summary exactly once.
func (a *Aggregator) Recompute(slots []item.Stack) (Summary, bool) {
	distinct := merge(slots)

	if len(distinct) == 0 {
		if !a.hadStuff {
			return a.last, false
		}
		a.hadStuff = false
		for i := range a.last {
			a.last[i] = item.Empty
		}
		return a.last, true
	}
	a.hadStuff = true

	sortByCount(distinct)

	var out Summary
	p := 0
	for _, st := range distinct {
		if p == Size {
			break
		}
		out[p] = st
		p++
	}
	for i := p; i < Size; i++ {
		out[i] = item.Empty
	}

	changed := !out.Equal(a.last)
	a.last = out
	return out, changed
}

// Reset forgets the previous summary.
func (a *Aggregator) Reset() {
	a.hadStuff = false
	a.last = Summary{}
}
