package chests

import (
	"math/rand/v2"

	"github.com/go-mclib/chests/pkg/chest/inventory"
	"github.com/go-mclib/chests/pkg/item"
)

// LootEntry is one possible drop of a loot table.
type LootEntry struct {
	Item     string
	Min, Max int
}

// LootTables maps table names to their entries. Every entry is rolled once
// into a random empty slot, with a count drawn from [Min, Max].
type LootTables map[string][]LootEntry

// FillLoot rolls table into inv. The same seed yields the same contents.
func (l LootTables) FillLoot(table string, seed int64, inv *inventory.Store) {
	entries, ok := l[table]
	if !ok {
		return
	}
	r := rand.New(rand.NewPCG(uint64(seed), uint64(len(table))))

	var free []int
	for i := 0; i < inv.Capacity(); i++ {
		if inv.Get(i).IsEmpty() {
			free = append(free, i)
		}
	}
	r.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })

	for _, e := range entries {
		if len(free) == 0 {
			return
		}
		n := e.Min
		if e.Max > e.Min {
			n += r.IntN(e.Max - e.Min + 1)
		}
		s := item.Of(e.Item, n)
		if s.IsEmpty() {
			continue
		}
		inv.Set(free[0], s)
		free = free[1:]
	}
}
