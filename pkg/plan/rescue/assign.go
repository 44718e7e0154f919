package rescue

import (
	"sort"

	"github.com/jihwankim/evacsim/pkg/graph"
	"github.com/jihwankim/evacsim/pkg/pathfind"
)

// ResponderInfo is the assigner's view of one responder: where it is and how
// much work it already holds.
type ResponderInfo struct {
	ID      int
	Pos     int
	Load    float64 // total time of already-queued items
	Trapped bool
}

// Assigner selects a non-overlapping subset of items and distributes them to
// responders. Implementations must respect per-room incapable supply.
type Assigner interface {
	Assign(g *graph.Graph, items []Item, incapable map[int]int, responders []ResponderInfo) map[int][]Item
}

// Greedy assigns items in value-density order to the responder with the
// lowest marginal execution time, subtracting each assigned vector from the
// per-room supply. This is the default policy.
type Greedy struct{}

// Assign implements Assigner.
func (Greedy) Assign(g *graph.Graph, items []Item, incapable map[int]int, responders []ResponderInfo) map[int][]Item {
	remaining := make(map[int]int, len(incapable))
	for r, n := range incapable {
		remaining[r] = n
	}

	ordered := make([]Item, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Value != ordered[j].Value {
			return ordered[i].Value > ordered[j].Value
		}
		return ordered[i].Time < ordered[j].Time
	})

	ap := pathfind.NewAllPairs(g)

	type slot struct {
		info ResponderInfo
		cost float64 // running execution time
		at   int     // where the responder ends its current queue
	}
	slots := make([]*slot, 0, len(responders))
	for _, r := range responders {
		if r.Trapped {
			continue
		}
		slots = append(slots, &slot{info: r, cost: r.Load, at: r.Pos})
	}
	if len(slots) == 0 {
		return nil
	}

	out := make(map[int][]Item)
	for _, it := range ordered {
		if !feasible(it, remaining) {
			continue
		}
		// Marginal execution time: transit to the item's entry exit plus the
		// item itself, on top of the work already queued.
		best := -1
		var bestCost float64
		for i, sl := range slots {
			transit := ap.Dist(sl.at, it.EntryExit)
			cost := sl.cost + transit + it.Time
			if best == -1 || cost < bestCost {
				best, bestCost = i, cost
			}
		}
		sl := slots[best]
		transit := ap.Dist(sl.at, it.EntryExit)
		sl.cost += transit + it.Time
		sl.at = it.DropExit
		for r, n := range it.Vector {
			remaining[r] -= n
		}
		out[sl.info.ID] = append(out[sl.info.ID], it)
	}
	return out
}

func feasible(it Item, remaining map[int]int) bool {
	for r, n := range it.Vector {
		if remaining[r] < n {
			return false
		}
	}
	return true
}
