package rescue

import (
	"math"
	"sort"

	"github.com/jihwankim/evacsim/pkg/graph"
	"github.com/jihwankim/evacsim/pkg/pathfind"
)

// DefaultMaxItems caps total item generation. Past the cap the generator
// stops raising subset cardinality, which degrades K rather than failing.
const DefaultMaxItems = 200000

// carryFactor doubles loaded-segment distances: a responder carrying at
// least one incapable occupant moves at half speed. The kernel charges every
// hop one action point; the 2× shows up only in planning time.
const carryFactor = 2.0

// Params tune item generation and valuation.
type Params struct {
	// K is the responder carry capacity bounding every pickup vector.
	K int

	// FirePriorityWeight w_f boosts rooms near the fire origin; 0 disables
	// the fire-distance pre-pass.
	FirePriorityWeight float64

	// UnderCapacityPenalty α discounts items that leave capacity unused.
	UnderCapacityPenalty float64

	// MaxItems is the soft generation cap; 0 means DefaultMaxItems.
	MaxItems int
}

// Result carries the surviving items plus generation diagnostics.
type Result struct {
	Items      []Item
	Generated  int // items emitted; dominance-pruned subsets are never scored
	Pruned     int // multi-room subsets dropped by dominance before allocation
	EffectiveK int // K actually explored before the cap bit
}

// Generate enumerates rescue items over the rooms with observed incapable
// occupants. For every subset S (1 ≤ |S| ≤ K) and positive allocation
// bounded by per-room supply, only the best (permutation, entry exit, drop
// exit) combination is kept. Items dominated by the sum of their single-room
// bests are dropped as produced.
func Generate(g *graph.Graph, incapable map[int]int, fireOrigin int, priority func(room int) float64, p Params) Result {
	maxItems := p.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	rooms := make([]int, 0, len(incapable))
	for r, n := range incapable {
		if n > 0 {
			rooms = append(rooms, r)
		}
	}
	sort.Ints(rooms)

	res := Result{EffectiveK: p.K}
	if len(rooms) == 0 || p.K <= 0 {
		return res
	}

	exits := pathfind.Exits(g)
	ap := pathfind.NewAllPairs(g)
	ap.Warm(rooms)
	ap.Warm(exits)

	var fireDist *pathfind.ShortestTree
	if p.FirePriorityWeight > 0 {
		fireDist = pathfind.Dijkstra(g, fireOrigin)
	}

	gen := &generator{
		g:         g,
		ap:        ap,
		exits:     exits,
		incapable: incapable,
		priority:  priority,
		fireDist:  fireDist,
		params:    p,
		maxItems:  maxItems,
	}

	// Single-room bests seed the dominance bound and are never pruned.
	gen.singleTime = make(map[int]float64, len(rooms))
	for _, r := range rooms {
		if t, _, _, ok := gen.bestTour([]int{r}); ok {
			gen.singleTime[r] = t
		} else {
			gen.singleTime[r] = math.Inf(1)
		}
	}

	for size := 1; size <= p.K && size <= len(rooms); size++ {
		if gen.count >= maxItems {
			res.EffectiveK = size - 1
			break
		}
		gen.subsets(rooms, size, nil)
	}

	res.Items = gen.items
	res.Generated = gen.count
	res.Pruned = gen.pruned
	return res
}

type generator struct {
	g          *graph.Graph
	ap         *pathfind.AllPairs
	exits      []int
	incapable  map[int]int
	priority   func(room int) float64
	fireDist   *pathfind.ShortestTree
	params     Params
	maxItems   int
	singleTime map[int]float64

	items  []Item
	count  int
	pruned int
}

// subsets enumerates size-k room subsets in lexicographic order.
func (gen *generator) subsets(rooms []int, k int, acc []int) {
	if gen.count >= gen.maxItems {
		return
	}
	if k == 0 {
		gen.emitSubset(acc)
		return
	}
	for i, r := range rooms {
		if len(rooms)-i < k {
			break
		}
		gen.subsets(rooms[i+1:], k-1, append(acc, r))
	}
}

// emitSubset scores every positive allocation of the subset against its best
// tour and streams surviving items out.
func (gen *generator) emitSubset(subset []int) {
	time, seq, path, ok := gen.bestTour(subset)
	if !ok {
		return
	}

	// Dominance bound: a multi-room item slower than running each room's
	// best single-room item back to back cannot win under the greedy policy.
	if len(subset) > 1 {
		var bound float64
		for _, r := range subset {
			bound += gen.singleTime[r]
		}
		if time >= bound {
			gen.pruned++
			return
		}
	}

	gen.allocations(subset, gen.params.K, nil, func(alloc []int) {
		if gen.count >= gen.maxItems {
			return
		}
		gen.count++
		vector := make(map[int]int, len(subset))
		for i, r := range subset {
			vector[r] = alloc[i]
		}
		gen.items = append(gen.items, Item{
			Vector:    vector,
			VisitSeq:  append([]int(nil), seq...),
			EntryExit: path[0],
			DropExit:  path[len(path)-1],
			FullPath:  append([]int(nil), path...),
			Time:      time,
			Value:     gen.value(vector, time),
		})
	})
}

// allocations enumerates v : subset → ℕ⁺ with Σ v ≤ budget and
// v(r) ≤ incapable[r].
func (gen *generator) allocations(subset []int, budget int, acc []int, emit func([]int)) {
	if len(acc) == len(subset) {
		emit(acc)
		return
	}
	room := subset[len(acc)]
	max := gen.incapable[room]
	// Leave at least one unit per remaining room.
	remainingRooms := len(subset) - len(acc) - 1
	if avail := budget - remainingRooms; max > avail {
		max = avail
	}
	for n := 1; n <= max; n++ {
		gen.allocations(subset, budget-n, append(acc, n), emit)
	}
}

// bestTour finds the argmin over permutations and ordered exit pairs of the
// carrying-weighted traversal time, and returns the concrete path.
func (gen *generator) bestTour(subset []int) (best float64, seq []int, path []int, ok bool) {
	best = math.Inf(1)
	perms(append([]int(nil), subset...), 0, func(p []int) {
		inner := 0.0
		for i := 0; i+1 < len(p); i++ {
			inner += gen.ap.Dist(p[i], p[i+1])
		}
		for _, eIn := range gen.exits {
			dIn := gen.ap.Dist(eIn, p[0])
			if math.IsInf(dIn, 1) {
				continue
			}
			for _, eOut := range gen.exits {
				dOut := gen.ap.Dist(p[len(p)-1], eOut)
				t := dIn + carryFactor*(inner+dOut)
				if t < best {
					best = t
					seq = append(seq[:0], p...)
					path = gen.concretePath(eIn, p, eOut)
				}
			}
		}
	})
	return best, seq, path, !math.IsInf(best, 1) && path != nil
}

// concretePath concatenates the shortest segments entry→rooms→drop.
func (gen *generator) concretePath(eIn int, seq []int, eOut int) []int {
	stops := append([]int{eIn}, seq...)
	stops = append(stops, eOut)
	full := []int{eIn}
	for i := 0; i+1 < len(stops); i++ {
		seg, ok := gen.ap.Path(stops[i], stops[i+1])
		if !ok {
			return nil
		}
		full = append(full, seg[1:]...)
	}
	return full
}

// value computes the priority-weighted value density of a pickup vector.
func (gen *generator) value(vector map[int]int, time float64) float64 {
	if time <= 0 {
		time = 1
	}
	var v0 float64
	passengers := 0
	for r, n := range vector {
		passengers += n
		term := float64(n) * gen.priority(r)
		if gen.fireDist != nil {
			term *= 1 + gen.params.FirePriorityWeight/(1+gen.fireDist.Dist[r])
		}
		v0 += term
	}
	if alpha := gen.params.UnderCapacityPenalty; alpha > 0 && passengers < gen.params.K {
		mult := 1 - alpha*float64(gen.params.K-passengers)
		if mult < 0 {
			mult = 0
		}
		v0 *= mult
	}
	return v0 / time
}

// perms invokes emit for every permutation of s via in-place swaps.
func perms(s []int, k int, emit func([]int)) {
	if k == len(s)-1 {
		emit(s)
		return
	}
	for i := k; i < len(s); i++ {
		s[k], s[i] = s[i], s[k]
		perms(s, k+1, emit)
		s[k], s[i] = s[i], s[k]
	}
}
