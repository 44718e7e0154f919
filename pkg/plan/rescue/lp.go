package rescue

import (
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/jihwankim/evacsim/pkg/graph"
)

// LP selects items by solving the linear relaxation of the item-selection
// program — maximize Σ x·value subject to per-room supply and x ∈ [0,1] —
// then rounds greedily by fractional weight. Analysis use only; Greedy is
// the production default.
type LP struct{}

// Assign implements Assigner.
func (LP) Assign(g *graph.Graph, items []Item, incapable map[int]int, responders []ResponderInfo) map[int][]Item {
	if len(items) == 0 {
		return nil
	}

	rooms := make([]int, 0, len(incapable))
	for r, n := range incapable {
		if n > 0 {
			rooms = append(rooms, r)
		}
	}
	sort.Ints(rooms)
	roomIdx := make(map[int]int, len(rooms))
	for i, r := range rooms {
		roomIdx[r] = i
	}

	// Standard form: minimize cᵀz s.t. Az = b, z ≥ 0 with
	// z = [x_1..x_n, s_1..s_m, t_1..t_n]: s are room-supply slacks,
	// t are the x ≤ 1 slacks.
	n := len(items)
	m := len(rooms)
	cols := n + m + n
	rows := m + n

	c := make([]float64, cols)
	for i, it := range items {
		c[i] = -it.Value
	}

	a := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	for i, r := range rooms {
		for j, it := range items {
			if v, ok := it.Vector[r]; ok {
				a.Set(i, j, float64(v))
			}
		}
		a.Set(i, n+i, 1)
		b[i] = float64(incapable[r])
	}
	for j := range items {
		a.Set(m+j, j, 1)
		a.Set(m+j, n+m+j, 1)
		b[m+j] = 1
	}

	weights := make([]float64, n)
	if _, z, err := lp.Simplex(c, a, b, 1e-9, nil); err == nil {
		copy(weights, z[:n])
	} else {
		// Relaxation failed: fall back to pure value order.
		for i, it := range items {
			weights[i] = it.Value
		}
	}

	// Greedy rounding by fractional weight, value as the tie-break.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		wi, wj := weights[order[i]], weights[order[j]]
		if wi != wj {
			return wi > wj
		}
		return items[order[i]].Value > items[order[j]].Value
	})

	remaining := make(map[int]int, len(incapable))
	for r, cnt := range incapable {
		remaining[r] = cnt
	}
	var selected []Item
	for _, idx := range order {
		if weights[idx] <= 0 {
			continue
		}
		if !feasible(items[idx], remaining) {
			continue
		}
		for r, cnt := range items[idx].Vector {
			remaining[r] -= cnt
		}
		selected = append(selected, items[idx])
	}

	// Distribution to responders reuses the greedy marginal-time rule.
	return Greedy{}.Assign(g, selected, incapable, responders)
}
