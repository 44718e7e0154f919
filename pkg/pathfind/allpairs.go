package pathfind

import "github.com/jihwankim/evacsim/pkg/graph"

// AllPairs memoizes single-source Dijkstra trees over a fixed source set.
// The optimizer queries distances between every (room, exit) combination;
// memoization keeps the cost at one Dijkstra per distinct source. A cache is
// only valid for one graph generation: discard it after any edge clears.
type AllPairs struct {
	g     *graph.Graph
	trees map[int]*ShortestTree
}

// NewAllPairs creates an empty cache over g.
func NewAllPairs(g *graph.Graph) *AllPairs {
	return &AllPairs{g: g, trees: make(map[int]*ShortestTree)}
}

// Tree returns the memoized shortest-path tree rooted at src.
func (ap *AllPairs) Tree(src int) *ShortestTree {
	if t, ok := ap.trees[src]; ok {
		return t
	}
	t := Dijkstra(ap.g, src)
	ap.trees[src] = t
	return t
}

// Dist returns the metric distance from a to b; +Inf when unreachable.
// Dist(x, x) is 0.
func (ap *AllPairs) Dist(a, b int) float64 {
	return ap.Tree(a).Dist[b]
}

// Path returns the concrete vertex sequence from a to b, inclusive.
func (ap *AllPairs) Path(a, b int) (path []int, ok bool) {
	return ap.Tree(a).PathTo(b)
}

// Warm precomputes trees for every source in the set.
func (ap *AllPairs) Warm(sources []int) {
	for _, s := range sources {
		ap.Tree(s)
	}
}
